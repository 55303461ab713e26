package council

import "time"

// Role identifies one reviewer perspective on the fixed panel.
type Role string

const (
	RoleProjectManager Role = "project_manager"
	RoleSecurityGuard  Role = "security_guard"
	RoleSociologist    Role = "sociologist"
	RolePhilosopher    Role = "philosopher"
	RoleEditor         Role = "editor"
)

// Panel is the fixed, ordered set of roles consulted for every full
// deliberation. Every vote set must have exactly one vote per panel role.
var Panel = []Role{
	RoleProjectManager,
	RoleSecurityGuard,
	RoleSociologist,
	RolePhilosopher,
	RoleEditor,
}

// VetoRole is the single role whose rejection overrides the vote count.
const VetoRole = RoleSecurityGuard

// Submission is the unit under review. Immutable once created.
type Submission struct {
	Topic   string
	Content string
}

// Vote is one reviewer's assessment. ParseFailed implies Approve == false:
// a reviewer whose output could not be understood never counts as approval.
type Vote struct {
	Role        Role     `json:"agent"`
	Approve     bool     `json:"approve"`
	Reasoning   string   `json:"reasoning"`
	Concerns    []string `json:"concerns"`
	Suggestions []string `json:"suggestions"`
	ParseFailed bool     `json:"parse_failed,omitempty"`
}

// Decision is the aggregated outcome of a deliberation.
type Decision string

const (
	DecisionPublish Decision = "publish"
	DecisionRevise  Decision = "revise"
)

// Deliberation is the persisted record of one panel run. Created once,
// mutated only to attach PublishedAt.
type Deliberation struct {
	ID               uint64
	Topic            string
	Content          string
	Votes            []Vote
	FinalDecision    Decision
	ConsensusSummary string
	CreatedAt        time.Time
	PublishedAt      *time.Time
}

// ScreeningResult is the outcome of the cheap pre-check. Never persisted on
// its own; its reason is folded into the deliberation's consensus summary on
// the auto-approve path.
type ScreeningResult struct {
	NeedsReview bool
	Reason      string
	RiskFlags   []string
}

// SafetyVerdict is the result of the single-reviewer fast safety check.
type SafetyVerdict struct {
	Approved bool   `json:"approved"`
	Reason   string `json:"reason"`
}
