package publication

import (
	"context"
	"time"

	"github.com/moltbook/observatory/src/council"
)

// Status is the publication lifecycle state. Rejected and Published are
// terminal.
type Status string

const (
	StatusDraft          Status = "draft"
	StatusPendingReview  Status = "pending_review"
	StatusInDeliberation Status = "in_deliberation"
	StatusApproved       Status = "approved"
	StatusRejected       Status = "rejected"
	StatusPublished      Status = "published"
)

// Publication is a piece of content moving through the review pipeline
// toward zero or more delivery targets.
type Publication struct {
	ID             uint64
	Title          string
	Content        string
	Category       string // discovery, insight, alert, update
	Status         Status
	DeliberationID *uint64
	Targets        []string
	CreatedAt      time.Time
	UpdatedAt      time.Time
	PublishedAt    *time.Time
}

// Result is one target's delivery outcome. Targets succeed or fail
// independently of each other.
type Result struct {
	Success bool   `json:"success"`
	Detail  string `json:"detail,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Target is an external publication destination.
type Target interface {
	Name() string
	Deliver(ctx context.Context, pub *Publication) Result
}

// Store is the audit persistence the coordinator drives. Create operations
// return the identity assigned by the write itself.
type Store interface {
	CreatePublication(ctx context.Context, pub *Publication) (uint64, error)
	GetPublication(ctx context.Context, id uint64) (*Publication, error)
	SetStatus(ctx context.Context, id uint64, status Status) error
	SetDeliberationResult(ctx context.Context, id uint64, status Status, deliberationID uint64) error
	MarkPublished(ctx context.Context, id uint64, at time.Time) error
	MarkDeliberationPublished(ctx context.Context, deliberationID uint64, at time.Time) error
	AppendLog(ctx context.Context, pubID uint64, action, actor, notes string) error
	ListQueue(ctx context.Context) ([]Publication, error)
	ListPendingReview(ctx context.Context) ([]uint64, error)
}

// Panel is the slice of the council the coordinator needs.
type Panel interface {
	Deliberate(ctx context.Context, sub council.Submission, requireUnanimous bool) (*council.Deliberation, error)
	QuickSafetyCheck(ctx context.Context, content string) council.SafetyVerdict
}

// ReviewOutcome is returned to collaborators after a deliberation run.
type ReviewOutcome struct {
	PublicationID uint64                `json:"publication_id"`
	Decision      council.Decision      `json:"decision"`
	Consensus     string                `json:"consensus"`
	Votes         map[council.Role]bool `json:"votes"`
}

// QueueReport summarizes one pass over all pending publications.
type QueueReport struct {
	Processed int      `json:"processed"`
	Approved  int      `json:"approved"`
	Rejected  int      `json:"rejected"`
	Published int      `json:"published"`
	Errors    []string `json:"errors"`
}
