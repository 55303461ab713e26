package council

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrIncompleteVoteSet means the panel produced fewer votes than roles.
// Aggregating a partial vote set is never allowed.
var ErrIncompleteVoteSet = errors.New("council: vote set does not match panel size")

// Recorder persists a finished deliberation and hands back the identity
// assigned by the write itself. Implementations must commit the deliberation
// and its votes as one atomic unit; recovering the id later by re-querying
// on topic and timestamp is forbidden.
type Recorder interface {
	SaveDeliberation(ctx context.Context, d *Deliberation, autoApproved bool) (uint64, error)
}

// SafetyCache optionally memoizes quick safety check verdicts for identical
// content. A nil cache disables memoization.
type SafetyCache interface {
	Get(ctx context.Context, content string) (SafetyVerdict, bool)
	Set(ctx context.Context, content string, v SafetyVerdict)
}

// Council orchestrates the fixed reviewer panel. The reviewer client is an
// explicit value scoped to this council; there is no shared global client.
type Council struct {
	reviewer *Reviewer
	recorder Recorder
	safety   SafetyCache
	log      *zap.Logger
}

func New(reviewer *Reviewer, recorder Recorder, safety SafetyCache, log *zap.Logger) *Council {
	return &Council{reviewer: reviewer, recorder: recorder, safety: safety, log: log}
}

// Deliberate runs the full panel on a submission, aggregates the votes, and
// commits the resulting deliberation. Nothing is written until aggregation
// has produced a final decision, so a cancelled run leaves no half-formed
// rows behind. The returned deliberation carries the store-assigned id.
func (c *Council) Deliberate(ctx context.Context, sub Submission, requireUnanimous bool) (*Deliberation, error) {
	runID := uuid.NewString()
	c.log.Info("starting deliberation",
		zap.String("run_id", runID), zap.String("topic", sub.Topic))

	votes := c.collectVotes(ctx, sub)
	if len(votes) != len(Panel) {
		return nil, fmt.Errorf("%w: got %d votes for %d roles", ErrIncompleteVoteSet, len(votes), len(Panel))
	}

	decision, summary := Aggregate(votes, requireUnanimous)

	approvals := 0
	for _, v := range votes {
		if v.Approve {
			approvals++
		}
	}
	c.log.Info("deliberation aggregated",
		zap.String("run_id", runID),
		zap.String("decision", string(decision)),
		zap.Int("approvals", approvals),
		zap.Int("total", len(votes)))

	d := &Deliberation{
		Topic:            sub.Topic,
		Content:          sub.Content,
		Votes:            votes,
		FinalDecision:    decision,
		ConsensusSummary: summary,
	}
	id, err := c.recorder.SaveDeliberation(ctx, d, false)
	if err != nil {
		return nil, fmt.Errorf("save deliberation: %w", err)
	}
	d.ID = id
	return d, nil
}

// collectVotes fans out one reviewer call per panel role. Each slot in the
// result is always filled: Evaluate converts every failure mode, timeouts
// included, into a conservative reject vote.
func (c *Council) collectVotes(ctx context.Context, sub Submission) []Vote {
	votes := make([]Vote, len(Panel))
	var wg sync.WaitGroup
	for idx, role := range Panel {
		wg.Add(1)
		go func(i int, r Role) {
			defer wg.Done()
			votes[i] = c.reviewer.Evaluate(ctx, r, sub)
		}(idx, role)
	}
	wg.Wait()
	return votes
}

// SmartReview screens the submission first and only convenes the panel when
// the screening calls for it. Auto-approved submissions get a synthetic
// all-approve vote set and are persisted with the auto-approve marker.
func (c *Council) SmartReview(ctx context.Context, sub Submission, forceReview bool) (*Deliberation, ScreeningResult, error) {
	screening := Screen(sub, forceReview)
	c.log.Info("screening complete",
		zap.String("topic", sub.Topic),
		zap.Bool("needs_review", screening.NeedsReview),
		zap.String("reason", screening.Reason))

	if screening.NeedsReview {
		d, err := c.Deliberate(ctx, sub, false)
		return d, screening, err
	}

	votes := make([]Vote, len(Panel))
	for i, role := range Panel {
		votes[i] = Vote{
			Role:        role,
			Approve:     true,
			Reasoning:   "Auto-approved: " + screening.Reason,
			Concerns:    []string{},
			Suggestions: []string{},
		}
	}
	d := &Deliberation{
		Topic:            sub.Topic,
		Content:          sub.Content,
		Votes:            votes,
		FinalDecision:    DecisionPublish,
		ConsensusSummary: "AUTO-APPROVED: " + screening.Reason,
	}
	id, err := c.recorder.SaveDeliberation(ctx, d, true)
	if err != nil {
		return nil, screening, fmt.Errorf("save auto-approved deliberation: %w", err)
	}
	d.ID = id
	return d, screening, nil
}

// QuickSafetyCheck is the single-reviewer fast path: only the security role
// is consulted. Used for real-time moderation and as the final pre-publish
// gate. Verdicts for identical content may be served from cache.
func (c *Council) QuickSafetyCheck(ctx context.Context, content string) SafetyVerdict {
	if c.safety != nil {
		if v, ok := c.safety.Get(ctx, content); ok {
			return v
		}
	}

	vote := c.reviewer.Evaluate(ctx, RoleSecurityGuard, Submission{
		Topic:   "Security Check",
		Content: content,
	})
	verdict := SafetyVerdict{Approved: vote.Approve, Reason: vote.Reasoning}

	// Parse failures are conservative rejects; caching them would pin a
	// transient outage onto the content.
	if c.safety != nil && !vote.ParseFailed {
		c.safety.Set(ctx, content, verdict)
	}
	return verdict
}
