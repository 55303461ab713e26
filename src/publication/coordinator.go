package publication

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/moltbook/observatory/src/council"
)

var (
	// ErrNotPending means run was requested for a publication that is not
	// waiting for review.
	ErrNotPending = errors.New("publication: not in pending_review state")
	// ErrNotApproved means publish was requested before approval.
	ErrNotApproved = errors.New("publication: not in approved state")
	// ErrSafetyRejected means the final pre-publish safety check failed.
	// The publication stays approved so it can be retried or escalated.
	ErrSafetyRejected = errors.New("publication: final safety check rejected content")
)

// Coordinator drives publications through review and delivery. All public
// content passes through here; there is no path to a target that skips the
// safety gate.
type Coordinator struct {
	store   Store
	panel   Panel
	targets map[string]Target
	log     *zap.Logger
}

func NewCoordinator(store Store, panel Panel, targets []Target, log *zap.Logger) *Coordinator {
	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.Name()] = t
	}
	return &Coordinator{store: store, panel: panel, targets: byName, log: log}
}

// Submit registers new content for review. Returns the store-assigned id.
func (c *Coordinator) Submit(ctx context.Context, title, content, category string, targets []string) (uint64, error) {
	if len(targets) == 0 {
		targets = []string{"website"}
	}
	if category == "" {
		category = "insight"
	}
	pub := &Publication{
		Title:    title,
		Content:  content,
		Category: category,
		Status:   StatusPendingReview,
		Targets:  targets,
	}
	id, err := c.store.CreatePublication(ctx, pub)
	if err != nil {
		return 0, fmt.Errorf("create publication: %w", err)
	}
	if err := c.store.AppendLog(ctx, id, "submitted", "system", "Submitted for review"); err != nil {
		return 0, err
	}
	c.log.Info("publication submitted",
		zap.Uint64("publication_id", id), zap.String("title", title))
	return id, nil
}

// RunDeliberation moves a pending publication through the panel. The
// in_deliberation status is committed before any external call starts, so a
// crash mid-panel is observable in the audit trail.
func (c *Coordinator) RunDeliberation(ctx context.Context, pubID uint64) (*ReviewOutcome, error) {
	pub, err := c.store.GetPublication(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if pub.Status != StatusPendingReview {
		return nil, fmt.Errorf("%w: publication %d is %s", ErrNotPending, pubID, pub.Status)
	}

	if err := c.store.SetStatus(ctx, pubID, StatusInDeliberation); err != nil {
		return nil, err
	}
	if err := c.store.AppendLog(ctx, pubID, "deliberation_started", "council", ""); err != nil {
		return nil, err
	}

	d, err := c.panel.Deliberate(ctx, council.Submission{Topic: pub.Title, Content: pub.Content}, false)
	if err != nil {
		return nil, fmt.Errorf("deliberation for publication %d: %w", pubID, err)
	}

	newStatus := StatusRejected
	if d.FinalDecision == council.DecisionPublish {
		newStatus = StatusApproved
	}
	if err := c.store.SetDeliberationResult(ctx, pubID, newStatus, d.ID); err != nil {
		return nil, err
	}
	if err := c.store.AppendLog(ctx, pubID,
		"deliberation_complete_"+string(d.FinalDecision), "council",
		truncate(d.ConsensusSummary, 500)); err != nil {
		return nil, err
	}

	votes := make(map[council.Role]bool, len(d.Votes))
	for _, v := range d.Votes {
		votes[v.Role] = v.Approve
	}
	c.log.Info("deliberation complete",
		zap.Uint64("publication_id", pubID),
		zap.String("decision", string(d.FinalDecision)))

	return &ReviewOutcome{
		PublicationID: pubID,
		Decision:      d.FinalDecision,
		Consensus:     d.ConsensusSummary,
		Votes:         votes,
	}, nil
}

// Publish delivers an approved publication to each of its targets. One more
// independent single-reviewer safety check runs first; a reject aborts the
// whole attempt with no deliveries and leaves the status at approved.
// Targets are attempted independently and concurrently; partial failure does
// not block siblings or roll back successes. Status becomes published once
// every target's outcome, success or not, is on record.
func (c *Coordinator) Publish(ctx context.Context, pubID uint64) (map[string]Result, error) {
	pub, err := c.store.GetPublication(ctx, pubID)
	if err != nil {
		return nil, err
	}
	if pub.Status != StatusApproved {
		return nil, fmt.Errorf("%w: publication %d is %s", ErrNotApproved, pubID, pub.Status)
	}

	verdict := c.panel.QuickSafetyCheck(ctx, pub.Content)
	if !verdict.Approved {
		c.log.Warn("safety check blocked publication",
			zap.Uint64("publication_id", pubID), zap.String("reason", verdict.Reason))
		if err := c.store.AppendLog(ctx, pubID, "safety_blocked", "security_guard", verdict.Reason); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", ErrSafetyRejected, verdict.Reason)
	}

	results := c.deliverAll(ctx, pub)

	now := time.Now().UTC()
	if err := c.store.MarkPublished(ctx, pubID, now); err != nil {
		return nil, err
	}
	if pub.DeliberationID != nil {
		if err := c.store.MarkDeliberationPublished(ctx, *pub.DeliberationID, now); err != nil {
			return nil, err
		}
	}
	notes, _ := json.Marshal(results)
	if err := c.store.AppendLog(ctx, pubID, "published", "coordinator", string(notes)); err != nil {
		return nil, err
	}

	c.log.Info("publication delivered",
		zap.Uint64("publication_id", pubID), zap.Int("targets", len(results)))
	return results, nil
}

// deliverAll runs each requested target concurrently. Outcomes land in a
// pre-sized slice and are folded into the map by this goroutine alone, so
// no two writers touch the shared result.
func (c *Coordinator) deliverAll(ctx context.Context, pub *Publication) map[string]Result {
	outcomes := make([]Result, len(pub.Targets))
	var wg sync.WaitGroup
	for idx, name := range pub.Targets {
		target, ok := c.targets[name]
		if !ok {
			outcomes[idx] = Result{Error: "unknown target: " + name}
			continue
		}
		wg.Add(1)
		go func(i int, t Target) {
			defer wg.Done()
			outcomes[i] = t.Deliver(ctx, pub)
		}(idx, target)
	}
	wg.Wait()

	results := make(map[string]Result, len(pub.Targets))
	for idx, name := range pub.Targets {
		results[name] = outcomes[idx]
	}
	return results
}

// ProcessQueue walks every pending publication through deliberation and
// auto-publishes approvals.
func (c *Coordinator) ProcessQueue(ctx context.Context) (*QueueReport, error) {
	pending, err := c.store.ListPendingReview(ctx)
	if err != nil {
		return nil, err
	}

	report := &QueueReport{Errors: []string{}}
	for _, pubID := range pending {
		outcome, err := c.RunDeliberation(ctx, pubID)
		if err != nil {
			c.log.Error("queue item failed", zap.Uint64("publication_id", pubID), zap.Error(err))
			report.Errors = append(report.Errors, fmt.Sprintf("publication %d: %v", pubID, err))
			continue
		}
		report.Processed++

		if outcome.Decision != council.DecisionPublish {
			report.Rejected++
			continue
		}
		report.Approved++

		if _, err := c.Publish(ctx, pubID); err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("publication %d: %v", pubID, err))
			continue
		}
		report.Published++
	}

	c.log.Info("queue processed",
		zap.Int("processed", report.Processed),
		zap.Int("approved", report.Approved),
		zap.Int("published", report.Published))
	return report, nil
}

// Queue lists publications that have not reached a terminal state.
func (c *Coordinator) Queue(ctx context.Context) ([]Publication, error) {
	return c.store.ListQueue(ctx)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
