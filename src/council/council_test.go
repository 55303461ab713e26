package council

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRecorder struct {
	mu           sync.Mutex
	nextID       uint64
	saved        []Deliberation
	autoApproved []bool
}

func newFakeRecorder() *fakeRecorder { return &fakeRecorder{nextID: 1} }

func (f *fakeRecorder) SaveDeliberation(ctx context.Context, d *Deliberation, autoApproved bool) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.nextID
	f.nextID++
	stored := *d
	stored.ID = id
	f.saved = append(f.saved, stored)
	f.autoApproved = append(f.autoApproved, autoApproved)
	return id, nil
}

func (f *fakeRecorder) last() (Deliberation, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.saved) == 0 {
		return Deliberation{}, false
	}
	return f.saved[len(f.saved)-1], f.autoApproved[len(f.autoApproved)-1]
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]SafetyVerdict
}

func newFakeCache() *fakeCache { return &fakeCache{entries: map[string]SafetyVerdict{}} }

func (f *fakeCache) Get(ctx context.Context, content string) (SafetyVerdict, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.entries[content]
	return v, ok
}

func (f *fakeCache) Set(ctx context.Context, content string, v SafetyVerdict) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[content] = v
}

func newTestCouncil(client *stubClient, rec *fakeRecorder, cache SafetyCache) *Council {
	reviewer := NewReviewer(client, time.Second, zap.NewNop())
	return New(reviewer, rec, cache, zap.NewNop())
}

func TestDeliberatePersistsAndReturnsStoreID(t *testing.T) {
	rec := newFakeRecorder()
	c := newTestCouncil(&stubClient{respond: approveAll}, rec, nil)

	d, err := c.Deliberate(context.Background(), Submission{Topic: "t", Content: "c"}, false)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), d.ID)
	require.Len(t, d.Votes, len(Panel))
	assert.Equal(t, DecisionPublish, d.FinalDecision)

	stored, auto := rec.last()
	assert.Equal(t, d.ID, stored.ID)
	assert.False(t, auto)
}

func TestDeliberateSecurityVetoOverridesMajority(t *testing.T) {
	client := &stubClient{respond: func(sys, _ string) (string, error) {
		if strings.Contains(sys, "Security Guard") {
			return `{"approve": false, "reasoning": "privacy risk", "concerns": ["exposes operator"], "suggestions": []}`, nil
		}
		return `{"approve": true, "reasoning": "fine", "concerns": [], "suggestions": []}`, nil
	}}
	c := newTestCouncil(client, newFakeRecorder(), nil)

	d, err := c.Deliberate(context.Background(), Submission{Topic: "t", Content: "c"}, false)
	require.NoError(t, err)
	assert.Equal(t, DecisionRevise, d.FinalDecision, "security veto overrides a 4/5 majority")
}

func TestDeliberateMalformedReviewerStillCounted(t *testing.T) {
	client := &stubClient{respond: func(sys, _ string) (string, error) {
		if strings.Contains(sys, "Philosopher") {
			return "no structured output today", nil
		}
		return approveAll(sys, "")
	}}
	c := newTestCouncil(client, newFakeRecorder(), nil)

	d, err := c.Deliberate(context.Background(), Submission{Topic: "t", Content: "c"}, false)
	require.NoError(t, err)
	require.Len(t, d.Votes, len(Panel), "failed reviewers are never dropped from the vote set")

	var philosopher *Vote
	for i := range d.Votes {
		if d.Votes[i].Role == RolePhilosopher {
			philosopher = &d.Votes[i]
		}
	}
	require.NotNil(t, philosopher)
	assert.True(t, philosopher.ParseFailed)
	assert.False(t, philosopher.Approve)
	// 4/5 approvals, no veto: still publishes.
	assert.Equal(t, DecisionPublish, d.FinalDecision)
}

func TestSmartReviewAutoApprovesRoutineContent(t *testing.T) {
	client := &stubClient{respond: approveAll}
	rec := newFakeRecorder()
	c := newTestCouncil(client, rec, nil)

	sub := Submission{
		Topic:   "Daily Statistics Update",
		Content: "Daily Statistics Update: posts up 15%, engagement stable, trend observed",
	}
	d, screening, err := c.SmartReview(context.Background(), sub, false)
	require.NoError(t, err)
	assert.False(t, screening.NeedsReview)
	assert.Equal(t, int64(0), client.calls.Load(), "auto-approval must not convene the panel")
	assert.Equal(t, DecisionPublish, d.FinalDecision)
	assert.True(t, strings.HasPrefix(d.ConsensusSummary, "AUTO-APPROVED"))
	require.Len(t, d.Votes, len(Panel))
	for _, v := range d.Votes {
		assert.True(t, v.Approve)
	}

	_, auto := rec.last()
	assert.True(t, auto)
}

func TestSmartReviewConvenesPanelForRiskyContent(t *testing.T) {
	client := &stubClient{respond: func(sys, _ string) (string, error) {
		if strings.Contains(sys, "Security Guard") {
			return `{"approve": false, "reasoning": "unverified claims", "concerns": [], "suggestions": []}`, nil
		}
		return approveAll(sys, "")
	}}
	c := newTestCouncil(client, newFakeRecorder(), nil)

	sub := Submission{
		Topic: "Prompt Injection Resistance Discovery",
		Content: `Agent "samaltman" attempted 398 prompt injection attacks.
Evidence suggests coordinated manipulation across the community.`,
	}
	d, screening, err := c.SmartReview(context.Background(), sub, false)
	require.NoError(t, err)
	require.True(t, screening.NeedsReview)
	assert.GreaterOrEqual(t, len(screening.RiskFlags), 3)
	assert.Equal(t, int64(len(Panel)), client.calls.Load())
	assert.Equal(t, DecisionRevise, d.FinalDecision,
		"security rejection forces revision even with a 4/5 majority")
}

func TestSmartReviewForceReview(t *testing.T) {
	client := &stubClient{respond: approveAll}
	c := newTestCouncil(client, newFakeRecorder(), nil)

	sub := Submission{
		Topic:   "Daily Statistics Update",
		Content: "Daily Statistics Update: posts up 15%, engagement stable, trend observed",
	}
	_, screening, err := c.SmartReview(context.Background(), sub, true)
	require.NoError(t, err)
	assert.True(t, screening.NeedsReview)
	assert.Equal(t, int64(len(Panel)), client.calls.Load())
}

func TestQuickSafetyCheckUsesOnlySecurityRole(t *testing.T) {
	client := &stubClient{respond: func(sys, _ string) (string, error) {
		require.Contains(t, sys, "Security Guard")
		return `{"approve": true, "reasoning": "clean", "concerns": [], "suggestions": []}`, nil
	}}
	c := newTestCouncil(client, newFakeRecorder(), nil)

	verdict := c.QuickSafetyCheck(context.Background(), "harmless text")
	assert.True(t, verdict.Approved)
	assert.Equal(t, int64(1), client.calls.Load())
}

func TestQuickSafetyCheckCachesVerdicts(t *testing.T) {
	client := &stubClient{respond: func(sys, _ string) (string, error) {
		return `{"approve": true, "reasoning": "clean", "concerns": [], "suggestions": []}`, nil
	}}
	c := newTestCouncil(client, newFakeRecorder(), newFakeCache())

	first := c.QuickSafetyCheck(context.Background(), "same content")
	second := c.QuickSafetyCheck(context.Background(), "same content")
	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), client.calls.Load(), "second check served from cache")
}

func TestQuickSafetyCheckDoesNotCacheParseFailures(t *testing.T) {
	client := &stubClient{respond: func(string, string) (string, error) {
		return "garbled", nil
	}}
	cache := newFakeCache()
	c := newTestCouncil(client, newFakeRecorder(), cache)

	verdict := c.QuickSafetyCheck(context.Background(), "content")
	assert.False(t, verdict.Approved)
	assert.Empty(t, cache.entries)
}
