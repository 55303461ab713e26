package council

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/moltbook/observatory/src/ai"
)

// stubClient scripts text-generation responses for tests. respond receives
// the role's system prompt so tests can vary behavior per panel member.
type stubClient struct {
	calls   atomic.Int64
	respond func(systemPrompt, prompt string) (string, error)
}

func (s *stubClient) Complete(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.respond(opts.SystemPrompt, prompt)
}

// blockingClient never answers before the context expires.
type blockingClient struct{}

func (blockingClient) Complete(ctx context.Context, prompt string, opts ai.Options) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func approveAll(string, string) (string, error) {
	return `{"approve": true, "reasoning": "fine", "concerns": [], "suggestions": []}`, nil
}

var testSubmission = Submission{Topic: "Topic", Content: "Content"}

func TestReviewerParsesStructuredVote(t *testing.T) {
	client := &stubClient{respond: func(sys, prompt string) (string, error) {
		assert.Contains(t, prompt, "TOPIC: Topic")
		return `{"approve": true, "reasoning": "solid data", "concerns": ["minor wording"], "suggestions": ["tighten summary"]}`, nil
	}}
	r := NewReviewer(client, time.Second, zap.NewNop())

	vote := r.Evaluate(context.Background(), RoleEditor, testSubmission)
	assert.Equal(t, RoleEditor, vote.Role)
	assert.True(t, vote.Approve)
	assert.False(t, vote.ParseFailed)
	assert.Equal(t, "solid data", vote.Reasoning)
	assert.Equal(t, []string{"minor wording"}, vote.Concerns)
}

func TestReviewerExtractsJSONFromProse(t *testing.T) {
	client := &stubClient{respond: func(string, string) (string, error) {
		return "Here is my assessment:\n{\"approve\": false, \"reasoning\": \"unsupported claim\", \"concerns\": [], \"suggestions\": []}\nThanks.", nil
	}}
	r := NewReviewer(client, time.Second, zap.NewNop())

	vote := r.Evaluate(context.Background(), RolePhilosopher, testSubmission)
	assert.False(t, vote.Approve)
	assert.False(t, vote.ParseFailed)
	assert.Equal(t, "unsupported claim", vote.Reasoning)
}

func TestReviewerConservativeRejects(t *testing.T) {
	tests := []struct {
		name    string
		respond func(string, string) (string, error)
	}{
		{"transport failure", func(string, string) (string, error) {
			return "", errors.New("connection reset")
		}},
		{"not json at all", func(string, string) (string, error) {
			return "I think this looks good, approve!", nil
		}},
		{"missing approve field", func(string, string) (string, error) {
			return `{"reasoning": "looks ok"}`, nil
		}},
		{"non-boolean approve", func(string, string) (string, error) {
			return `{"approve": "yes", "reasoning": "ok"}`, nil
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReviewer(&stubClient{respond: tt.respond}, time.Second, zap.NewNop())
			vote := r.Evaluate(context.Background(), RoleSociologist, testSubmission)
			assert.False(t, vote.Approve, "a broken reviewer must never count as approval")
			assert.True(t, vote.ParseFailed)
			assert.NotEmpty(t, vote.Reasoning)
		})
	}
}

func TestReviewerTimeoutIsConservativeReject(t *testing.T) {
	r := NewReviewer(blockingClient{}, 20*time.Millisecond, zap.NewNop())
	vote := r.Evaluate(context.Background(), RoleProjectManager, testSubmission)
	assert.False(t, vote.Approve)
	assert.True(t, vote.ParseFailed)
}

func TestReviewerTruncatesDiagnostic(t *testing.T) {
	long := strings.Repeat("x", 2000)
	client := &stubClient{respond: func(string, string) (string, error) {
		return long, nil
	}}
	r := NewReviewer(client, time.Second, zap.NewNop())

	vote := r.Evaluate(context.Background(), RoleEditor, testSubmission)
	require.True(t, vote.ParseFailed)
	assert.Less(t, len(vote.Reasoning), 500)
}
