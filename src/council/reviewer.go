package council

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/moltbook/observatory/src/ai"
)

const diagnosticLimit = 300

// Reviewer issues one evaluation request per role against a shared
// text-generation client. It never returns an error: any transport failure,
// timeout, or unparseable response becomes a conservative reject vote with
// ParseFailed set.
type Reviewer struct {
	client  ai.Client
	timeout time.Duration
	log     *zap.Logger
}

func NewReviewer(client ai.Client, timeout time.Duration, log *zap.Logger) *Reviewer {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &Reviewer{client: client, timeout: timeout, log: log}
}

// votePayload is the structured response requested from the model. Approve is
// a pointer so a missing or non-boolean field is distinguishable from false.
type votePayload struct {
	Approve     *bool    `json:"approve"`
	Reasoning   string   `json:"reasoning"`
	Concerns    []string `json:"concerns"`
	Suggestions []string `json:"suggestions"`
}

func buildReviewPrompt(sub Submission) string {
	return fmt.Sprintf(`Review this finding for publication:

TOPIC: %s

CONTENT:
%s

Provide your assessment as JSON:
{
    "approve": true/false,
    "reasoning": "Your analysis (2-3 sentences)",
    "concerns": ["list", "of", "specific", "concerns"],
    "suggestions": ["list", "of", "improvements"]
}

Be concise. Focus on your role's perspective.`, sub.Topic, sub.Content)
}

// Evaluate obtains one role's vote on a submission.
func (r *Reviewer) Evaluate(ctx context.Context, role Role, sub Submission) Vote {
	callCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	raw, err := r.client.Complete(callCtx, buildReviewPrompt(sub), ai.Options{
		SystemPrompt: rolePrompts[role],
	})
	if err != nil {
		r.log.Warn("reviewer call failed, recording conservative reject",
			zap.String("role", string(role)), zap.Error(err))
		return rejectVote(role, "call failed: "+err.Error(), "reviewer unavailable")
	}

	payload, ok := decodeVotePayload(raw)
	if !ok {
		r.log.Warn("reviewer response unparseable, recording conservative reject",
			zap.String("role", string(role)))
		return rejectVote(role, "could not parse response: "+truncate(raw, diagnosticLimit),
			"response parsing failed - manual review recommended")
	}

	return Vote{
		Role:        role,
		Approve:     *payload.Approve,
		Reasoning:   payload.Reasoning,
		Concerns:    payload.Concerns,
		Suggestions: payload.Suggestions,
	}
}

// decodeVotePayload performs a strict decode of the model output. The approve
// field must be present and boolean; anything else is a parse failure.
func decodeVotePayload(raw string) (votePayload, bool) {
	payload := votePayload{}
	if err := json.Unmarshal([]byte(strings.TrimSpace(raw)), &payload); err != nil {
		extracted := extractJSON(raw)
		if extracted == "" {
			return votePayload{}, false
		}
		payload = votePayload{}
		if err := json.Unmarshal([]byte(extracted), &payload); err != nil {
			return votePayload{}, false
		}
	}
	if payload.Approve == nil {
		return votePayload{}, false
	}
	return payload, true
}

// extractJSON pulls the outermost JSON object out of surrounding prose.
func extractJSON(raw string) string {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start >= 0 && end > start {
		return raw[start : end+1]
	}
	return ""
}

func rejectVote(role Role, reasoning, concern string) Vote {
	return Vote{
		Role:        role,
		Approve:     false,
		Reasoning:   "[PARSE ERROR] " + reasoning,
		Concerns:    []string{concern},
		Suggestions: []string{},
		ParseFailed: true,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
