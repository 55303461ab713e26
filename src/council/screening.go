package council

import (
	"fmt"
	"regexp"
	"strings"
)

// Keywords that push a submission toward full panel review.
var riskKeywords = []string{
	// Strong claims
	"first", "unprecedented", "proof", "evidence", "discovered",
	"breakthrough", "revolutionary", "never before",
	// Security/privacy
	"attack", "injection", "malicious", "hack", "exploit",
	"private", "personal", "identity", "operator", "human behind",
	// Manipulation language
	"conspiracy", "coordinated", "manipulation", "propaganda",
	"sockpuppet", "astroturf", "fake", "bot army",
	// High-stakes language
	"threat", "danger", "warning", "urgent", "critical",
	"rogue", "hostile", "enemy", "war",
}

// Keywords that suggest routine metrics content, eligible for auto-approval.
var routineKeywords = []string{
	"statistics", "metrics", "count", "average", "trend",
	"increased", "decreased", "stable", "pattern observed",
	"engagement", "activity", "posts", "comments",
}

var (
	quantifiedClaimRe = regexp.MustCompile(`\d+\s+(?:attack|injection|attempt|violation|threat)`)
	actorMentionRe    = regexp.MustCompile(`@\w+|"[A-Z][a-z]+\w*"\s+(?:said|wrote|posted|claimed)`)
)

const longContentThreshold = 1000

// Screen runs the deterministic pre-check that decides whether a submission
// needs full panel review. No network or storage access; cheap enough to run
// on every submission. forceReview bypasses the decision table entirely.
func Screen(sub Submission, forceReview bool) ScreeningResult {
	if forceReview {
		return ScreeningResult{
			NeedsReview: true,
			Reason:      "Forced panel review",
			RiskFlags:   []string{"force_review"},
		}
	}

	combined := strings.ToLower(sub.Topic) + " " + strings.ToLower(sub.Content)

	var flags []string
	for _, kw := range riskKeywords {
		if strings.Contains(combined, kw) {
			flags = append(flags, "keyword:"+kw)
		}
	}

	if mentions := actorMentionRe.FindAllString(sub.Content, -1); len(mentions) > 2 {
		flags = append(flags, fmt.Sprintf("actor_mentions:%d", len(mentions)))
	}

	if claims := quantifiedClaimRe.FindAllString(combined, -1); len(claims) > 0 {
		flags = append(flags, fmt.Sprintf("quantified_claims:%d", len(claims)))
	}

	if len(sub.Content) > longContentThreshold {
		flags = append(flags, "long_content")
	}

	if len(flags) == 0 {
		routineCount := 0
		for _, kw := range routineKeywords {
			if strings.Contains(combined, kw) {
				routineCount++
			}
		}
		if routineCount >= 2 {
			return ScreeningResult{
				NeedsReview: false,
				Reason:      "Routine metrics/statistics - auto-approved",
			}
		}
	}

	switch {
	case len(flags) >= 3:
		return ScreeningResult{
			NeedsReview: true,
			Reason:      "Multiple risk flags detected: " + strings.Join(flags[:3], ", "),
			RiskFlags:   flags,
		}
	case len(flags) >= 1:
		return ScreeningResult{
			NeedsReview: true,
			Reason:      "Potential sensitive content: " + flags[0],
			RiskFlags:   flags,
		}
	default:
		// Default-permit for unremarkable content.
		return ScreeningResult{
			NeedsReview: false,
			Reason:      "Standard observation - auto-approved",
		}
	}
}
