package council

import "strings"

const summaryListCap = 5

// Aggregate turns a complete vote set into a final decision and a
// human-readable consensus summary. Pure function.
//
// Base rule: unanimity when requireUnanimous, simple majority otherwise.
// The veto is applied last and unconditionally: if the security role voted
// reject, the decision is revise no matter what the count says.
func Aggregate(votes []Vote, requireUnanimous bool) (Decision, string) {
	approvals := 0
	for _, v := range votes {
		if v.Approve {
			approvals++
		}
	}
	total := len(votes)

	var decision Decision
	if requireUnanimous {
		decision = DecisionRevise
		if approvals == total {
			decision = DecisionPublish
		}
	} else {
		decision = DecisionRevise
		if approvals*2 > total {
			decision = DecisionPublish
		}
	}

	for _, v := range votes {
		if v.Role == VetoRole && !v.Approve {
			decision = DecisionRevise
			break
		}
	}

	return decision, buildConsensusSummary(votes, decision)
}

func buildConsensusSummary(votes []Vote, decision Decision) string {
	var concerns, suggestions []string
	for _, v := range votes {
		concerns = append(concerns, v.Concerns...)
		suggestions = append(suggestions, v.Suggestions...)
	}
	concerns = dedupeCapped(concerns, summaryListCap)
	suggestions = dedupeCapped(suggestions, summaryListCap)

	parts := []string{"Decision: " + strings.ToUpper(string(decision))}
	if len(concerns) > 0 {
		parts = append(parts, "Key concerns: "+strings.Join(concerns, "; "))
	}
	if len(suggestions) > 0 {
		parts = append(parts, "Suggestions: "+strings.Join(suggestions, "; "))
	}
	for _, v := range votes {
		status := "rejected"
		if v.Approve {
			status = "approved"
		}
		parts = append(parts, string(v.Role)+": "+status)
	}
	return strings.Join(parts, "\n")
}

func dedupeCapped(items []string, limit int) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, limit)
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out
}
