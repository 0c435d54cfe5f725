package scoring

import (
	"fmt"

	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/store"
)

// Reasons produces the ordered human-readable factors behind a score. It is
// generated alongside the score, not reverse-engineered from it, so the tags
// always describe the snapshot the score was computed from.
func Reasons(customer *store.Customer, agent *store.Agent, score float64) []string {
	reasons := make([]string, 0, 6)

	switch {
	case score >= 0.8:
		reasons = append(reasons, "excellent match: high success probability")
	case score >= 0.6:
		reasons = append(reasons, "good match: moderate success probability")
	default:
		reasons = append(reasons, "fair match: lower success probability")
	}

	switch match := predictor.SpecialtyMatch(agent, customer.IssueType); {
	case match >= 0.8:
		reasons = append(reasons, "agent specializes in "+customer.IssueType)
	case match >= 0.5:
		reasons = append(reasons, "agent has related experience with "+customer.IssueType)
	default:
		reasons = append(reasons, "agent has limited experience with "+customer.IssueType)
	}

	switch {
	case agent.ExperienceYears >= 5:
		reasons = append(reasons, fmt.Sprintf("highly experienced agent (%.1f years)", agent.ExperienceYears))
	case agent.ExperienceYears >= 2:
		reasons = append(reasons, fmt.Sprintf("experienced agent (%.1f years)", agent.ExperienceYears))
	default:
		reasons = append(reasons, fmt.Sprintf("junior agent (%.1f years)", agent.ExperienceYears))
	}

	maxConcurrent := agent.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	switch ratio := float64(agent.CurrentWorkload) / float64(maxConcurrent); {
	case ratio <= 0.3:
		reasons = append(reasons, "agent has light workload")
	case ratio <= 0.7:
		reasons = append(reasons, "agent has moderate workload")
	default:
		reasons = append(reasons, "agent is busy but available")
	}

	if customer.Tier == "premium" {
		reasons = append(reasons, "premium customer: prioritized routing")
	}

	switch customer.Sentiment {
	case "negative":
		reasons = append(reasons, "negative sentiment: needs experienced handling")
	case "positive":
		reasons = append(reasons, "positive sentiment: good interaction expected")
	}

	return reasons
}
