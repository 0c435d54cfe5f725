package predictor

import (
	"context"

	"github.com/queuewise/router/internal/store"
)

// relatedSpecialties maps an issue type to specialties counted as adjacent
// experience when there is no direct match.
var relatedSpecialties = map[string][]string{
	"technical_support":    {"product_inquiry"},
	"billing":              {"account_management"},
	"sales":                {"product_inquiry"},
	"account_management":   {"billing"},
	"product_inquiry":      {"technical_support", "sales"},
	"complaint_resolution": {"account_management"},
}

// Heuristic is the deterministic rule-based predictor used when the model
// service is unavailable. Scores are bounded to [0.1, 0.9] so a degraded pass
// never produces the extreme confidence values reserved for the model.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Predict(_ context.Context, customer *store.Customer, agent *store.Agent) (float64, error) {
	return h.Score(customer, agent), nil
}

func (h *Heuristic) PredictBatch(_ context.Context, pairs []Pair) ([]float64, error) {
	scores := make([]float64, len(pairs))
	for i, p := range pairs {
		scores[i] = h.Score(p.Customer, p.Agent)
	}
	return scores, nil
}

// Score combines customer difficulty and agent fit into a bounded estimate.
func (h *Heuristic) Score(customer *store.Customer, agent *store.Agent) float64 {
	score := 0.5

	switch customer.Sentiment {
	case "negative":
		score -= 0.2
	case "positive":
		score += 0.1
	}

	switch customer.Tier {
	case "basic":
		score -= 0.05
	case "premium":
		score += 0.1
	}

	// Complexity penalty, normalizing the 1-5 scale to [0,1].
	normalizedComplexity := (customer.IssueComplexity - 1) / 4
	score -= normalizedComplexity * 0.3

	score += SpecialtyMatch(agent, customer.IssueType) * 0.4

	// Experience bonus with diminishing returns.
	experienceBonus := agent.ExperienceYears * 0.05
	if experienceBonus > 0.2 {
		experienceBonus = 0.2
	}
	score += experienceBonus

	score += (agent.PastSuccessRate - 0.5) * 0.3

	maxConcurrent := agent.MaxConcurrent
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	workloadRatio := float64(agent.CurrentWorkload) / float64(maxConcurrent)
	score -= workloadRatio * 0.2

	if score < 0.1 {
		return 0.1
	}
	if score > 0.9 {
		return 0.9
	}
	return score
}

// SpecialtyMatch rates how well an agent's specialties cover an issue type:
// 0.9 direct, 0.6 related, 0.2 unrelated, 0.3 when the agent lists none.
func SpecialtyMatch(agent *store.Agent, issueType string) float64 {
	if len(agent.Specialty) == 0 {
		return 0.3
	}
	for _, s := range agent.Specialty {
		if s == issueType {
			return 0.9
		}
	}
	for _, related := range relatedSpecialties[issueType] {
		for _, s := range agent.Specialty {
			if s == related {
				return 0.6
			}
		}
	}
	return 0.2
}
