package scoring

import (
	"strings"
	"testing"

	"github.com/queuewise/router/internal/store"
)

func TestReasonsScoreBands(t *testing.T) {
	c := makeCustomer("billing")
	a := makeAgent("billing", 0, 3, store.AgentAvailable)

	tests := []struct {
		score float64
		want  string
	}{
		{0.85, "excellent match"},
		{0.65, "good match"},
		{0.4, "fair match"},
	}
	for _, tt := range tests {
		reasons := Reasons(c, a, tt.score)
		if len(reasons) == 0 || !strings.HasPrefix(reasons[0], tt.want) {
			t.Errorf("score %.2f: expected leading %q, got %v", tt.score, tt.want, reasons)
		}
	}
}

func TestReasonsSpecialty(t *testing.T) {
	c := makeCustomer("billing")

	specialist := makeAgent("billing", 0, 3, store.AgentAvailable)
	reasons := Reasons(c, specialist, 0.7)
	if !contains(reasons, "agent specializes in billing") {
		t.Errorf("expected specialty reason, got %v", reasons)
	}

	related := makeAgent("account_management", 0, 3, store.AgentAvailable)
	reasons = Reasons(c, related, 0.7)
	if !contains(reasons, "agent has related experience with billing") {
		t.Errorf("expected related-experience reason, got %v", reasons)
	}

	unrelated := makeAgent("sales", 0, 3, store.AgentAvailable)
	reasons = Reasons(c, unrelated, 0.7)
	if !contains(reasons, "agent has limited experience with billing") {
		t.Errorf("expected limited-experience reason, got %v", reasons)
	}
}

func TestReasonsCustomerFactors(t *testing.T) {
	a := makeAgent("billing", 0, 3, store.AgentAvailable)

	c := makeCustomer("billing")
	c.Tier = "premium"
	c.Sentiment = "negative"
	reasons := Reasons(c, a, 0.7)
	if !contains(reasons, "premium customer: prioritized routing") {
		t.Errorf("expected premium reason, got %v", reasons)
	}
	if !contains(reasons, "negative sentiment: needs experienced handling") {
		t.Errorf("expected sentiment reason, got %v", reasons)
	}

	c = makeCustomer("billing")
	reasons = Reasons(c, a, 0.7)
	for _, r := range reasons {
		if strings.Contains(r, "sentiment") {
			t.Errorf("neutral sentiment should add no reason, got %v", reasons)
		}
	}
}

func TestReasonsWorkloadBands(t *testing.T) {
	c := makeCustomer("billing")

	light := makeAgent("billing", 0, 4, store.AgentAvailable)
	if !contains(Reasons(c, light, 0.7), "agent has light workload") {
		t.Error("expected light workload reason")
	}

	moderate := makeAgent("billing", 2, 4, store.AgentAvailable)
	if !contains(Reasons(c, moderate, 0.7), "agent has moderate workload") {
		t.Error("expected moderate workload reason")
	}

	heavy := makeAgent("billing", 3, 4, store.AgentAvailable)
	if !contains(Reasons(c, heavy, 0.7), "agent is busy but available") {
		t.Error("expected busy workload reason")
	}
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if s == want {
			return true
		}
	}
	return false
}
