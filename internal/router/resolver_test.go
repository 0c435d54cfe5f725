package router

import (
	"fmt"
	"testing"

	"github.com/google/uuid"

	"github.com/queuewise/router/internal/scoring"
	"github.com/queuewise/router/internal/store"
)

func testUUID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func waitingCustomer(n int) *store.Customer {
	return &store.Customer{
		ID:     testUUID(n),
		Name:   fmt.Sprintf("customer-%d", n),
		Status: store.CustomerWaiting,
	}
}

func availableAgent(n, workload, max int) *store.Agent {
	return &store.Agent{
		ID:              testUUID(100 + n),
		Name:            fmt.Sprintf("agent-%d", n),
		CurrentWorkload: workload,
		MaxConcurrent:   max,
		Status:          store.AgentAvailable,
	}
}

func entry(c *store.Customer, a *store.Agent, score float64) scoring.Entry {
	return scoring.Entry{CustomerID: c.ID, AgentID: a.ID, Score: score}
}

func TestResolveEmptyMatrix(t *testing.T) {
	r := NewResolver(0.03)
	plan := r.Resolve(&scoring.Matrix{}, nil, nil)
	if len(plan.Assignments) != 0 {
		t.Errorf("expected no assignments, got %d", len(plan.Assignments))
	}
	if len(plan.Unrouted) != 0 {
		t.Errorf("expected no unrouted, got %d", len(plan.Unrouted))
	}
}

func TestResolveOverflowGoesUnrouted(t *testing.T) {
	// One agent with a single free slot, three customers: the best scorer
	// takes the slot, both others go unrouted.
	c1 := waitingCustomer(1)
	c2 := waitingCustomer(2)
	c3 := waitingCustomer(3)
	a1 := availableAgent(1, 0, 1)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.9),
		entry(c2, a1, 0.5),
		entry(c3, a1, 0.7),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1, c2, c3}, []*store.Agent{a1})

	if len(plan.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(plan.Assignments))
	}
	if plan.Assignments[0].CustomerID != c1.ID {
		t.Errorf("expected best-scoring customer to win the slot")
	}
	if len(plan.Unrouted) != 2 {
		t.Errorf("expected 2 unrouted, got %d", len(plan.Unrouted))
	}
}

func TestResolveRespectsCapacity(t *testing.T) {
	// Agent at max_concurrent-1 accepts exactly one more assignment within a
	// single pass; the virtual counter blocks a second.
	c1 := waitingCustomer(1)
	c2 := waitingCustomer(2)
	a1 := availableAgent(1, 2, 3)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.9),
		entry(c2, a1, 0.85),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1, c2}, []*store.Agent{a1})

	if len(plan.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(plan.Assignments))
	}
	if len(plan.Unrouted) != 1 || plan.Unrouted[0] != c2.ID {
		t.Errorf("expected c2 unrouted, got %v", plan.Unrouted)
	}
}

func TestResolveNoDoubleRouting(t *testing.T) {
	// A customer with strong scores against several agents is assigned once.
	c1 := waitingCustomer(1)
	a1 := availableAgent(1, 0, 3)
	a2 := availableAgent(2, 0, 3)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.9),
		entry(c1, a2, 0.88),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1}, []*store.Agent{a1, a2})

	if len(plan.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(plan.Assignments))
	}
	if plan.Assignments[0].AgentID != a1.ID {
		t.Errorf("expected higher-scoring agent a1")
	}
}

func TestResolveSaturatedAgentExcluded(t *testing.T) {
	// Pass-start snapshot: agent2 is at capacity so its entries never
	// commit, and the overflow customer goes unrouted rather than being
	// forced onto a poor fit.
	c1 := waitingCustomer(1)
	c2 := waitingCustomer(2)
	c3 := waitingCustomer(3)
	a1 := availableAgent(1, 0, 2)
	a2 := availableAgent(2, 1, 1)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.9),
		entry(c1, a2, 0.95),
		entry(c2, a1, 0.4),
		entry(c2, a2, 0.85),
		entry(c3, a1, 0.8),
		entry(c3, a2, 0.7),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1, c2, c3}, []*store.Agent{a1, a2})

	byCustomer := make(map[uuid.UUID]uuid.UUID)
	for _, a := range plan.Assignments {
		byCustomer[a.CustomerID] = a.AgentID
	}
	if byCustomer[c1.ID] != a1.ID {
		t.Errorf("c1 should land on a1 once a2 is saturated")
	}
	if byCustomer[c3.ID] != a1.ID {
		t.Errorf("c3 should take a1's second slot")
	}
	if _, ok := byCustomer[c2.ID]; ok {
		t.Errorf("c2 should be unrouted, got agent %s", byCustomer[c2.ID])
	}
	if len(plan.Unrouted) != 1 || plan.Unrouted[0] != c2.ID {
		t.Errorf("expected unrouted [c2], got %v", plan.Unrouted)
	}
}

func TestResolveNearTiePrefersLessLoadedAgent(t *testing.T) {
	// Equal scores within the threshold: the agent with the lower pass-start
	// workload wins even when its entry sorts later.
	c1 := waitingCustomer(1)
	a1 := availableAgent(1, 2, 5)
	a2 := availableAgent(2, 0, 5)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.75),
		entry(c1, a2, 0.75),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1}, []*store.Agent{a1, a2})

	if len(plan.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(plan.Assignments))
	}
	if plan.Assignments[0].AgentID != a2.ID {
		t.Errorf("near-tie should prefer the idle agent, got %s", plan.Assignments[0].AgentID)
	}
}

func TestResolveOutsideThresholdScoreWins(t *testing.T) {
	// A 0.05 gap is above the 0.03 threshold, so raw score wins even though
	// the better-scoring agent is busier.
	c1 := waitingCustomer(1)
	a1 := availableAgent(1, 3, 5)
	a2 := availableAgent(2, 0, 5)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.80),
		entry(c1, a2, 0.75),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1}, []*store.Agent{a1, a2})

	if plan.Assignments[0].AgentID != a1.ID {
		t.Errorf("score gap above threshold should win, got %s", plan.Assignments[0].AgentID)
	}
}

func TestResolveDeterministic(t *testing.T) {
	// Identical snapshots produce identical plans, including near-ties that
	// fall through to the id ordering.
	c1 := waitingCustomer(1)
	c2 := waitingCustomer(2)
	a1 := availableAgent(1, 1, 3)
	a2 := availableAgent(2, 1, 3)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, a1, 0.7),
		entry(c1, a2, 0.7),
		entry(c2, a1, 0.7),
		entry(c2, a2, 0.7),
	}}

	r := NewResolver(0.03)
	first := r.Resolve(matrix, []*store.Customer{c1, c2}, []*store.Agent{a1, a2})
	for i := 0; i < 10; i++ {
		again := r.Resolve(matrix, []*store.Customer{c1, c2}, []*store.Agent{a1, a2})
		if len(again.Assignments) != len(first.Assignments) {
			t.Fatalf("run %d: assignment count changed", i)
		}
		for j := range first.Assignments {
			if again.Assignments[j].CustomerID != first.Assignments[j].CustomerID ||
				again.Assignments[j].AgentID != first.Assignments[j].AgentID {
				t.Fatalf("run %d: plan differs at %d", i, j)
			}
		}
	}
}

func TestResolveVirtualWorkloadMonotonic(t *testing.T) {
	// Within a pass an agent's virtual count only grows; assignment totals
	// per agent never exceed spare capacity.
	var customers []*store.Customer
	entries := []scoring.Entry{}
	a1 := availableAgent(1, 1, 4)
	for i := 1; i <= 8; i++ {
		c := waitingCustomer(i)
		customers = append(customers, c)
		entries = append(entries, entry(c, a1, 0.9-float64(i)*0.01))
	}

	r := NewResolver(0.03)
	plan := r.Resolve(&scoring.Matrix{Entries: entries}, customers, []*store.Agent{a1})

	if got, want := len(plan.Assignments), a1.MaxConcurrent-a1.CurrentWorkload; got != want {
		t.Errorf("agent took %d assignments, spare capacity is %d", got, want)
	}
	if len(plan.Unrouted) != len(customers)-len(plan.Assignments) {
		t.Errorf("unrouted accounting wrong: %d", len(plan.Unrouted))
	}
}

func TestResolveUnknownAgentEntrySkipped(t *testing.T) {
	// Stale matrix entries referencing agents missing from the snapshot are
	// ignored rather than committed blind.
	c1 := waitingCustomer(1)
	a1 := availableAgent(1, 0, 2)
	ghost := availableAgent(99, 0, 2)

	matrix := &scoring.Matrix{Entries: []scoring.Entry{
		entry(c1, ghost, 0.95),
		entry(c1, a1, 0.6),
	}}

	r := NewResolver(0.03)
	plan := r.Resolve(matrix, []*store.Customer{c1}, []*store.Agent{a1})

	if len(plan.Assignments) != 1 || plan.Assignments[0].AgentID != a1.ID {
		t.Errorf("expected stale entry skipped and c1 routed to a1")
	}
}
