// Package router contains the assignment resolver and the routing
// orchestrator: the components that turn a score matrix into committed
// customer-agent assignments.
package router

import (
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/queuewise/router/internal/scoring"
	"github.com/queuewise/router/internal/store"
)

// Assignment is one committed customer-agent pairing in a plan.
type Assignment struct {
	CustomerID uuid.UUID `json:"customer_id"`
	AgentID    uuid.UUID `json:"agent_id"`
	Score      float64   `json:"score"`
	Reasoning  []string  `json:"reasoning"`
}

// Plan is the outcome of one resolution pass. Unrouted customers are a normal
// outcome when demand exceeds capacity, not an error.
type Plan struct {
	Assignments []Assignment `json:"assignments"`
	Unrouted    []uuid.UUID  `json:"unrouted"`
}

// Resolver turns a score matrix into a capacity-aware assignment plan.
type Resolver struct {
	tieBreakThreshold float64
}

func NewResolver(tieBreakThreshold float64) *Resolver {
	return &Resolver{tieBreakThreshold: tieBreakThreshold}
}

// Resolve greedily walks the globally ranked entry list, committing the
// highest-confidence pairs system-wide. Capacity is tracked with virtual
// workload counters seeded from each agent's workload at pass start, so an
// agent drops out of contention the moment the pass saturates it.
//
// Ranking is by descending score; entries within the tie-break threshold are
// ordered by lower pass-start workload (least-busy agent wins), then by agent
// id and customer id so identical snapshots always produce identical plans.
func (r *Resolver) Resolve(matrix *scoring.Matrix, customers []*store.Customer, agents []*store.Agent) *Plan {
	startWorkload := make(map[uuid.UUID]int, len(agents))
	capacity := make(map[uuid.UUID]int, len(agents))
	for _, a := range agents {
		startWorkload[a.ID] = a.CurrentWorkload
		capacity[a.ID] = a.MaxConcurrent
	}

	entries := make([]scoring.Entry, len(matrix.Entries))
	copy(entries, matrix.Entries)

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if math.Abs(a.Score-b.Score) < r.tieBreakThreshold {
			wa, wb := startWorkload[a.AgentID], startWorkload[b.AgentID]
			if wa != wb {
				return wa < wb
			}
			if a.AgentID != b.AgentID {
				return lessUUID(a.AgentID, b.AgentID)
			}
			return lessUUID(a.CustomerID, b.CustomerID)
		}
		return a.Score > b.Score
	})

	virtual := make(map[uuid.UUID]int, len(agents))
	for id, w := range startWorkload {
		virtual[id] = w
	}

	assigned := make(map[uuid.UUID]bool, len(customers))
	plan := &Plan{}

	for _, e := range entries {
		if assigned[e.CustomerID] {
			continue
		}
		max, known := capacity[e.AgentID]
		if !known || virtual[e.AgentID] >= max {
			continue
		}
		virtual[e.AgentID]++
		assigned[e.CustomerID] = true
		plan.Assignments = append(plan.Assignments, Assignment{
			CustomerID: e.CustomerID,
			AgentID:    e.AgentID,
			Score:      e.Score,
			Reasoning:  e.Reasoning,
		})
	}

	for _, c := range customers {
		if !assigned[c.ID] {
			plan.Unrouted = append(plan.Unrouted, c.ID)
		}
	}

	return plan
}

func lessUUID(a, b uuid.UUID) bool {
	return strings.Compare(a.String(), b.String()) < 0
}
