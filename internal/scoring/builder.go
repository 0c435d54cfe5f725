// Package scoring builds the customer-agent score matrix for one routing
// pass. The builder is a pure computation over a snapshot: it never mutates
// queue or agent state.
package scoring

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/store"
)

// Entry is one cell of the score matrix. Derived data only, never persisted
// beyond the pass that produced it.
type Entry struct {
	CustomerID uuid.UUID
	AgentID    uuid.UUID
	Score      float64
	Reasoning  []string
}

// Matrix is the full set of scored pairs for one pass. Degraded is set when
// any score came from the heuristic instead of the model.
type Matrix struct {
	Entries  []Entry
	Degraded bool
}

type Builder struct {
	model       predictor.Predictor
	heuristic   *predictor.Heuristic
	workers     int
	pairTimeout time.Duration
	logger      *slog.Logger
}

// NewBuilder creates a Builder. model may be nil, in which case every pass
// runs on the heuristic.
func NewBuilder(model predictor.Predictor, workers int, pairTimeout time.Duration, logger *slog.Logger) *Builder {
	if workers < 1 {
		workers = 1
	}
	return &Builder{
		model:       model,
		heuristic:   predictor.NewHeuristic(),
		workers:     workers,
		pairTimeout: pairTimeout,
		logger:      logger,
	}
}

// Build scores every (customer, agent) pair where the agent is eligible at
// snapshot time. Offline and saturated agents are skipped entirely.
//
// Scores within one matrix always come from a single source: if the model
// signals unavailability for any pair, the whole matrix is rebuilt on the
// heuristic so cross-pair comparisons stay valid. A per-pair timeout is the
// one exception, falling back for that pair only.
func (b *Builder) Build(ctx context.Context, customers []*store.Customer, agents []*store.Agent) (*Matrix, error) {
	var eligible []*store.Agent
	for _, a := range agents {
		if a.Eligible() {
			eligible = append(eligible, a)
		}
	}

	if len(customers) == 0 || len(eligible) == 0 {
		return &Matrix{}, nil
	}

	pairs := make([]predictor.Pair, 0, len(customers)*len(eligible))
	for _, c := range customers {
		for _, a := range eligible {
			pairs = append(pairs, predictor.Pair{Customer: c, Agent: a})
		}
	}

	if b.model == nil {
		return b.buildHeuristic(pairs), nil
	}

	scores := make([]float64, len(pairs))
	fellBack := make([]bool, len(pairs))

	var mu sync.Mutex
	modelDown := false

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.workers)
	for i := range pairs {
		g.Go(func() error {
			mu.Lock()
			down := modelDown
			mu.Unlock()
			if down {
				return nil // pass already falling back wholesale
			}

			pairCtx := gctx
			var cancel context.CancelFunc
			if b.pairTimeout > 0 {
				pairCtx, cancel = context.WithTimeout(gctx, b.pairTimeout)
				defer cancel()
			}

			score, err := b.model.Predict(pairCtx, pairs[i].Customer, pairs[i].Agent)
			switch {
			case err == nil:
				scores[i] = score
			case errors.Is(err, context.DeadlineExceeded) && gctx.Err() == nil:
				// Hung call hit the per-pair deadline while the pass is
				// still live: heuristic for this pair only. Checked before
				// the unavailable case because the client wraps transport
				// failures, timeouts included, as ErrModelUnavailable.
				scores[i] = b.heuristic.Score(pairs[i].Customer, pairs[i].Agent)
				fellBack[i] = true
			case errors.Is(err, predictor.ErrModelUnavailable):
				mu.Lock()
				modelDown = true
				mu.Unlock()
			default:
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if modelDown {
		b.logger.Warn("model unavailable, scoring pass on heuristic")
		return b.buildHeuristic(pairs), nil
	}

	m := &Matrix{Entries: make([]Entry, len(pairs))}
	for i, p := range pairs {
		m.Entries[i] = Entry{
			CustomerID: p.Customer.ID,
			AgentID:    p.Agent.ID,
			Score:      scores[i],
			Reasoning:  Reasons(p.Customer, p.Agent, scores[i]),
		}
		if fellBack[i] {
			m.Degraded = true
		}
	}
	return m, nil
}

func (b *Builder) buildHeuristic(pairs []predictor.Pair) *Matrix {
	m := &Matrix{Degraded: true, Entries: make([]Entry, len(pairs))}
	for i, p := range pairs {
		score := b.heuristic.Score(p.Customer, p.Agent)
		m.Entries[i] = Entry{
			CustomerID: p.Customer.ID,
			AgentID:    p.Agent.ID,
			Score:      score,
			Reasoning:  Reasons(p.Customer, p.Agent, score),
		}
	}
	return m
}
