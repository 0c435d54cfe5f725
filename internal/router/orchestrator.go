package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/queuewise/router/internal/events"
	"github.com/queuewise/router/internal/metrics"
	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/scoring"
	"github.com/queuewise/router/internal/store"
)

// Report summarizes one routing pass.
type Report struct {
	Routed            int                    `json:"routed"`
	Unrouted          int                    `json:"unrouted"`
	AverageScore      float64                `json:"average_score"`
	HighConfidence    int                    `json:"high_confidence_matches"`
	MediumConfidence  int                    `json:"medium_confidence_matches"`
	LowConfidence     int                    `json:"low_confidence_matches"`
	Degraded          bool                   `json:"degraded"`
	Results           []*store.RoutingResult `json:"results"`
	UnroutedCustomers []uuid.UUID            `json:"unrouted_customers,omitempty"`
}

// Orchestrator drives routing passes end to end: snapshot, score, resolve,
// apply, report. Passes are serialized with a mutex because capacity checks
// are snapshot-based; a concurrent pass could double-book an agent.
type Orchestrator struct {
	store    store.Store
	builder  *scoring.Builder
	resolver *Resolver
	model    predictor.Predictor
	events   events.Client
	logger   *slog.Logger

	waitTick time.Duration

	mu sync.Mutex

	stopOnce sync.Once
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

func NewOrchestrator(s store.Store, b *scoring.Builder, r *Resolver, model predictor.Predictor, ev events.Client, waitTick time.Duration, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:    s,
		builder:  b,
		resolver: r,
		model:    model,
		events:   ev,
		logger:   logger,
		waitTick: waitTick,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the wait-time clock. Routing itself is on demand via Route.
func (o *Orchestrator) Start(ctx context.Context) {
	o.wg.Add(1)
	go o.waitClockLoop(ctx)
}

func (o *Orchestrator) Stop() {
	o.stopOnce.Do(func() { close(o.stopCh) })
	o.wg.Wait()
}

func (o *Orchestrator) waitClockLoop(ctx context.Context) {
	defer o.wg.Done()
	if o.waitTick <= 0 {
		return
	}
	ticker := time.NewTicker(o.waitTick)
	defer ticker.Stop()

	for {
		select {
		case <-o.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := o.store.AdvanceWaitTimes(ctx, o.waitTick); err != nil {
				o.logger.Error("failed to advance wait times", "error", err)
			}
		}
	}
}

// Route performs one full routing pass over the current waiting/available
// snapshot. Re-invoking only considers the then-current sets, so repeated
// calls drain the queue rather than double-assign.
func (o *Orchestrator) Route(ctx context.Context) (*Report, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	started := time.Now()

	customers, err := o.store.GetWaitingCustomers(ctx)
	if err != nil {
		return nil, fmt.Errorf("get waiting customers: %w", err)
	}
	agents, err := o.store.GetAvailableAgents(ctx)
	if err != nil {
		return nil, fmt.Errorf("get available agents: %w", err)
	}

	o.logger.Info("routing pass starting", "customers", len(customers), "agents", len(agents))

	matrix, err := o.builder.Build(ctx, customers, agents)
	if err != nil {
		return nil, fmt.Errorf("build score matrix: %w", err)
	}
	metrics.MatrixSize.Observe(float64(len(matrix.Entries)))

	plan := o.resolver.Resolve(matrix, customers, agents)

	report := &Report{
		Degraded:          matrix.Degraded,
		Unrouted:          len(plan.Unrouted),
		UnroutedCustomers: plan.Unrouted,
	}

	names := agentNames(agents)
	customerNames := make(map[uuid.UUID]string, len(customers))
	for _, c := range customers {
		customerNames[c.ID] = c.Name
	}

	var applied []*store.RoutingResult
	for _, a := range plan.Assignments {
		result := &store.RoutingResult{
			CustomerID:   a.CustomerID,
			AgentID:      a.AgentID,
			CustomerName: customerNames[a.CustomerID],
			AgentName:    names[a.AgentID],
			Score:        a.Score,
			Reasoning:    a.Reasoning,
			Degraded:     matrix.Degraded,
			Status:       store.ResultActive,
		}
		if err := o.applyAssignment(ctx, result); err != nil {
			o.rollback(ctx, applied)
			return nil, fmt.Errorf("apply assignment: %w", err)
		}
		applied = append(applied, result)
	}

	report.Routed = len(applied)
	report.Results = applied

	var sum float64
	for _, r := range applied {
		sum += r.Score
		switch {
		case r.Score >= 0.8:
			report.HighConfidence++
		case r.Score >= 0.6:
			report.MediumConfidence++
		default:
			report.LowConfidence++
		}
	}
	if len(applied) > 0 {
		report.AverageScore = sum / float64(len(applied))
	}

	o.publishPass(report)
	o.recordPassMetrics(report, started)

	o.logger.Info("routing pass complete",
		"routed", report.Routed, "unrouted", report.Unrouted,
		"average_score", report.AverageScore, "degraded", report.Degraded)
	return report, nil
}

// applyAssignment commits one assignment: persist the result record, pull the
// customer out of the queue, and consume agent capacity. The store flips the
// agent to busy when the increment reaches max_concurrent.
func (o *Orchestrator) applyAssignment(ctx context.Context, result *store.RoutingResult) error {
	if err := o.store.CreateResult(ctx, result); err != nil {
		return err
	}
	if err := o.store.MarkRouted(ctx, result.CustomerID); err != nil {
		_ = o.store.DeleteResult(ctx, result.ID)
		return err
	}
	if err := o.store.IncrementWorkload(ctx, result.AgentID); err != nil {
		_ = o.store.SetCustomerStatus(ctx, result.CustomerID, store.CustomerWaiting)
		_ = o.store.DeleteResult(ctx, result.ID)
		return err
	}

	if o.events != nil {
		_ = o.events.Publish(events.SubjectRoutingAssigned(result.ID.String()), events.RoutingAssignedEvent{
			RoutingID:  result.ID.String(),
			CustomerID: result.CustomerID.String(),
			AgentID:    result.AgentID.String(),
			Score:      result.Score,
			Reasoning:  result.Reasoning,
			Degraded:   result.Degraded,
			Manual:     result.Manual,
			Timestamp:  result.CreatedAt,
		})
	}
	return nil
}

// rollback reverses already-applied assignments so an aborted pass leaves the
// queue state unchanged.
func (o *Orchestrator) rollback(ctx context.Context, applied []*store.RoutingResult) {
	for i := len(applied) - 1; i >= 0; i-- {
		r := applied[i]
		if err := o.store.DecrementWorkload(ctx, r.AgentID); err != nil {
			o.logger.Error("rollback: decrement workload failed", "agent_id", r.AgentID, "error", err)
		}
		if err := o.store.SetCustomerStatus(ctx, r.CustomerID, store.CustomerWaiting); err != nil {
			o.logger.Error("rollback: return customer to waiting failed", "customer_id", r.CustomerID, "error", err)
		}
		if err := o.store.DeleteResult(ctx, r.ID); err != nil {
			o.logger.Error("rollback: delete result failed", "routing_id", r.ID, "error", err)
		}
	}
}

// ManualAssign routes one customer to one agent directly, bypassing the
// resolver. The pair is still scored for the audit record, and the same
// capacity and status mutations apply. The tie-break rule deliberately does
// not: manual override is a supervisor escape hatch.
func (o *Orchestrator) ManualAssign(ctx context.Context, customerID, agentID uuid.UUID, reason string) (*store.RoutingResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	customer, err := o.store.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	if customer == nil {
		return nil, ErrCustomerNotFound
	}
	if customer.Status != store.CustomerWaiting {
		return nil, ErrCustomerNotWaiting
	}

	agent, err := o.store.GetAgent(ctx, agentID)
	if err != nil {
		return nil, fmt.Errorf("get agent: %w", err)
	}
	if agent == nil {
		return nil, ErrAgentNotFound
	}
	if agent.Status != store.AgentAvailable {
		metrics.AssignmentsRejected.WithLabelValues("agent_unavailable").Inc()
		return nil, fmt.Errorf("%w: status is %s", ErrAgentUnavailable, agent.Status)
	}
	if agent.CurrentWorkload >= agent.MaxConcurrent {
		metrics.AssignmentsRejected.WithLabelValues("agent_saturated").Inc()
		return nil, fmt.Errorf("%w: %d/%d", ErrAgentSaturated, agent.CurrentWorkload, agent.MaxConcurrent)
	}

	score, degraded := o.scorePair(ctx, customer, agent)

	if reason == "" {
		reason = "manual assignment by supervisor"
	}

	result := &store.RoutingResult{
		CustomerID:   customerID,
		AgentID:      agentID,
		CustomerName: customer.Name,
		AgentName:    agent.Name,
		Score:        score,
		Reasoning:    []string{reason},
		Degraded:     degraded,
		Manual:       true,
		Status:       store.ResultActive,
	}
	if err := o.applyAssignment(ctx, result); err != nil {
		return nil, fmt.Errorf("apply manual assignment: %w", err)
	}

	metrics.CustomersRouted.WithLabelValues("manual").Inc()
	o.logger.Info("manual assignment", "customer_id", customerID, "agent_id", agentID, "score", score)
	return result, nil
}

// scorePair scores a single pair for the audit record, falling back to the
// heuristic when the model cannot answer.
func (o *Orchestrator) scorePair(ctx context.Context, customer *store.Customer, agent *store.Agent) (float64, bool) {
	h := predictor.NewHeuristic()
	if o.model == nil {
		return h.Score(customer, agent), true
	}
	score, err := o.model.Predict(ctx, customer, agent)
	if err != nil {
		if !errors.Is(err, predictor.ErrModelUnavailable) && !errors.Is(err, context.DeadlineExceeded) {
			o.logger.Warn("manual scoring failed, using heuristic", "error", err)
		}
		return h.Score(customer, agent), true
	}
	return score, false
}

// Complete marks a routing result finished, releasing the agent's capacity.
// The agent reverts to available when it drops under max_concurrent, which is
// what makes it eligible again for the next pass.
func (o *Orchestrator) Complete(ctx context.Context, routingID uuid.UUID) (*store.RoutingResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.complete(ctx, routingID)
}

func (o *Orchestrator) complete(ctx context.Context, routingID uuid.UUID) (*store.RoutingResult, error) {
	result, err := o.store.GetResult(ctx, routingID)
	if err != nil {
		return nil, fmt.Errorf("get result: %w", err)
	}
	if result == nil {
		return nil, ErrResultNotFound
	}
	if result.Status != store.ResultActive {
		return nil, ErrResultNotActive
	}

	now := time.Now()
	handling := now.Sub(result.CreatedAt).Minutes()
	result.Status = store.ResultCompleted
	result.CompletedAt = &now
	result.HandlingTimeMinutes = &handling

	if err := o.store.UpdateResult(ctx, result); err != nil {
		return nil, fmt.Errorf("update result: %w", err)
	}
	if err := o.store.DecrementWorkload(ctx, result.AgentID); err != nil {
		return nil, fmt.Errorf("decrement workload: %w", err)
	}

	if o.events != nil {
		_ = o.events.Publish(events.SubjectRoutingCompleted(result.ID.String()), events.RoutingCompletedEvent{
			RoutingID:           result.ID.String(),
			AgentID:             result.AgentID.String(),
			HandlingTimeMinutes: handling,
		})
	}
	metrics.TasksCompleted.Inc()

	o.logger.Info("routing completed", "routing_id", routingID, "agent_id", result.AgentID, "handling_minutes", handling)
	return result, nil
}

// CompleteAll drains every active routing result.
func (o *Orchestrator) CompleteAll(ctx context.Context) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	active := store.ResultActive
	completed := 0
	for {
		// Completed results fall out of the active filter, so each page
		// is re-read from offset zero.
		results, err := o.store.ListResults(ctx, store.ResultFilter{Status: &active, Limit: 1000})
		if err != nil {
			return completed, fmt.Errorf("list active results: %w", err)
		}
		if len(results) == 0 {
			return completed, nil
		}

		progressed := false
		for _, r := range results {
			if _, err := o.complete(ctx, r.ID); err != nil {
				o.logger.Error("failed to complete routing", "routing_id", r.ID, "error", err)
				continue
			}
			completed++
			progressed = true
		}
		if !progressed {
			// Every result in the page failed; stop rather than spin on
			// the same rows.
			return completed, nil
		}
	}
}

// Reset returns all routed customers to waiting, zeroes agent workloads, and
// clears active routing results. A full queue-state rollback, not a model
// rollback.
func (o *Orchestrator) Reset(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	returned, err := o.store.ReturnRoutedToWaiting(ctx)
	if err != nil {
		return fmt.Errorf("return customers to waiting: %w", err)
	}
	if err := o.store.ResetWorkloads(ctx); err != nil {
		return fmt.Errorf("reset workloads: %w", err)
	}
	if err := o.store.ClearActiveResults(ctx); err != nil {
		return fmt.Errorf("clear active results: %w", err)
	}

	if o.events != nil {
		_ = o.events.Publish(events.SubjectQueueReset, map[string]interface{}{
			"customers_returned": returned,
			"timestamp":          time.Now(),
		})
	}

	o.logger.Info("queue reset", "customers_returned", returned)
	return nil
}

func (o *Orchestrator) publishPass(report *Report) {
	if o.events == nil {
		return
	}
	_ = o.events.Publish(events.SubjectPassCompleted(), events.PassCompletedEvent{
		Routed:       report.Routed,
		Unrouted:     report.Unrouted,
		AverageScore: report.AverageScore,
		Degraded:     report.Degraded,
		Timestamp:    time.Now(),
	})
}

func (o *Orchestrator) recordPassMetrics(report *Report, started time.Time) {
	metrics.RoutingPassDuration.Observe(time.Since(started).Seconds())
	metrics.CustomersRouted.WithLabelValues("auto").Add(float64(report.Routed))
	metrics.CustomersUnrouted.Add(float64(report.Unrouted))
	if report.Routed > 0 {
		metrics.PassAverageScore.Set(report.AverageScore)
	}
	if report.Degraded {
		metrics.DegradedPasses.Inc()
	}
}

func agentNames(agents []*store.Agent) map[uuid.UUID]string {
	names := make(map[uuid.UUID]string, len(agents))
	for _, a := range agents {
		names[a.ID] = a.Name
	}
	return names
}
