// Package metrics exposes Prometheus metrics for the routing engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the application's prometheus registry, served on the metrics
// port via promhttp.
var Registry = prometheus.NewRegistry()

var factory = promauto.With(Registry)

// CustomersRouted counts committed assignments, split by auto/manual.
var CustomersRouted = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "router",
	Name:      "customers_routed_total",
	Help:      "Total customers assigned to an agent",
}, []string{"mode"})

// CustomersUnrouted counts customers left waiting after a pass because no
// eligible agent remained.
var CustomersUnrouted = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "router",
	Name:      "customers_unrouted_total",
	Help:      "Total customers left unrouted after a routing pass",
})

// DegradedPasses counts passes scored by the heuristic fallback.
var DegradedPasses = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "router",
	Name:      "degraded_passes_total",
	Help:      "Routing passes that used heuristic scores instead of the model",
})

// RoutingPassDuration tracks end-to-end pass latency.
var RoutingPassDuration = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "router",
	Name:      "pass_duration_seconds",
	Help:      "Time taken for one routing pass",
	Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
})

// PassAverageScore records the mean score of the last pass's assignments.
var PassAverageScore = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "router",
	Name:      "pass_average_score",
	Help:      "Average routing score of the most recent pass",
})

// MatrixSize tracks scored pairs per pass.
var MatrixSize = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "router",
	Name:      "matrix_pairs",
	Help:      "Number of customer-agent pairs scored per pass",
	Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
})

// AssignmentsRejected counts manual assignments rejected at validation.
var AssignmentsRejected = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "router",
	Name:      "manual_rejections_total",
	Help:      "Manual assignment requests rejected before any mutation",
}, []string{"reason"})

// TasksCompleted counts routed conversations marked complete.
var TasksCompleted = factory.NewCounter(prometheus.CounterOpts{
	Namespace: "router",
	Name:      "tasks_completed_total",
	Help:      "Routing results marked completed",
})
