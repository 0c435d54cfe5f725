package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/queuewise/router/internal/events"
	"github.com/queuewise/router/internal/metrics"
	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/router"
	"github.com/queuewise/router/internal/store"
)

func NewRouter(s store.Store, orch *router.Orchestrator, model *predictor.HTTPClient, ev events.Client, adminToken string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.RequestID)
	r.Use(RequestLogger(logger))
	r.Use(RateLimitMiddleware(120))

	customers := NewCustomersHandler(s, ev)
	agents := NewAgentsHandler(s, ev)
	routing := NewRoutingHandler(s, orch)
	analytics := NewAnalyticsHandler(s, model)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/customers", customers.Create)
		r.Get("/customers", customers.List)
		r.Get("/customers/{id}", customers.Get)
		r.Delete("/customers/{id}", customers.Remove)

		r.Post("/agents", agents.Create)
		r.Get("/agents", agents.List)
		r.Get("/agents/{id}", agents.Get)
		r.Put("/agents/{id}/status", agents.SetStatus)

		r.Post("/route", routing.Route)
		r.Get("/routing/results", routing.ListResults)
		r.Post("/routing/{id}/complete", routing.Complete)
		r.Post("/routing/complete-all", routing.CompleteAll)

		r.Get("/analytics/performance", analytics.Performance)
		r.Get("/model/info", analytics.ModelInfo)

		r.Group(func(r chi.Router) {
			r.Use(AdminAuthMiddleware(adminToken))
			r.Post("/route/manual", routing.ManualAssign)
			r.Post("/route/reset", routing.Reset)
		})
	})

	return r
}

func NewMetricsRouter() http.Handler {
	r := chi.NewRouter()
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
	return r
}
