package api

import (
	"net/http"

	"github.com/queuewise/router/internal/predictor"
	"github.com/queuewise/router/internal/store"
)

type AnalyticsHandler struct {
	store store.Store
	model *predictor.HTTPClient
}

func NewAnalyticsHandler(s store.Store, model *predictor.HTTPClient) *AnalyticsHandler {
	return &AnalyticsHandler{store: s, model: model}
}

func (h *AnalyticsHandler) Performance(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.GetStats(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to compute stats"})
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *AnalyticsHandler) ModelInfo(w http.ResponseWriter, r *http.Request) {
	if h.model == nil {
		writeJSON(w, http.StatusOK, &predictor.ModelInfo{
			ModelLoaded: false,
			ModelType:   "rule_based_heuristic",
		})
		return
	}
	writeJSON(w, http.StatusOK, h.model.Info(r.Context()))
}
