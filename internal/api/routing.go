package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queuewise/router/internal/router"
	"github.com/queuewise/router/internal/store"
)

type RoutingHandler struct {
	store store.Store
	orch  *router.Orchestrator
}

func NewRoutingHandler(s store.Store, orch *router.Orchestrator) *RoutingHandler {
	return &RoutingHandler{store: s, orch: orch}
}

// Route triggers one routing pass over the current queue.
func (h *RoutingHandler) Route(w http.ResponseWriter, r *http.Request) {
	report, err := h.orch.Route(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "routing pass failed"})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

type ManualAssignRequest struct {
	CustomerID string `json:"customer_id"`
	AgentID    string `json:"agent_id"`
	Reason     string `json:"reason,omitempty"`
}

func (h *RoutingHandler) ManualAssign(w http.ResponseWriter, r *http.Request) {
	var req ManualAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	customerID, err := uuid.Parse(req.CustomerID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer_id"})
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent_id"})
		return
	}

	result, err := h.orch.ManualAssign(r.Context(), customerID, agentID, req.Reason)
	if err != nil {
		switch {
		case errors.Is(err, router.ErrCustomerNotFound), errors.Is(err, router.ErrAgentNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, router.ErrCustomerNotWaiting),
			errors.Is(err, router.ErrAgentUnavailable),
			errors.Is(err, router.ErrAgentSaturated):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "manual assignment failed"})
		}
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (h *RoutingHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	filter := store.ResultFilter{Limit: 100}
	if v := r.URL.Query().Get("status"); v != "" {
		status := store.ResultStatus(v)
		if status != store.ResultActive && status != store.ResultCompleted {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be active or completed"})
			return
		}
		filter.Status = &status
	}
	if v := r.URL.Query().Get("agent_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent_id"})
			return
		}
		filter.AgentID = &id
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
			filter.Limit = n
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	results, err := h.store.ListResults(r.Context(), filter)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list results"})
		return
	}
	if results == nil {
		results = []*store.RoutingResult{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"count":   len(results),
	})
}

func (h *RoutingHandler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid routing id"})
		return
	}
	result, err := h.orch.Complete(r.Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, router.ErrResultNotFound):
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "routing result not found"})
		case errors.Is(err, router.ErrResultNotActive):
			writeJSON(w, http.StatusConflict, map[string]string{"error": "routing result is not active"})
		default:
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete routing"})
		}
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *RoutingHandler) CompleteAll(w http.ResponseWriter, r *http.Request) {
	n, err := h.orch.CompleteAll(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to complete routings"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"completed": n})
}

func (h *RoutingHandler) Reset(w http.ResponseWriter, r *http.Request) {
	if err := h.orch.Reset(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to reset queue"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}
