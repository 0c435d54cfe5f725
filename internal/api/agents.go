package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queuewise/router/internal/events"
	"github.com/queuewise/router/internal/store"
)

type AgentsHandler struct {
	store  store.Store
	events events.Client
}

func NewAgentsHandler(s store.Store, ev events.Client) *AgentsHandler {
	return &AgentsHandler{store: s, events: ev}
}

type CreateAgentRequest struct {
	Name            string             `json:"name"`
	Specialty       []string           `json:"specialty"`
	ExperienceYears float64            `json:"experience_years"`
	AvgHandlingTime float64            `json:"avg_handling_time,omitempty"`
	PastSuccessRate float64            `json:"past_success_rate"`
	MaxConcurrent   int                `json:"max_concurrent,omitempty"`
	Skills          map[string]float64 `json:"skills,omitempty"`
}

func (h *AgentsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateAgentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	agent := &store.Agent{
		Name:            req.Name,
		Specialty:       req.Specialty,
		ExperienceYears: req.ExperienceYears,
		AvgHandlingTime: req.AvgHandlingTime,
		PastSuccessRate: req.PastSuccessRate,
		MaxConcurrent:   req.MaxConcurrent,
		Status:          store.AgentAvailable,
		Skills:          req.Skills,
	}
	if agent.MaxConcurrent == 0 {
		agent.MaxConcurrent = 3
	}

	if err := store.ValidateAgent(agent); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.store.CreateAgent(r.Context(), agent); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create agent"})
		return
	}
	writeJSON(w, http.StatusCreated, agent)
}

func (h *AgentsHandler) List(w http.ResponseWriter, r *http.Request) {
	agents, err := h.store.ListAgents(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list agents"})
		return
	}
	if agents == nil {
		agents = []*store.Agent{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"agents": agents,
		"count":  len(agents),
	})
}

func (h *AgentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent id"})
		return
	}
	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get agent"})
		return
	}
	if agent == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	writeJSON(w, http.StatusOK, agent)
}

type SetAgentStatusRequest struct {
	Status string `json:"status"`
}

func (h *AgentsHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid agent id"})
		return
	}
	var req SetAgentStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	status := store.AgentStatus(req.Status)
	switch status {
	case store.AgentAvailable, store.AgentBusy, store.AgentOffline:
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "status must be available, busy, or offline"})
		return
	}
	agent, err := h.store.GetAgent(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get agent"})
		return
	}
	if agent == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "agent not found"})
		return
	}
	if err := h.store.SetAgentStatus(r.Context(), id, status); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to update agent status"})
		return
	}
	agent.Status = status
	if h.events != nil {
		_ = h.events.Publish(events.SubjectAgentStatus(id.String()), events.AgentStatusEvent{
			AgentID: id.String(),
			Status:  string(status),
		})
	}
	writeJSON(w, http.StatusOK, agent)
}
