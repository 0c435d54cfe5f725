package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/queuewise/router/internal/events"
	"github.com/queuewise/router/internal/store"
)

type CustomersHandler struct {
	store  store.Store
	events events.Client
}

func NewCustomersHandler(s store.Store, ev events.Client) *CustomersHandler {
	return &CustomersHandler{store: s, events: ev}
}

type CreateCustomerRequest struct {
	Name            string                 `json:"name"`
	Sentiment       string                 `json:"sentiment"`
	Tier            string                 `json:"tier"`
	IssueType       string                 `json:"issue_type"`
	IssueComplexity float64                `json:"issue_complexity"`
	Channel         string                 `json:"channel"`
	Priority        int                    `json:"priority,omitempty"`
	Context         map[string]interface{} `json:"context,omitempty"`
}

func (h *CustomersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	customer := &store.Customer{
		Name:            req.Name,
		Sentiment:       req.Sentiment,
		Tier:            req.Tier,
		IssueType:       req.IssueType,
		IssueComplexity: req.IssueComplexity,
		Channel:         req.Channel,
		Priority:        req.Priority,
		Status:          store.CustomerWaiting,
		Context:         req.Context,
	}
	if customer.Sentiment == "" {
		customer.Sentiment = "neutral"
	}
	if customer.Tier == "" {
		customer.Tier = "standard"
	}
	if customer.Channel == "" {
		customer.Channel = "chat"
	}
	if customer.Priority == 0 {
		customer.Priority = 5
	}

	if err := store.ValidateCustomer(customer); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err := h.store.CreateCustomer(r.Context(), customer); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to create customer"})
		return
	}
	if h.events != nil {
		_ = h.events.Publish(events.SubjectCustomerQueued(customer.ID.String()), customer)
	}
	writeJSON(w, http.StatusCreated, customer)
}

func (h *CustomersHandler) List(w http.ResponseWriter, r *http.Request) {
	customers, err := h.store.GetWaitingCustomers(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list customers"})
		return
	}
	if customers == nil {
		customers = []*store.Customer{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"customers": customers,
		"count":     len(customers),
	})
}

func (h *CustomersHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get customer"})
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	writeJSON(w, http.StatusOK, customer)
}

func (h *CustomersHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid customer id"})
		return
	}
	customer, err := h.store.GetCustomer(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to get customer"})
		return
	}
	if customer == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "customer not found"})
		return
	}
	if customer.Status != store.CustomerWaiting {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "only waiting customers can be removed"})
		return
	}
	if err := h.store.RemoveCustomer(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to remove customer"})
		return
	}
	if h.events != nil {
		_ = h.events.Publish(events.SubjectCustomerRemoved(id.String()), map[string]string{"customer_id": id.String()})
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
