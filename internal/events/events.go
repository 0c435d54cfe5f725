package events

import "time"

// RoutingAssignedEvent is published once per committed assignment. The
// reasoning tags are the tuple consumed by the external summary/feedback
// templating layer.
type RoutingAssignedEvent struct {
	RoutingID  string    `json:"routing_id"`
	CustomerID string    `json:"customer_id"`
	AgentID    string    `json:"agent_id"`
	Score      float64   `json:"score"`
	Reasoning  []string  `json:"reasoning"`
	Degraded   bool      `json:"degraded"`
	Manual     bool      `json:"manual"`
	Timestamp  time.Time `json:"timestamp"`
}

type RoutingCompletedEvent struct {
	RoutingID           string  `json:"routing_id"`
	AgentID             string  `json:"agent_id"`
	HandlingTimeMinutes float64 `json:"handling_time_minutes"`
}

type PassCompletedEvent struct {
	Routed       int       `json:"routed"`
	Unrouted     int       `json:"unrouted"`
	AverageScore float64   `json:"average_score"`
	Degraded     bool      `json:"degraded"`
	Timestamp    time.Time `json:"timestamp"`
}

type AgentStatusEvent struct {
	AgentID string `json:"agent_id"`
	Status  string `json:"status"`
}
