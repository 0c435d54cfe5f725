package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type CustomerStatus string

const (
	CustomerWaiting CustomerStatus = "waiting"
	CustomerRouted  CustomerStatus = "routed"
	CustomerRemoved CustomerStatus = "removed"
)

type AgentStatus string

const (
	AgentAvailable AgentStatus = "available"
	AgentBusy      AgentStatus = "busy"
	AgentOffline   AgentStatus = "offline"
)

type ResultStatus string

const (
	ResultActive    ResultStatus = "active"
	ResultCompleted ResultStatus = "completed"
)

// Customer is a queued service request. Ephemeral: created on queue entry,
// mutated only by the orchestrator, archived on assignment or removal.
type Customer struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Sentiment       string                 `json:"sentiment"` // positive, neutral, negative
	Tier            string                 `json:"tier"`      // basic, standard, premium
	IssueType       string                 `json:"issue_type"`
	IssueComplexity float64                `json:"issue_complexity"` // 1-5
	Channel         string                 `json:"channel"`          // phone, chat, email, voice
	Priority        int                    `json:"priority"`         // 1-10
	WaitTimeSeconds int                    `json:"wait_time_seconds"`
	Status          CustomerStatus         `json:"status"`
	Context         map[string]interface{} `json:"context,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Agent is a service agent with capacity and performance history.
type Agent struct {
	ID              uuid.UUID          `json:"id"`
	Name            string             `json:"name"`
	Specialty       []string           `json:"specialty"`
	ExperienceYears float64            `json:"experience_years"`
	AvgHandlingTime float64            `json:"avg_handling_time"` // minutes
	PastSuccessRate float64            `json:"past_success_rate"` // [0,1]
	CurrentWorkload int                `json:"current_workload"`
	MaxConcurrent   int                `json:"max_concurrent"`
	Status          AgentStatus        `json:"status"`
	Skills          map[string]float64 `json:"skills,omitempty"` // skill -> proficiency [0,1]
	UpdatedAt       time.Time          `json:"updated_at"`
}

// Eligible reports whether the agent can take another assignment right now.
func (a *Agent) Eligible() bool {
	return a.Status == AgentAvailable && a.CurrentWorkload < a.MaxConcurrent
}

// RoutingResult is the auditable record emitted for one committed assignment.
type RoutingResult struct {
	ID                  uuid.UUID    `json:"id"`
	CustomerID          uuid.UUID    `json:"customer_id"`
	AgentID             uuid.UUID    `json:"agent_id"`
	CustomerName        string       `json:"customer_name,omitempty"`
	AgentName           string       `json:"agent_name,omitempty"`
	Score               float64      `json:"score"` // [0,1]
	Reasoning           []string     `json:"reasoning"`
	Degraded            bool         `json:"degraded"` // heuristic score, not model
	Manual              bool         `json:"manual"`
	Status              ResultStatus `json:"status"`
	CreatedAt           time.Time    `json:"created_at"`
	CompletedAt         *time.Time   `json:"completed_at,omitempty"`
	HandlingTimeMinutes *float64     `json:"handling_time_minutes,omitempty"`
}

type ResultFilter struct {
	Status  *ResultStatus
	AgentID *uuid.UUID
	Limit   int
	Offset  int
}

// RoutingStats aggregates routing results for the analytics surface.
type RoutingStats struct {
	TotalRoutings    int     `json:"total_routings"`
	ActiveRoutings   int     `json:"active_routings"`
	AverageScore     float64 `json:"average_score"`
	HighConfidence   int     `json:"high_confidence_matches"`   // score >= 0.8
	MediumConfidence int     `json:"medium_confidence_matches"` // 0.6 <= score < 0.8
	LowConfidence    int     `json:"low_confidence_matches"`    // score < 0.6
	AvgHandlingMin   float64 `json:"avg_handling_minutes"`
}

// QueueStore is the waiting-queue collaborator consumed by the orchestrator.
type QueueStore interface {
	CreateCustomer(ctx context.Context, c *Customer) error
	GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error)
	GetWaitingCustomers(ctx context.Context) ([]*Customer, error)
	MarkRouted(ctx context.Context, id uuid.UUID) error
	RemoveCustomer(ctx context.Context, id uuid.UUID) error
	SetCustomerStatus(ctx context.Context, id uuid.UUID, status CustomerStatus) error
	ReturnRoutedToWaiting(ctx context.Context) (int, error)
	AdvanceWaitTimes(ctx context.Context, delta time.Duration) error
}

// AgentStore is the agent-roster collaborator consumed by the orchestrator.
type AgentStore interface {
	CreateAgent(ctx context.Context, a *Agent) error
	GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error)
	ListAgents(ctx context.Context) ([]*Agent, error)
	GetAvailableAgents(ctx context.Context) ([]*Agent, error)
	IncrementWorkload(ctx context.Context, id uuid.UUID) error
	DecrementWorkload(ctx context.Context, id uuid.UUID) error
	SetAgentStatus(ctx context.Context, id uuid.UUID, status AgentStatus) error
	ResetWorkloads(ctx context.Context) error
}

// ResultStore persists the auditable routing records.
type ResultStore interface {
	CreateResult(ctx context.Context, r *RoutingResult) error
	GetResult(ctx context.Context, id uuid.UUID) (*RoutingResult, error)
	ListResults(ctx context.Context, filter ResultFilter) ([]*RoutingResult, error)
	UpdateResult(ctx context.Context, r *RoutingResult) error
	DeleteResult(ctx context.Context, id uuid.UUID) error
	ClearActiveResults(ctx context.Context) error
	GetStats(ctx context.Context) (*RoutingStats, error)
}

type Store interface {
	QueueStore
	AgentStore
	ResultStore
	Close() error
}

var validSentiments = map[string]bool{"positive": true, "neutral": true, "negative": true}
var validTiers = map[string]bool{"basic": true, "standard": true, "premium": true}
var validChannels = map[string]bool{"phone": true, "chat": true, "email": true, "voice": true}

// ValidateCustomer rejects malformed customer records at the boundary so the
// builder and resolver only ever see validated snapshots.
func ValidateCustomer(c *Customer) error {
	if c.Name == "" {
		return fmt.Errorf("customer name required")
	}
	if !validSentiments[c.Sentiment] {
		return fmt.Errorf("invalid sentiment %q", c.Sentiment)
	}
	if !validTiers[c.Tier] {
		return fmt.Errorf("invalid tier %q", c.Tier)
	}
	if c.IssueType == "" {
		return fmt.Errorf("issue_type required")
	}
	if c.IssueComplexity < 1 || c.IssueComplexity > 5 {
		return fmt.Errorf("issue_complexity %.1f out of range [1,5]", c.IssueComplexity)
	}
	if !validChannels[c.Channel] {
		return fmt.Errorf("invalid channel %q", c.Channel)
	}
	if c.Priority < 1 || c.Priority > 10 {
		return fmt.Errorf("priority %d out of range [1,10]", c.Priority)
	}
	return nil
}

// ValidateAgent rejects malformed agent records at the boundary.
func ValidateAgent(a *Agent) error {
	if a.Name == "" {
		return fmt.Errorf("agent name required")
	}
	if a.MaxConcurrent < 1 {
		return fmt.Errorf("max_concurrent must be >= 1, got %d", a.MaxConcurrent)
	}
	if a.CurrentWorkload < 0 {
		return fmt.Errorf("current_workload must be >= 0, got %d", a.CurrentWorkload)
	}
	if a.PastSuccessRate < 0 || a.PastSuccessRate > 1 {
		return fmt.Errorf("past_success_rate %.2f out of range [0,1]", a.PastSuccessRate)
	}
	if a.ExperienceYears < 0 {
		return fmt.Errorf("experience_years must be >= 0")
	}
	switch a.Status {
	case AgentAvailable, AgentBusy, AgentOffline:
	default:
		return fmt.Errorf("invalid agent status %q", a.Status)
	}
	for skill, prof := range a.Skills {
		if prof < 0 || prof > 1 {
			return fmt.Errorf("skill %q proficiency %.2f out of range [0,1]", skill, prof)
		}
	}
	return nil
}
