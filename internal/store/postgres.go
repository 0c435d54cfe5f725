package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const customerColumns = `id, name, sentiment, tier, issue_type, issue_complexity,
	channel, priority, wait_time_seconds, status, context, created_at, updated_at`

func (s *PostgresStore) CreateCustomer(ctx context.Context, c *Customer) error {
	contextJSON, _ := json.Marshal(c.Context)
	return s.pool.QueryRow(ctx, `
		INSERT INTO queue_customers (name, sentiment, tier, issue_type, issue_complexity,
			channel, priority, wait_time_seconds, status, context)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Sentiment, c.Tier, c.IssueType, c.IssueComplexity,
		c.Channel, c.Priority, c.WaitTimeSeconds, c.Status, contextJSON,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
}

func (s *PostgresStore) GetCustomer(ctx context.Context, id uuid.UUID) (*Customer, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+customerColumns+`
		FROM queue_customers WHERE id = $1`, id)
	c, err := scanCustomer(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *PostgresStore) GetWaitingCustomers(ctx context.Context) ([]*Customer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM queue_customers WHERE status = 'waiting'
		ORDER BY priority DESC, created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var customers []*Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

func (s *PostgresStore) MarkRouted(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_customers SET status = 'routed', updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) RemoveCustomer(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_customers SET status = 'removed', updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) SetCustomerStatus(ctx context.Context, id uuid.UUID, status CustomerStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_customers SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	return err
}

func (s *PostgresStore) ReturnRoutedToWaiting(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE queue_customers SET status = 'waiting', updated_at = now()
		WHERE status = 'routed'`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) AdvanceWaitTimes(ctx context.Context, delta time.Duration) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_customers
		SET wait_time_seconds = wait_time_seconds + $1, updated_at = now()
		WHERE status = 'waiting'`, int(delta.Seconds()))
	return err
}

const agentColumns = `id, name, specialty, experience_years, avg_handling_time,
	past_success_rate, current_workload, max_concurrent, status, skills, updated_at`

func (s *PostgresStore) CreateAgent(ctx context.Context, a *Agent) error {
	skillsJSON, _ := json.Marshal(a.Skills)
	return s.pool.QueryRow(ctx, `
		INSERT INTO queue_agents (name, specialty, experience_years, avg_handling_time,
			past_success_rate, current_workload, max_concurrent, status, skills)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, updated_at`,
		a.Name, a.Specialty, a.ExperienceYears, a.AvgHandlingTime,
		a.PastSuccessRate, a.CurrentWorkload, a.MaxConcurrent, a.Status, skillsJSON,
	).Scan(&a.ID, &a.UpdatedAt)
}

func (s *PostgresStore) GetAgent(ctx context.Context, id uuid.UUID) (*Agent, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+agentColumns+`
		FROM queue_agents WHERE id = $1`, id)
	a, err := scanAgent(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *PostgresStore) ListAgents(ctx context.Context) ([]*Agent, error) {
	return s.queryAgents(ctx, `SELECT `+agentColumns+` FROM queue_agents ORDER BY name ASC`)
}

func (s *PostgresStore) GetAvailableAgents(ctx context.Context) ([]*Agent, error) {
	return s.queryAgents(ctx, `
		SELECT `+agentColumns+`
		FROM queue_agents
		WHERE status = 'available' AND current_workload < max_concurrent
		ORDER BY name ASC`)
}

func (s *PostgresStore) queryAgents(ctx context.Context, query string, args ...interface{}) ([]*Agent, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []*Agent
	for rows.Next() {
		a, err := scanAgent(rows)
		if err != nil {
			return nil, err
		}
		agents = append(agents, a)
	}
	return agents, rows.Err()
}

func (s *PostgresStore) IncrementWorkload(ctx context.Context, id uuid.UUID) error {
	// Flip to busy in the same statement when the increment reaches capacity.
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_agents SET
			current_workload = current_workload + 1,
			status = CASE WHEN current_workload + 1 >= max_concurrent THEN 'busy' ELSE status END,
			updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) DecrementWorkload(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_agents SET
			current_workload = GREATEST(current_workload - 1, 0),
			status = CASE WHEN status = 'busy' AND current_workload - 1 < max_concurrent THEN 'available' ELSE status END,
			updated_at = now()
		WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) SetAgentStatus(ctx context.Context, id uuid.UUID, status AgentStatus) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_agents SET status = $2, updated_at = now()
		WHERE id = $1`, id, status)
	return err
}

func (s *PostgresStore) ResetWorkloads(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE queue_agents SET current_workload = 0, status = 'available', updated_at = now()
		WHERE status != 'offline'`)
	return err
}

const resultColumns = `id, customer_id, agent_id, customer_name, agent_name,
	score, reasoning, degraded, manual, status, created_at, completed_at, handling_time_minutes`

func (s *PostgresStore) CreateResult(ctx context.Context, r *RoutingResult) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO routing_results (customer_id, agent_id, customer_name, agent_name,
			score, reasoning, degraded, manual, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		r.CustomerID, r.AgentID, r.CustomerName, r.AgentName,
		r.Score, r.Reasoning, r.Degraded, r.Manual, r.Status,
	).Scan(&r.ID, &r.CreatedAt)
}

func (s *PostgresStore) GetResult(ctx context.Context, id uuid.UUID) (*RoutingResult, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+resultColumns+`
		FROM routing_results WHERE id = $1`, id)
	r, err := scanResult(row)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return r, nil
}

func (s *PostgresStore) ListResults(ctx context.Context, filter ResultFilter) ([]*RoutingResult, error) {
	query := `SELECT ` + resultColumns + ` FROM routing_results WHERE 1=1`
	args := []interface{}{}
	n := 0

	if filter.Status != nil {
		n++
		query += fmt.Sprintf(" AND status = $%d", n)
		args = append(args, string(*filter.Status))
	}
	if filter.AgentID != nil {
		n++
		query += fmt.Sprintf(" AND agent_id = $%d", n)
		args = append(args, *filter.AgentID)
	}

	query += " ORDER BY created_at DESC"

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	n++
	query += fmt.Sprintf(" LIMIT $%d", n)
	args = append(args, limit)

	if filter.Offset > 0 {
		n++
		query += fmt.Sprintf(" OFFSET $%d", n)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*RoutingResult
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

func (s *PostgresStore) UpdateResult(ctx context.Context, r *RoutingResult) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE routing_results SET
			status = $2, completed_at = $3, handling_time_minutes = $4
		WHERE id = $1`,
		r.ID, r.Status, r.CompletedAt, r.HandlingTimeMinutes)
	return err
}

func (s *PostgresStore) DeleteResult(ctx context.Context, id uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM routing_results WHERE id = $1`, id)
	return err
}

func (s *PostgresStore) ClearActiveResults(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM routing_results WHERE status = 'active'`)
	return err
}

func (s *PostgresStore) GetStats(ctx context.Context) (*RoutingStats, error) {
	stats := &RoutingStats{}
	err := s.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = 'active' THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(score), 0),
			COALESCE(SUM(CASE WHEN score >= 0.8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score >= 0.6 AND score < 0.8 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN score < 0.6 THEN 1 ELSE 0 END), 0),
			COALESCE(AVG(handling_time_minutes) FILTER (WHERE handling_time_minutes IS NOT NULL), 0)
		FROM routing_results`,
	).Scan(&stats.TotalRoutings, &stats.ActiveRoutings, &stats.AverageScore,
		&stats.HighConfidence, &stats.MediumConfidence, &stats.LowConfidence, &stats.AvgHandlingMin)
	return stats, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCustomer(row rowScanner) (*Customer, error) {
	c := &Customer{}
	var contextJSON []byte
	if err := row.Scan(
		&c.ID, &c.Name, &c.Sentiment, &c.Tier, &c.IssueType, &c.IssueComplexity,
		&c.Channel, &c.Priority, &c.WaitTimeSeconds, &c.Status, &contextJSON,
		&c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if contextJSON != nil {
		_ = json.Unmarshal(contextJSON, &c.Context)
	}
	return c, nil
}

func scanAgent(row rowScanner) (*Agent, error) {
	a := &Agent{}
	var skillsJSON []byte
	if err := row.Scan(
		&a.ID, &a.Name, &a.Specialty, &a.ExperienceYears, &a.AvgHandlingTime,
		&a.PastSuccessRate, &a.CurrentWorkload, &a.MaxConcurrent, &a.Status, &skillsJSON,
		&a.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if skillsJSON != nil {
		_ = json.Unmarshal(skillsJSON, &a.Skills)
	}
	return a, nil
}

func scanResult(row rowScanner) (*RoutingResult, error) {
	r := &RoutingResult{}
	var customerName, agentName sql.NullString
	if err := row.Scan(
		&r.ID, &r.CustomerID, &r.AgentID, &customerName, &agentName,
		&r.Score, &r.Reasoning, &r.Degraded, &r.Manual, &r.Status,
		&r.CreatedAt, &r.CompletedAt, &r.HandlingTimeMinutes,
	); err != nil {
		return nil, err
	}
	if customerName.Valid {
		r.CustomerName = customerName.String
	}
	if agentName.Valid {
		r.AgentName = agentName.String
	}
	return r, nil
}
