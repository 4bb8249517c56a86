// Package repository provides Postgres persistence for agent accounts.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when an agent does not exist.
var ErrNotFound = errors.New("agent not found")

// ErrDuplicateEmail is returned when an agent with the same email already exists.
var ErrDuplicateEmail = errors.New("agent email already exists")

// Agent is the persistence model for an account.
type Agent struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Role      string
	Quota     int
	CreatedAt time.Time
}

// CreateAgentParams holds the fields for inserting a new agent.
type CreateAgentParams struct {
	ID    uuid.UUID
	Name  string
	Email string
	Role  string
	Quota int
}

// Repository provides access to agent storage.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a new agents repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const agentColumns = `id, name, email, role, quota, created_at`

// Create inserts a new agent account.
func (r *Repository) Create(ctx context.Context, params CreateAgentParams) (Agent, error) {
	query := `
		INSERT INTO agents (id, name, email, role, quota)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING ` + agentColumns

	var agent Agent
	err := r.db.QueryRow(ctx, query,
		params.ID, params.Name, params.Email, params.Role, params.Quota,
	).Scan(&agent.ID, &agent.Name, &agent.Email, &agent.Role, &agent.Quota, &agent.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return Agent{}, ErrDuplicateEmail
		}
		return Agent{}, err
	}
	return agent, nil
}

// GetByID returns a single agent, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents WHERE id = $1`

	var agent Agent
	err := r.db.QueryRow(ctx, query, id).
		Scan(&agent.ID, &agent.Name, &agent.Email, &agent.Role, &agent.Quota, &agent.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Agent{}, ErrNotFound
		}
		return Agent{}, err
	}
	return agent, nil
}

// List returns all agents ordered by creation time.
func (r *Repository) List(ctx context.Context) ([]Agent, error) {
	query := `SELECT ` + agentColumns + ` FROM agents ORDER BY created_at ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var agents []Agent
	for rows.Next() {
		var agent Agent
		if err := rows.Scan(&agent.ID, &agent.Name, &agent.Email, &agent.Role, &agent.Quota, &agent.CreatedAt); err != nil {
			return nil, err
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// UpdateQuota changes an agent's quota.
func (r *Repository) UpdateQuota(ctx context.Context, id uuid.UUID, quota int) error {
	tag, err := r.db.Exec(ctx, `UPDATE agents SET quota = $2 WHERE id = $1`, id, quota)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	type sqlStater interface{ SQLState() string }
	var state sqlStater
	if errors.As(err, &state) {
		return state.SQLState() == "23505"
	}
	return false
}
