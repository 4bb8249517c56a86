// Package repository provides Postgres persistence for lead intake and
// lifecycle updates. It shares the leads table with the hopper engines and
// follows the same discipline: every write is conditional on the version
// the caller last observed.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// ErrVersionConflict is returned when a conditional update loses against a
// concurrent writer.
var ErrVersionConflict = errors.New("lead was modified concurrently")

// Lead is the full persistence model, including contact fields the hopper
// engines never touch.
type Lead struct {
	ID              uuid.UUID
	Status          string
	AssignedAgentID *uuid.UUID
	AssignedAt      *time.Time
	PriorityScore   float64
	Version         int64
	Name            string
	Email           *string
	Phone           *string
	Source          *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CreateLeadParams holds the fields for inserting a new lead.
type CreateLeadParams struct {
	ID            uuid.UUID
	Name          string
	Email         *string
	Phone         *string
	Source        *string
	PriorityScore float64
}

// UpdateStatusParams holds the fields for a version-gated status change.
type UpdateStatusParams struct {
	ID              uuid.UUID
	ExpectedVersion int64
	Status          string
	// ClearAgent nulls assigned_agent_id and assigned_at in the same write.
	// Set for transitions back to the pool and for closing transitions, so
	// the assignment fields are populated exactly while an agent holds the
	// lead.
	ClearAgent bool
}

// Repository provides access to lead storage for the intake flow.
type Repository struct {
	db *pgxpool.Pool
}

// New creates a new intake repository.
func New(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

const leadColumns = `id, status, assigned_agent_id, assigned_at, priority_score, version,
	name, email, phone, source, created_at, updated_at`

// Create inserts a new lead in the new status with version 1.
func (r *Repository) Create(ctx context.Context, params CreateLeadParams) (Lead, error) {
	query := `
		INSERT INTO leads (id, status, priority_score, name, email, phone, source)
		VALUES ($1, 'new', $2, $3, $4, $5, $6)
		RETURNING ` + leadColumns

	row := r.db.QueryRow(ctx, query,
		params.ID, params.PriorityScore, params.Name, params.Email, params.Phone, params.Source,
	)
	return scanLead(row)
}

// GetByID returns a single lead, or ErrNotFound.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	query := `SELECT ` + leadColumns + ` FROM leads WHERE id = $1`

	lead, err := scanLead(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Lead{}, ErrNotFound
		}
		return Lead{}, err
	}
	return lead, nil
}

// UpdateStatus performs a version-gated status transition. The status graph is
// enforced by the service; this layer only guarantees the conditional write.
func (r *Repository) UpdateStatus(ctx context.Context, params UpdateStatusParams) (Lead, error) {
	query := `
		UPDATE leads
		SET status = $3,
		    assigned_agent_id = CASE WHEN $4 THEN NULL ELSE assigned_agent_id END,
		    assigned_at = CASE WHEN $4 THEN NULL ELSE assigned_at END,
		    version = version + 1,
		    updated_at = now()
		WHERE id = $1 AND version = $2
		RETURNING ` + leadColumns

	lead, err := scanLead(r.db.QueryRow(ctx, query,
		params.ID, params.ExpectedVersion, params.Status, params.ClearAgent,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Distinguish a missing lead from a lost race.
			if _, getErr := r.GetByID(ctx, params.ID); errors.Is(getErr, ErrNotFound) {
				return Lead{}, ErrNotFound
			}
			return Lead{}, ErrVersionConflict
		}
		return Lead{}, err
	}
	return lead, nil
}

func scanLead(row pgx.Row) (Lead, error) {
	var lead Lead
	err := row.Scan(
		&lead.ID, &lead.Status, &lead.AssignedAgentID, &lead.AssignedAt,
		&lead.PriorityScore, &lead.Version,
		&lead.Name, &lead.Email, &lead.Phone, &lead.Source,
		&lead.CreatedAt, &lead.UpdatedAt,
	)
	return lead, err
}
