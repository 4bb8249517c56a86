// Package ports defines the interfaces the hopper engines consume.
// Implementations live in the repository layer (Postgres) and in
// storetest (in-memory, for tests); the engines never see either directly.
package ports

import (
	"context"
	"errors"
	"time"

	"hopper_backend/internal/hopper/domain"

	"github.com/google/uuid"
)

// ErrLeadNotFound is returned when a lead does not exist.
var ErrLeadNotFound = errors.New("lead not found")

// Lead is the engine's view of a lead record. priority_score and id are
// immutable; version increments on every status transition.
type Lead struct {
	ID              uuid.UUID
	Status          domain.Status
	AssignedAgentID *uuid.UUID
	AssignedAt      *time.Time
	PriorityScore   float64
	Version         int64
	CreatedAt       time.Time
}

// PoolStats is the aggregate view exposed by Stats().
type PoolStats struct {
	Total     int
	Available int
	Active    int
	Protected int
	Closed    int
}

// LeadStore is the persistence interface consumed by the assignment engine
// and the recycling sweeper. All mutations are conditional on the lead's
// current version; a false return means the caller lost the race and the
// record already reflects a more recent change.
type LeadStore interface {
	// GetLead returns a single lead, or ErrLeadNotFound.
	GetLead(ctx context.Context, id uuid.UUID) (Lead, error)

	// SelectPool returns up to limit unassigned leads ordered by
	// priority_score descending, ties broken by earliest creation time.
	SelectPool(ctx context.Context, limit int) ([]Lead, error)

	// SelectExpired returns up to limit recyclable leads whose assigned_at
	// is strictly before cutoff, oldest assignment first. Protected and
	// closed leads are never returned.
	SelectExpired(ctx context.Context, cutoff time.Time, limit int) ([]Lead, error)

	// ClaimLead transitions a lead from new to assigned for the given agent,
	// conditional on expectedVersion and on the agent holding fewer than
	// quota leads at write time. The quota guard is part of the same atomic
	// write, so concurrent claims for one agent can never push it over
	// quota. Returns false on version, status, or quota mismatch without
	// error.
	ClaimLead(ctx context.Context, id uuid.UUID, expectedVersion int64, agentID uuid.UUID, quota int, at time.Time) (bool, error)

	// ReleaseLead returns an actively held lead to the pool, clearing the
	// agent and assignment timestamp, conditional on expectedVersion.
	// Returns false on version or status mismatch without error.
	ReleaseLead(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error)

	// CountHeld returns the number of quota-consuming leads currently held
	// by the agent (active statuses plus protected).
	CountHeld(ctx context.Context, agentID uuid.UUID) (int, error)

	// PoolStats returns aggregate counts by status class.
	PoolStats(ctx context.Context) (PoolStats, error)
}
