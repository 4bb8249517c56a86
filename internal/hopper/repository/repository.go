package repository

import (
	"context"
	"errors"
	"time"

	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const leadColumns = `id, status, assigned_agent_id, assigned_at, priority_score, version, created_at`

// Repository is the Postgres implementation of ports.LeadStore.
// Every mutation is a single-row conditional write keyed by (id, version);
// the pool is never locked as a whole.
type Repository struct {
	pool *pgxpool.Pool
}

// New creates a lead store backed by the given pool.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (ports.Lead, error) {
	var lead ports.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads WHERE id = $1
	`, id).Scan(
		&lead.ID, &lead.Status, &lead.AssignedAgentID, &lead.AssignedAt,
		&lead.PriorityScore, &lead.Version, &lead.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return ports.Lead{}, ports.ErrLeadNotFound
	}
	return lead, err
}

// SelectPool returns pool candidates in deterministic assignment order:
// priority_score descending, creation time ascending on ties.
func (r *Repository) SelectPool(ctx context.Context, limit int) ([]ports.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = $1
		ORDER BY priority_score DESC, created_at ASC
		LIMIT $2
	`, domain.StatusNew, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

// SelectExpired returns recyclable leads assigned strictly before cutoff,
// oldest assignment first, bounded by limit for batch pagination.
func (r *Repository) SelectExpired(ctx context.Context, cutoff time.Time, limit int) ([]ports.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE status = ANY($1) AND assigned_at < $2
		ORDER BY assigned_at ASC
		LIMIT $3
	`, recyclableStatuses(), cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanLeads(rows)
}

// ClaimLead performs the conditional new -> assigned transition. The status
// predicate guards against claiming a lead another process already moved.
// A per-agent advisory lock serializes claims for the same agent so the
// quota subquery counts a settled set; claims for different agents do not
// contend, and the pool is never locked as a whole.
func (r *Repository) ClaimLead(ctx context.Context, id uuid.UUID, expectedVersion int64, agentID uuid.UUID, quota int, at time.Time) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1::text))`, agentID); err != nil {
		return false, err
	}

	result, err := tx.Exec(ctx, `
		UPDATE leads
		SET status = $4, assigned_agent_id = $5, assigned_at = $6, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = $3
		  AND (SELECT COUNT(*) FROM leads held
		       WHERE held.assigned_agent_id = $5 AND held.status = ANY($7)) < $8
	`, id, expectedVersion, domain.StatusNew, domain.StatusAssigned, agentID, at,
		quotaConsumingStatuses(), quota)
	if err != nil {
		return false, err
	}

	if err := tx.Commit(ctx); err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// ReleaseLead performs the conditional active -> new reclaim, clearing the
// assignment fields. Protected and closed leads never match the predicate.
func (r *Repository) ReleaseLead(ctx context.Context, id uuid.UUID, expectedVersion int64) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE leads
		SET status = $4, assigned_agent_id = NULL, assigned_at = NULL, version = version + 1, updated_at = now()
		WHERE id = $1 AND version = $2 AND status = ANY($3)
	`, id, expectedVersion, recyclableStatuses(), domain.StatusNew)
	if err != nil {
		return false, err
	}
	return result.RowsAffected() == 1, nil
}

// CountHeld recomputes the agent's quota-consuming lead count from the lead
// set itself, so it can never drift from the records it describes.
func (r *Repository) CountHeld(ctx context.Context, agentID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM leads
		WHERE assigned_agent_id = $1 AND status = ANY($2)
	`, agentID, quotaConsumingStatuses()).Scan(&count)
	return count, err
}

func (r *Repository) PoolStats(ctx context.Context) (ports.PoolStats, error) {
	var stats ports.PoolStats
	err := r.pool.QueryRow(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = $1),
			COUNT(*) FILTER (WHERE status = ANY($2)),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = ANY($4))
		FROM leads
	`, domain.StatusNew, recyclableStatuses(), domain.StatusProtected,
		[]string{string(domain.StatusClosedWon), string(domain.StatusClosedLost)},
	).Scan(&stats.Total, &stats.Available, &stats.Active, &stats.Protected, &stats.Closed)
	return stats, err
}

func scanLeads(rows pgx.Rows) ([]ports.Lead, error) {
	leads := make([]ports.Lead, 0)
	for rows.Next() {
		var lead ports.Lead
		if err := rows.Scan(
			&lead.ID, &lead.Status, &lead.AssignedAgentID, &lead.AssignedAt,
			&lead.PriorityScore, &lead.Version, &lead.CreatedAt,
		); err != nil {
			return nil, err
		}
		leads = append(leads, lead)
	}

	if rows.Err() != nil {
		return nil, rows.Err()
	}

	return leads, nil
}

func recyclableStatuses() []string {
	return []string{
		string(domain.StatusAssigned),
		string(domain.StatusContacted),
		string(domain.StatusQualified),
	}
}

func quotaConsumingStatuses() []string {
	return []string{
		string(domain.StatusAssigned),
		string(domain.StatusContacted),
		string(domain.StatusQualified),
		string(domain.StatusProtected),
	}
}

// Compile-time check that Repository implements ports.LeadStore.
var _ ports.LeadStore = (*Repository)(nil)
