// Package assign implements the assignment engine: it selects unassigned
// leads in priority order and claims them for an agent with version-gated
// writes, respecting the agent's quota.
package assign

import (
	"context"
	"time"

	"hopper_backend/internal/hopper/capacity"
	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/platform/apperr"
	"hopper_backend/platform/logger"

	"github.com/google/uuid"
)

// Engine assigns pool leads to agents.
type Engine struct {
	store    ports.LeadStore
	capacity *capacity.Tracker
	log      *logger.Logger
	now      func() time.Time
}

// New creates an assignment engine.
func New(store ports.LeadStore, tracker *capacity.Tracker, log *logger.Logger) *Engine {
	return &Engine{
		store:    store,
		capacity: tracker,
		log:      log,
		now:      time.Now,
	}
}

// WithClock overrides the engine's time source. Used by tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Assign claims up to requested leads for the agent, bounded by the agent's
// remaining quota. Candidates are processed in priority order; a lead lost to
// a concurrent claim is skipped, never retried, since the winner legitimately
// owns it. A result shorter than requested is not an error.
//
// The capacity check here only sizes the candidate batch; the quota itself is
// enforced inside ClaimLead, so two interleaved runs for the same agent
// cannot claim past it between the check and the writes.
func (e *Engine) Assign(ctx context.Context, agentID uuid.UUID, requested int) ([]ports.Lead, error) {
	if requested < 1 {
		return nil, apperr.Validation("requested count must be at least 1")
	}

	agent, available, err := e.capacity.Available(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return []ports.Lead{}, nil
	}

	target := requested
	if available < target {
		target = available
	}

	candidates, err := e.store.SelectPool(ctx, target)
	if err != nil {
		return nil, err
	}

	now := e.now().UTC()
	claimed := make([]ports.Lead, 0, len(candidates))
	skipped := 0

	for _, candidate := range candidates {
		ok, err := e.store.ClaimLead(ctx, candidate.ID, candidate.Version, agent.ID, agent.Quota, now)
		if err != nil {
			// Store failure aborts the run; claims already committed stand.
			return claimed, err
		}
		if !ok {
			skipped++
			continue
		}

		lead := candidate
		lead.Status = domain.StatusAssigned
		lead.AssignedAgentID = &agent.ID
		assignedAt := now
		lead.AssignedAt = &assignedAt
		lead.Version = candidate.Version + 1
		claimed = append(claimed, lead)
	}

	if e.log != nil {
		e.log.AssignmentBatch(agent.ID.String(), requested, len(claimed), skipped)
	}

	return claimed, nil
}
