// Package hopper provides the lead hopper bounded context: a shared pool of
// sales leads, quota-bounded assignment to agents, and recycling of stale
// assignments back into the pool.
package hopper

import (
	"context"
	"time"

	"hopper_backend/internal/events"
	"hopper_backend/internal/hopper/assign"
	"hopper_backend/internal/hopper/capacity"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/recycle"

	"github.com/google/uuid"
)

// Service is the hopper facade: the only surface the rest of the system calls.
type Service struct {
	engine    *assign.Engine
	sweeper   *recycle.Sweeper
	capacity  *capacity.Tracker
	store     ports.LeadStore
	bus       events.Bus
	batchSize int
}

// NewService wires the facade from its engines.
func NewService(engine *assign.Engine, sweeper *recycle.Sweeper, tracker *capacity.Tracker, store ports.LeadStore, bus events.Bus, sweepBatchSize int) *Service {
	return &Service{
		engine:    engine,
		sweeper:   sweeper,
		capacity:  tracker,
		store:     store,
		bus:       bus,
		batchSize: sweepBatchSize,
	}
}

// Assign claims up to requested leads for the agent. See assign.Engine.
func (s *Service) Assign(ctx context.Context, agentID uuid.UUID, requested int) ([]ports.Lead, error) {
	claimed, err := s.engine.Assign(ctx, agentID, requested)
	if err != nil {
		return claimed, err
	}

	s.publishAssigned(ctx, agentID, claimed)
	return claimed, nil
}

// Replenish fills the agent's pool up to its quota. Used when a new agent is
// onboarded or an agent's pool runs dry. An agent already at capacity gets an
// empty result, not an error.
func (s *Service) Replenish(ctx context.Context, agentID uuid.UUID) ([]ports.Lead, error) {
	_, available, err := s.capacity.Available(ctx, agentID)
	if err != nil {
		return nil, err
	}
	if available <= 0 {
		return []ports.Lead{}, nil
	}

	claimed, err := s.engine.Assign(ctx, agentID, available)
	if err != nil {
		return claimed, err
	}

	s.publishAssigned(ctx, agentID, claimed)
	return claimed, nil
}

// Sweep reclaims assignments older than window back into the pool.
// Safe to trigger manually while the scheduled sweep is running.
func (s *Service) Sweep(ctx context.Context, now time.Time, window time.Duration) (int, error) {
	reclaimed, err := s.sweeper.Sweep(ctx, now, window, s.batchSize)
	if err != nil {
		return reclaimed, err
	}

	if reclaimed > 0 && s.bus != nil {
		s.bus.Publish(ctx, events.LeadsReclaimed{
			BaseEvent: events.NewBaseEvent(),
			Reclaimed: reclaimed,
			SweptAt:   now,
		})
	}

	return reclaimed, nil
}

// Stats returns aggregate pool counts for operational visibility.
func (s *Service) Stats(ctx context.Context) (ports.PoolStats, error) {
	return s.store.PoolStats(ctx)
}

func (s *Service) publishAssigned(ctx context.Context, agentID uuid.UUID, claimed []ports.Lead) {
	if len(claimed) == 0 || s.bus == nil {
		return
	}

	ids := make([]uuid.UUID, 0, len(claimed))
	for _, lead := range claimed {
		ids = append(ids, lead.ID)
	}

	s.bus.Publish(ctx, events.LeadsAssigned{
		BaseEvent: events.NewBaseEvent(),
		AgentID:   agentID,
		LeadIDs:   ids,
	})
}
