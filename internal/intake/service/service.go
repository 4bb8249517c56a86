// Package service contains the business logic for lead intake and lifecycle
// updates outside the assignment and recycling engines.
package service

import (
	"context"
	"errors"
	"fmt"

	"hopper_backend/internal/events"
	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/intake/repository"
	"hopper_backend/platform/apperr"
	"hopper_backend/platform/logger"
	"hopper_backend/platform/phone"

	"github.com/google/uuid"
)

// Service provides lead intake operations.
type Service struct {
	repo *repository.Repository
	bus  events.Bus
	log  *logger.Logger
}

// New creates an intake service.
func New(repo *repository.Repository, bus events.Bus, log *logger.Logger) *Service {
	return &Service{repo: repo, bus: bus, log: log}
}

// CreateLeadInput holds the validated fields for a new lead.
type CreateLeadInput struct {
	Name          string
	Email         string
	Phone         string
	Source        string
	PriorityScore float64
}

// Create inserts a new lead into the pool and publishes LeadCreated.
func (s *Service) Create(ctx context.Context, input CreateLeadInput) (repository.Lead, error) {
	const op = "intake.Create"

	if input.PriorityScore < 0 {
		return repository.Lead{}, apperr.Validation("priority score must not be negative").WithOp(op)
	}

	params := repository.CreateLeadParams{
		ID:            uuid.New(),
		Name:          input.Name,
		PriorityScore: input.PriorityScore,
	}
	if input.Email != "" {
		params.Email = &input.Email
	}
	if input.Source != "" {
		params.Source = &input.Source
	}
	if input.Phone != "" {
		normalized := phone.NormalizeE164(input.Phone)
		params.Phone = &normalized
	}

	lead, err := s.repo.Create(ctx, params)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err).WithOp(op)
	}

	s.log.Info("lead created", "leadId", lead.ID, "priorityScore", lead.PriorityScore, "source", input.Source)

	if s.bus != nil {
		s.bus.Publish(ctx, events.LeadCreated{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        lead.ID,
			PriorityScore: lead.PriorityScore,
			Source:        input.Source,
		})
	}

	return lead, nil
}

// Get returns a single lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	const op = "intake.Get"

	lead, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Lead{}, apperr.NotFound("lead not found").WithOp(op)
		}
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

// UpdateStatusInput holds the fields for a lifecycle transition.
type UpdateStatusInput struct {
	ID              uuid.UUID
	ExpectedVersion int64
	Status          string
}

// UpdateStatus moves a lead along its lifecycle: contacted, qualified,
// protected, or closed. The write is conditional on the version the caller
// read; a stale version yields a conflict rather than overwriting newer state.
func (s *Service) UpdateStatus(ctx context.Context, input UpdateStatusInput) (repository.Lead, error) {
	const op = "intake.UpdateStatus"

	target := domain.Status(input.Status)
	if !domain.IsValid(target) {
		return repository.Lead{}, apperr.Validation(fmt.Sprintf("unknown status %q", input.Status)).WithOp(op)
	}
	// Claiming is the assignment engine's job: it picks the agent and stamps
	// assigned_at in one conditional write. This endpoint never sets those
	// fields, so an "assigned" target would violate the ownership rule.
	if target == domain.StatusAssigned {
		return repository.Lead{}, apperr.Validation("leads are assigned through the hopper, not by status update").WithOp(op)
	}

	current, err := s.Get(ctx, input.ID)
	if err != nil {
		return repository.Lead{}, err
	}

	from := domain.Status(current.Status)
	if !domain.CanTransition(from, target) {
		return repository.Lead{}, apperr.Conflict(
			fmt.Sprintf("cannot move lead from %s to %s", from, target)).WithOp(op)
	}

	lead, err := s.repo.UpdateStatus(ctx, repository.UpdateStatusParams{
		ID:              input.ID,
		ExpectedVersion: input.ExpectedVersion,
		Status:          input.Status,
		ClearAgent:      domain.ClearsAssignment(target),
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return repository.Lead{}, apperr.NotFound("lead not found").WithOp(op)
		case errors.Is(err, repository.ErrVersionConflict):
			return repository.Lead{}, apperr.Conflict("lead was modified concurrently, reload and retry").WithOp(op)
		default:
			return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp(op)
		}
	}

	return lead, nil
}
