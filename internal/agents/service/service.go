// Package service contains the business logic for agent accounts.
package service

import (
	"context"
	"errors"
	"fmt"

	"hopper_backend/internal/agents/repository"
	"hopper_backend/internal/events"
	"hopper_backend/platform/apperr"
	"hopper_backend/platform/validator"

	"github.com/google/uuid"
)

// Hopper domain rules live in the hopper context; the agents context only
// knows which roles exist and that agents carry a quota.
var validRoles = map[string]bool{"admin": true, "manager": true, "agent": true}

// Service provides agent account operations.
type Service struct {
	repo         *repository.Repository
	bus          events.Bus
	val          *validator.Validator
	defaultQuota int
}

// New creates an agents service.
func New(repo *repository.Repository, bus events.Bus, val *validator.Validator, defaultQuota int) *Service {
	return &Service{repo: repo, bus: bus, val: val, defaultQuota: defaultQuota}
}

// CreateAgentInput holds the validated fields for onboarding an account.
type CreateAgentInput struct {
	Name  string
	Email string
	Role  string
	// Quota of 0 means "use the configured default". Only meaningful for
	// the agent role; admins and managers never hold leads.
	Quota int
}

// Create onboards a new account and publishes AgentOnboarded. The hopper
// listens for that event and fills a fresh agent's pool.
func (s *Service) Create(ctx context.Context, input CreateAgentInput) (repository.Agent, error) {
	const op = "agents.Create"

	if !validRoles[input.Role] {
		return repository.Agent{}, apperr.Validation(fmt.Sprintf("unknown role %q", input.Role)).WithOp(op)
	}
	if err := s.val.Var(input.Email, "required,email"); err != nil {
		return repository.Agent{}, apperr.Validation("a valid email address is required").WithOp(op)
	}
	if input.Quota < 0 {
		return repository.Agent{}, apperr.Validation("quota must not be negative").WithOp(op)
	}

	quota := input.Quota
	if input.Role == "agent" && quota == 0 {
		quota = s.defaultQuota
	}
	if input.Role != "agent" {
		quota = 0
	}

	agent, err := s.repo.Create(ctx, repository.CreateAgentParams{
		ID:    uuid.New(),
		Name:  input.Name,
		Email: input.Email,
		Role:  input.Role,
		Quota: quota,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return repository.Agent{}, apperr.Conflict("an account with this email already exists").WithOp(op)
		}
		return repository.Agent{}, apperr.Wrap(apperr.KindInternal, "failed to create agent", err).WithOp(op)
	}

	if s.bus != nil {
		s.bus.Publish(ctx, events.AgentOnboarded{
			BaseEvent: events.NewBaseEvent(),
			AgentID:   agent.ID,
			Role:      agent.Role,
			Quota:     agent.Quota,
		})
	}

	return agent, nil
}

// Get returns a single agent account.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Agent, error) {
	const op = "agents.Get"

	agent, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return repository.Agent{}, apperr.NotFound("agent not found").WithOp(op)
		}
		return repository.Agent{}, apperr.Wrap(apperr.KindInternal, "failed to load agent", err).WithOp(op)
	}
	return agent, nil
}

// List returns all agent accounts.
func (s *Service) List(ctx context.Context) ([]repository.Agent, error) {
	const op = "agents.List"

	agents, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list agents", err).WithOp(op)
	}
	return agents, nil
}

// UpdateQuota changes an agent's quota. Lowering a quota below the number of
// leads currently held does not strip leads; the hopper simply stops
// assigning more until attrition brings the count back under the cap.
func (s *Service) UpdateQuota(ctx context.Context, id uuid.UUID, quota int) error {
	const op = "agents.UpdateQuota"

	if quota < 0 {
		return apperr.Validation("quota must not be negative").WithOp(op)
	}

	if err := s.repo.UpdateQuota(ctx, id, quota); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("agent not found").WithOp(op)
		}
		return apperr.Wrap(apperr.KindInternal, "failed to update quota", err).WithOp(op)
	}
	return nil
}
