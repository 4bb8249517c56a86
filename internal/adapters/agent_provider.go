// Package adapters wires bounded contexts together by implementing one
// context's consumer-driven interfaces on top of another context's services.
package adapters

import (
	"context"
	"errors"

	"hopper_backend/internal/agents/repository"
	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"

	"github.com/google/uuid"
)

// AgentProviderAdapter exposes the agents repository as a hopper AgentProvider.
type AgentProviderAdapter struct {
	repo *repository.Repository
}

// NewAgentProviderAdapter creates the adapter.
func NewAgentProviderAdapter(repo *repository.Repository) *AgentProviderAdapter {
	return &AgentProviderAdapter{repo: repo}
}

// GetAgent resolves an account into the hopper's view of an agent.
func (a *AgentProviderAdapter) GetAgent(ctx context.Context, id uuid.UUID) (ports.Agent, error) {
	agent, err := a.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ports.Agent{}, ports.ErrAgentNotFound
		}
		return ports.Agent{}, err
	}

	return ports.Agent{
		ID:    agent.ID,
		Role:  domain.Role(agent.Role),
		Quota: agent.Quota,
	}, nil
}

var _ ports.AgentProvider = (*AgentProviderAdapter)(nil)
