package ports

import (
	"context"
	"errors"

	"hopper_backend/internal/hopper/domain"

	"github.com/google/uuid"
)

// ErrAgentNotFound is returned when an agent account does not exist.
var ErrAgentNotFound = errors.New("agent not found")

// Agent is the hopper's view of an account. Only the role and quota matter
// here; profile and credential concerns stay in the agents context.
type Agent struct {
	ID    uuid.UUID
	Role  domain.Role
	Quota int
}

// AgentProvider resolves agent accounts. This is a consumer-driven interface;
// the agents context implements it through an adapter.
type AgentProvider interface {
	GetAgent(ctx context.Context, id uuid.UUID) (Agent, error)
}
