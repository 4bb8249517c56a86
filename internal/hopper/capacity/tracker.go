// Package capacity computes per-agent headroom against quota.
// Counts are recomputed from the lead set on every call rather than kept in a
// separate ledger, so they cannot drift from the records they describe.
package capacity

import (
	"context"

	"hopper_backend/internal/hopper/ports"
	"hopper_backend/platform/apperr"

	"github.com/google/uuid"
)

// Tracker resolves an agent and computes its remaining assignment capacity.
type Tracker struct {
	store  ports.LeadStore
	agents ports.AgentProvider
}

// New creates a capacity tracker.
func New(store ports.LeadStore, agents ports.AgentProvider) *Tracker {
	return &Tracker{store: store, agents: agents}
}

// Resolve returns the agent account, failing fast when the account does not
// exist or does not carry a quota.
func (t *Tracker) Resolve(ctx context.Context, agentID uuid.UUID) (ports.Agent, error) {
	agent, err := t.agents.GetAgent(ctx, agentID)
	if err != nil {
		if err == ports.ErrAgentNotFound {
			return ports.Agent{}, apperr.NotFound("agent not found")
		}
		return ports.Agent{}, err
	}

	if !agent.Role.IsAssignable() {
		return ports.Agent{}, apperr.Validation("account is not an assignable agent")
	}

	return agent, nil
}

// Available returns the agent and the number of additional leads it may hold.
// The result can be negative when a quota was lowered below the current held
// count; callers treat anything <= 0 as "at capacity".
func (t *Tracker) Available(ctx context.Context, agentID uuid.UUID) (ports.Agent, int, error) {
	agent, err := t.Resolve(ctx, agentID)
	if err != nil {
		return ports.Agent{}, 0, err
	}

	held, err := t.store.CountHeld(ctx, agentID)
	if err != nil {
		return ports.Agent{}, 0, err
	}

	return agent, agent.Quota - held, nil
}
