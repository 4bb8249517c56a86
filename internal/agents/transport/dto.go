// Package transport defines the HTTP request and response shapes for agents.
package transport

import (
	"time"

	"hopper_backend/internal/agents/repository"
)

// CreateAgentRequest is the payload for onboarding an account.
type CreateAgentRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=120"`
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"required,oneof=admin manager agent"`
	Quota int    `json:"quota" binding:"omitempty,min=1,max=500"`
}

// UpdateQuotaRequest changes an agent's quota.
type UpdateQuotaRequest struct {
	Quota int `json:"quota" binding:"required,min=1,max=500"`
}

// AgentResponse is the API representation of an account.
type AgentResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Quota     int       `json:"quota"`
	CreatedAt time.Time `json:"createdAt"`
}

// ToAgentResponse maps a persistence agent to its API shape.
func ToAgentResponse(agent repository.Agent) AgentResponse {
	return AgentResponse{
		ID:        agent.ID.String(),
		Name:      agent.Name,
		Email:     agent.Email,
		Role:      agent.Role,
		Quota:     agent.Quota,
		CreatedAt: agent.CreatedAt,
	}
}

// ToAgentResponses maps a slice of agents.
func ToAgentResponses(agents []repository.Agent) []AgentResponse {
	out := make([]AgentResponse, 0, len(agents))
	for _, agent := range agents {
		out = append(out, ToAgentResponse(agent))
	}
	return out
}
