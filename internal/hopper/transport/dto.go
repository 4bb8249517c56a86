// Package transport defines request/response DTOs for the hopper HTTP surface.
package transport

import (
	"time"

	"hopper_backend/internal/hopper/ports"
)

// AssignRequest asks for leads to be assigned to an agent.
type AssignRequest struct {
	AgentID string `json:"agentId" binding:"required,uuid"`
	Count   int    `json:"count" binding:"required,min=1"`
}

// ReplenishRequest fills an agent's pool up to its quota.
type ReplenishRequest struct {
	AgentID string `json:"agentId" binding:"required,uuid"`
}

// SweepRequest triggers a manual recycling sweep. Window is optional and
// overrides the configured recycle window (Go duration string, e.g. "72h").
type SweepRequest struct {
	Window string `json:"window,omitempty" binding:"omitempty"`
}

// LeadResponse is the API shape of an assigned lead.
type LeadResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	AssignedAgentID *string    `json:"assignedAgentId,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	PriorityScore   float64    `json:"priorityScore"`
	Version         int64      `json:"version"`
	CreatedAt       time.Time  `json:"createdAt"`
}

// AssignResponse is the result of an assignment or replenish call.
type AssignResponse struct {
	Requested int            `json:"requested"`
	Claimed   int            `json:"claimed"`
	// LowInventory is set when the pool could not cover the request;
	// the caller decides whether to surface a warning.
	LowInventory bool           `json:"lowInventory"`
	Leads        []LeadResponse `json:"leads"`
}

// SweepResponse reports a completed sweep.
type SweepResponse struct {
	Reclaimed int       `json:"reclaimed"`
	SweptAt   time.Time `json:"sweptAt"`
}

// StatsResponse is the aggregate pool view for dashboards.
type StatsResponse struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Active    int `json:"active"`
	Protected int `json:"protected"`
	Closed    int `json:"closed"`
}

// ToLeadResponse maps a store lead to its API shape.
func ToLeadResponse(lead ports.Lead) LeadResponse {
	resp := LeadResponse{
		ID:            lead.ID.String(),
		Status:        string(lead.Status),
		AssignedAt:    lead.AssignedAt,
		PriorityScore: lead.PriorityScore,
		Version:       lead.Version,
		CreatedAt:     lead.CreatedAt,
	}
	if lead.AssignedAgentID != nil {
		agentID := lead.AssignedAgentID.String()
		resp.AssignedAgentID = &agentID
	}
	return resp
}

// ToAssignResponse maps an assignment result to its API shape.
func ToAssignResponse(requested int, leads []ports.Lead) AssignResponse {
	out := AssignResponse{
		Requested:    requested,
		Claimed:      len(leads),
		LowInventory: len(leads) < requested,
		Leads:        make([]LeadResponse, 0, len(leads)),
	}
	for _, lead := range leads {
		out.Leads = append(out.Leads, ToLeadResponse(lead))
	}
	return out
}

// ToStatsResponse maps pool stats to their API shape.
func ToStatsResponse(stats ports.PoolStats) StatsResponse {
	return StatsResponse{
		Total:     stats.Total,
		Available: stats.Available,
		Active:    stats.Active,
		Protected: stats.Protected,
		Closed:    stats.Closed,
	}
}
