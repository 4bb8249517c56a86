// Package transport defines the HTTP request and response shapes for intake.
package transport

import (
	"time"

	"hopper_backend/internal/intake/repository"
)

// CreateLeadRequest is the payload for registering a new lead.
type CreateLeadRequest struct {
	Name          string  `json:"name" binding:"required,min=2,max=200"`
	Email         string  `json:"email" binding:"omitempty,email"`
	Phone         string  `json:"phone" binding:"omitempty,max=32"`
	Source        string  `json:"source" binding:"omitempty,max=100"`
	PriorityScore float64 `json:"priorityScore" binding:"omitempty,min=0"`
}

// UpdateStatusRequest moves a lead along its lifecycle. Version is the value
// the client last read; a stale version yields 409.
type UpdateStatusRequest struct {
	Status  string `json:"status" binding:"required"`
	Version int64  `json:"version" binding:"required,min=1"`
}

// LeadResponse is the API representation of a lead.
type LeadResponse struct {
	ID              string     `json:"id"`
	Status          string     `json:"status"`
	AssignedAgentID *string    `json:"assignedAgentId,omitempty"`
	AssignedAt      *time.Time `json:"assignedAt,omitempty"`
	PriorityScore   float64    `json:"priorityScore"`
	Version         int64      `json:"version"`
	Name            string     `json:"name"`
	Email           *string    `json:"email,omitempty"`
	Phone           *string    `json:"phone,omitempty"`
	Source          *string    `json:"source,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

// ToLeadResponse maps a persistence lead to its API shape.
func ToLeadResponse(lead repository.Lead) LeadResponse {
	resp := LeadResponse{
		ID:            lead.ID.String(),
		Status:        lead.Status,
		AssignedAt:    lead.AssignedAt,
		PriorityScore: lead.PriorityScore,
		Version:       lead.Version,
		Name:          lead.Name,
		Email:         lead.Email,
		Phone:         lead.Phone,
		Source:        lead.Source,
		CreatedAt:     lead.CreatedAt,
		UpdatedAt:     lead.UpdatedAt,
	}
	if lead.AssignedAgentID != nil {
		id := lead.AssignedAgentID.String()
		resp.AssignedAgentID = &id
	}
	return resp
}
