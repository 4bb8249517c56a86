// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"hopper_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
	InMemoryBus = events.InMemoryBus
)

// Re-export platform functions
var (
	NewBaseEvent   = events.NewBaseEvent
	NewInMemoryBus = events.NewInMemoryBus
)

// =============================================================================
// Lead Domain Events
// =============================================================================

// LeadCreated is published when a new lead enters the pool.
type LeadCreated struct {
	BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	PriorityScore float64   `json:"priorityScore"`
	Source        string    `json:"source,omitempty"`
}

func (e LeadCreated) EventName() string { return "hopper.lead.created" }

// LeadsAssigned is published after an assignment run claims one or more leads.
type LeadsAssigned struct {
	BaseEvent
	AgentID uuid.UUID   `json:"agentId"`
	LeadIDs []uuid.UUID `json:"leadIds"`
}

func (e LeadsAssigned) EventName() string { return "hopper.leads.assigned" }

// LeadsReclaimed is published after a sweep returns stale leads to the pool.
type LeadsReclaimed struct {
	BaseEvent
	Reclaimed int       `json:"reclaimed"`
	SweptAt   time.Time `json:"sweptAt"`
}

func (e LeadsReclaimed) EventName() string { return "hopper.leads.reclaimed" }

// =============================================================================
// Agent Domain Events
// =============================================================================

// AgentOnboarded is published when a new agent account is created.
// The hopper subscribes and replenishes the agent's pool.
type AgentOnboarded struct {
	BaseEvent
	AgentID uuid.UUID `json:"agentId"`
	Role    string    `json:"role"`
	Quota   int       `json:"quota"`
}

func (e AgentOnboarded) EventName() string { return "agents.agent.onboarded" }
