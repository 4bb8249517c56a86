package capacity

import (
	"context"
	"testing"
	"time"

	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/storetest"
	"hopper_backend/platform/apperr"

	"github.com/google/uuid"
)

func putAgentLead(store *storetest.MemoryStore, agentID uuid.UUID, status domain.Status) {
	assignedAt := time.Now().UTC().Add(-time.Hour)
	store.Put(ports.Lead{
		ID:              uuid.New(),
		Status:          status,
		AssignedAgentID: &agentID,
		AssignedAt:      &assignedAt,
		Version:         2,
		CreatedAt:       assignedAt,
	})
}

func TestResolveRejectsUnknownAndUnassignableAccounts(t *testing.T) {
	agent := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 10}
	admin := ports.Agent{ID: uuid.New(), Role: domain.RoleAdmin}
	tracker := New(storetest.NewMemoryStore(), storetest.NewMemoryAgents(agent, admin))
	ctx := context.Background()

	if _, err := tracker.Resolve(ctx, agent.ID); err != nil {
		t.Errorf("assignable agent should resolve, got %v", err)
	}
	if _, err := tracker.Resolve(ctx, uuid.New()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown account should yield not found, got %v", err)
	}
	if _, err := tracker.Resolve(ctx, admin.ID); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("admin account should fail validation, got %v", err)
	}
}

func TestAvailableCountsHeldLeadsAgainstQuota(t *testing.T) {
	store := storetest.NewMemoryStore()
	agent := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 5}
	tracker := New(store, storetest.NewMemoryAgents(agent))
	ctx := context.Background()

	putAgentLead(store, agent.ID, domain.StatusAssigned)
	putAgentLead(store, agent.ID, domain.StatusContacted)
	putAgentLead(store, agent.ID, domain.StatusProtected)
	// Closed leads free their slot.
	putAgentLead(store, agent.ID, domain.StatusClosedWon)

	_, available, err := tracker.Available(ctx, agent.ID)
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if available != 2 {
		t.Errorf("available = %d, want 2 (quota 5 minus 3 held)", available)
	}
}

func TestAvailableGoesNegativeAfterQuotaCut(t *testing.T) {
	store := storetest.NewMemoryStore()
	agent := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 1}
	tracker := New(store, storetest.NewMemoryAgents(agent))

	putAgentLead(store, agent.ID, domain.StatusAssigned)
	putAgentLead(store, agent.ID, domain.StatusQualified)

	_, available, err := tracker.Available(context.Background(), agent.ID)
	if err != nil {
		t.Fatalf("Available returned error: %v", err)
	}
	if available != -1 {
		t.Errorf("available = %d, want -1 when held exceeds quota", available)
	}
}
