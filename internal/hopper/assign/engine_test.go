package assign

import (
	"context"
	"testing"
	"time"

	"hopper_backend/internal/hopper/capacity"
	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/storetest"
	"hopper_backend/platform/apperr"

	"github.com/google/uuid"
)

func newTestEngine(store *storetest.MemoryStore, agents ports.AgentProvider) *Engine {
	return New(store, capacity.New(store, agents), nil)
}

func agentAccount(quota int) ports.Agent {
	return ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: quota}
}

func TestAssignClaimsByPriority(t *testing.T) {
	store := storetest.NewMemoryStore()
	ids := store.Seed(10, 50, 30)
	agent := agentAccount(25)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))

	claimed, err := engine.Assign(context.Background(), agent.ID, 2)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected 2 claimed leads, got %d", len(claimed))
	}
	if claimed[0].ID != ids[1] || claimed[1].ID != ids[2] {
		t.Errorf("expected leads claimed in priority order [50, 30], got scores [%v, %v]",
			claimed[0].PriorityScore, claimed[1].PriorityScore)
	}

	for _, lead := range claimed {
		if lead.Status != domain.StatusAssigned {
			t.Errorf("claimed lead has status %s, want assigned", lead.Status)
		}
		if lead.AssignedAgentID == nil || *lead.AssignedAgentID != agent.ID {
			t.Errorf("claimed lead not owned by requesting agent")
		}
		if lead.Version != 2 {
			t.Errorf("claimed lead version = %d, want 2", lead.Version)
		}
	}
}

func TestAssignTieBrokenByCreationTime(t *testing.T) {
	store := storetest.NewMemoryStore()
	ids := store.Seed(40, 40)
	agent := agentAccount(25)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))

	claimed, err := engine.Assign(context.Background(), agent.ID, 1)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 1 || claimed[0].ID != ids[0] {
		t.Errorf("expected the earlier created lead to win the tie")
	}
}

func TestAssignBoundedByQuota(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1, 2, 3, 4, 5)
	agent := agentAccount(3)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))
	ctx := context.Background()

	// First batch fills two of three slots.
	claimed, err := engine.Assign(ctx, agent.ID, 2)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected 2 claimed leads, got %d", len(claimed))
	}

	// A request for five more yields only the single remaining slot.
	claimed, err = engine.Assign(ctx, agent.ID, 5)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("expected quota to cap the batch at 1, got %d", len(claimed))
	}

	// At capacity: an empty batch, not an error.
	claimed, err = engine.Assign(ctx, agent.ID, 1)
	if err != nil {
		t.Fatalf("Assign at capacity returned error: %v", err)
	}
	if len(claimed) != 0 {
		t.Errorf("expected empty batch at capacity, got %d leads", len(claimed))
	}
}

func TestAssignProtectedLeadsConsumeQuota(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1, 2, 3)
	agent := agentAccount(2)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))

	// One protected lead already held by the agent.
	assignedAt := time.Now().UTC().Add(-time.Hour)
	store.Put(ports.Lead{
		ID:              uuid.New(),
		Status:          domain.StatusProtected,
		AssignedAgentID: &agent.ID,
		AssignedAt:      &assignedAt,
		Version:         3,
		CreatedAt:       assignedAt,
	})

	claimed, err := engine.Assign(context.Background(), agent.ID, 5)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 1 {
		t.Errorf("expected protected lead to occupy a slot, got %d claimed", len(claimed))
	}
}

func TestAssignShortPool(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(7, 8)
	agent := agentAccount(25)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))

	claimed, err := engine.Assign(context.Background(), agent.ID, 10)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 2 {
		t.Errorf("expected the whole pool when it is smaller than the request, got %d", len(claimed))
	}
}

func TestAssignSkipsLeadLostToConcurrentClaim(t *testing.T) {
	store := storetest.NewMemoryStore()
	ids := store.Seed(50, 30, 10)
	agent := agentAccount(25)
	rival := agentAccount(25)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent, rival))
	ctx := context.Background()

	// The rival wins the top lead between selection and the claim write.
	stolen := false
	store.BeforeClaim = func(id uuid.UUID) {
		if stolen || id != ids[0] {
			return
		}
		stolen = true
		if ok, _ := store.ClaimLead(ctx, id, 1, rival.ID, rival.Quota, time.Now().UTC()); !ok {
			t.Fatalf("rival claim did not succeed")
		}
	}

	claimed, err := engine.Assign(ctx, agent.ID, 3)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 2 {
		t.Fatalf("expected the lost lead to be skipped, got %d claimed", len(claimed))
	}
	for _, lead := range claimed {
		if lead.ID == ids[0] {
			t.Errorf("lead lost to a concurrent claim must not appear in the result")
		}
	}

	top, err := store.GetLead(ctx, ids[0])
	if err != nil {
		t.Fatalf("GetLead: %v", err)
	}
	if top.AssignedAgentID == nil || *top.AssignedAgentID != rival.ID {
		t.Errorf("contested lead should remain with the rival agent")
	}
}

// poolInterceptor runs a callback once before the first pool selection,
// after the caller's capacity check has already happened.
type poolInterceptor struct {
	*storetest.MemoryStore
	before func()
}

func (s *poolInterceptor) SelectPool(ctx context.Context, limit int) ([]ports.Lead, error) {
	if s.before != nil {
		interleave := s.before
		s.before = nil
		interleave()
	}
	return s.MemoryStore.SelectPool(ctx, limit)
}

func TestAssignConcurrentSameAgentNeverExceedsQuota(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1, 2, 3, 4)
	agent := agentAccount(2)
	agents := storetest.NewMemoryAgents(agent)
	ctx := context.Background()

	// A second request for the same agent lands between this run's capacity
	// check and its pool selection, filling the quota first.
	wrapped := &poolInterceptor{MemoryStore: store}
	wrapped.before = func() {
		rivalRun := newTestEngine(store, agents)
		claimed, err := rivalRun.Assign(ctx, agent.ID, 2)
		if err != nil || len(claimed) != 2 {
			t.Fatalf("interleaved run: claimed=%d err=%v", len(claimed), err)
		}
	}

	engine := New(wrapped, capacity.New(wrapped, agents), nil)
	claimed, err := engine.Assign(ctx, agent.ID, 2)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 0 {
		t.Errorf("quota already filled by the interleaved run, claimed %d more", len(claimed))
	}

	held, err := store.CountHeld(ctx, agent.ID)
	if err != nil {
		t.Fatalf("CountHeld: %v", err)
	}
	if held != 2 {
		t.Errorf("agent holds %d leads with quota 2", held)
	}
}

func TestAssignReturnsPartialProgressOnStoreFailure(t *testing.T) {
	store := storetest.NewMemoryStore()
	ids := store.Seed(20, 10)
	agent := agentAccount(5)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent))
	ctx := context.Background()

	// Storage fails after the first claim has committed.
	claims := 0
	store.BeforeClaim = func(uuid.UUID) {
		claims++
		if claims == 2 {
			store.ClaimErr = context.DeadlineExceeded
		}
	}

	claimed, err := engine.Assign(ctx, agent.ID, 2)
	if err == nil {
		t.Fatalf("expected the store failure to surface")
	}
	if len(claimed) != 1 || claimed[0].ID != ids[0] {
		t.Fatalf("the committed claim must be returned alongside the error, got %d leads", len(claimed))
	}

	if lead, _ := store.GetLead(ctx, ids[0]); lead.Status != domain.StatusAssigned {
		t.Errorf("the claim committed before the failure must stand, got status %s", lead.Status)
	}
	if lead, _ := store.GetLead(ctx, ids[1]); lead.Status != domain.StatusNew {
		t.Errorf("the lead hit by the failure must stay in the pool, got status %s", lead.Status)
	}
}

func TestAssignRejectsInvalidRequests(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1)
	agent := agentAccount(5)
	manager := ports.Agent{ID: uuid.New(), Role: domain.RoleManager, Quota: 0}
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent, manager))
	ctx := context.Background()

	if _, err := engine.Assign(ctx, agent.ID, 0); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("requested=0 should fail validation, got %v", err)
	}
	if _, err := engine.Assign(ctx, uuid.New(), 1); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("unknown agent should yield not found, got %v", err)
	}
	if _, err := engine.Assign(ctx, manager.ID, 1); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("non-agent role should fail validation, got %v", err)
	}
}

func TestAssignUsesInjectedClock(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1)
	agent := agentAccount(5)
	frozen := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	engine := newTestEngine(store, storetest.NewMemoryAgents(agent)).WithClock(func() time.Time { return frozen })

	claimed, err := engine.Assign(context.Background(), agent.ID, 1)
	if err != nil {
		t.Fatalf("Assign returned error: %v", err)
	}
	if len(claimed) != 1 || claimed[0].AssignedAt == nil || !claimed[0].AssignedAt.Equal(frozen) {
		t.Errorf("assigned_at should come from the injected clock")
	}
}
