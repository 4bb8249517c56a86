package hopper

import (
	"context"
	"sync"
	"testing"
	"time"

	"hopper_backend/internal/events"
	"hopper_backend/internal/hopper/assign"
	"hopper_backend/internal/hopper/capacity"
	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/recycle"
	"hopper_backend/internal/hopper/storetest"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// recordingBus captures published events synchronously.
type recordingBus struct {
	mu     sync.Mutex
	events []events.Event
}

func (b *recordingBus) Publish(_ context.Context, event events.Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(string, events.Handler) {}

func (b *recordingBus) published() []events.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]events.Event(nil), b.events...)
}

func newTestService(store *storetest.MemoryStore, agents ports.AgentProvider, bus events.Bus) *Service {
	tracker := capacity.New(store, agents)
	engine := assign.New(store, tracker, nil)
	sweeper := recycle.New(store, nil)
	return NewService(engine, sweeper, tracker, store, bus, 100)
}

func TestPoolDrainAndRecycleRoundTrip(t *testing.T) {
	store := storetest.NewMemoryStore()
	scores := make([]float64, 25)
	for i := range scores {
		scores[i] = float64(i)
	}
	store.Seed(scores...)

	agentA := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 20}
	agentB := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 20}
	svc := newTestService(store, storetest.NewMemoryAgents(agentA, agentB), &recordingBus{})
	ctx := context.Background()

	claimedA, err := svc.Assign(ctx, agentA.ID, 20)
	if err != nil {
		t.Fatalf("Assign A: %v", err)
	}
	if len(claimedA) != 20 {
		t.Fatalf("agent A claimed %d, want 20", len(claimedA))
	}

	// Only 5 leads remain for the second agent.
	claimedB, err := svc.Assign(ctx, agentB.ID, 20)
	if err != nil {
		t.Fatalf("Assign B: %v", err)
	}
	if len(claimedB) != 5 {
		t.Fatalf("agent B claimed %d, want 5", len(claimedB))
	}

	stats, err := svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Available != 0 || stats.Active != 25 {
		t.Errorf("stats after drain = %+v, want 0 available and 25 active", stats)
	}

	// A week later every assignment has gone stale.
	window := 168 * time.Hour
	reclaimed, err := svc.Sweep(ctx, time.Now().UTC().Add(window+time.Hour), window)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if reclaimed != 25 {
		t.Fatalf("sweep reclaimed %d, want 25", reclaimed)
	}

	stats, err = svc.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Available != 25 || stats.Active != 0 {
		t.Errorf("stats after sweep = %+v, want 25 available and 0 active", stats)
	}
}

func TestReplenishFillsUpToQuota(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1, 2, 3, 4, 5, 6)
	agent := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 4}
	svc := newTestService(store, storetest.NewMemoryAgents(agent), &recordingBus{})
	ctx := context.Background()

	claimed, err := svc.Replenish(ctx, agent.ID)
	if err != nil {
		t.Fatalf("Replenish: %v", err)
	}
	if len(claimed) != 4 {
		t.Fatalf("replenish claimed %d, want quota of 4", len(claimed))
	}

	// Already at capacity: an empty batch, not an error.
	claimed, err = svc.Replenish(ctx, agent.ID)
	if err != nil {
		t.Fatalf("Replenish at capacity: %v", err)
	}
	if len(claimed) != 0 {
		t.Errorf("replenish at capacity claimed %d, want 0", len(claimed))
	}
}

func TestServicePublishesDomainEvents(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1, 2)
	agent := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 10}
	bus := &recordingBus{}
	svc := newTestService(store, storetest.NewMemoryAgents(agent), bus)
	ctx := context.Background()

	if _, err := svc.Assign(ctx, agent.ID, 2); err != nil {
		t.Fatalf("Assign: %v", err)
	}

	window := time.Hour
	if _, err := svc.Sweep(ctx, time.Now().UTC().Add(2*time.Hour), window); err != nil {
		t.Fatalf("Sweep: %v", err)
	}

	published := bus.published()
	if len(published) != 2 {
		t.Fatalf("published %d events, want 2", len(published))
	}

	assigned, ok := published[0].(events.LeadsAssigned)
	if !ok {
		t.Fatalf("first event is %T, want LeadsAssigned", published[0])
	}
	if assigned.AgentID != agent.ID || len(assigned.LeadIDs) != 2 {
		t.Errorf("LeadsAssigned = %+v, want 2 leads for the agent", assigned)
	}

	reclaimedEvt, ok := published[1].(events.LeadsReclaimed)
	if !ok {
		t.Fatalf("second event is %T, want LeadsReclaimed", published[1])
	}
	if reclaimedEvt.Reclaimed != 2 {
		t.Errorf("LeadsReclaimed.Reclaimed = %d, want 2", reclaimedEvt.Reclaimed)
	}
}

func TestSweepWithoutReclaimsPublishesNothing(t *testing.T) {
	store := storetest.NewMemoryStore()
	store.Seed(1)
	bus := &recordingBus{}
	svc := newTestService(store, storetest.NewMemoryAgents(), bus)

	if _, err := svc.Sweep(context.Background(), time.Now().UTC(), time.Hour); err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if len(bus.published()) != 0 {
		t.Errorf("an empty sweep must not publish events")
	}
}

func TestAssignReclaimAssignPreservesIdentity(t *testing.T) {
	store := storetest.NewMemoryStore()
	ids := store.Seed(42.5)
	agentA := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 5}
	agentB := ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 5}
	svc := newTestService(store, storetest.NewMemoryAgents(agentA, agentB), &recordingBus{})
	ctx := context.Background()

	if _, err := svc.Assign(ctx, agentA.ID, 1); err != nil {
		t.Fatalf("first Assign: %v", err)
	}

	window := time.Hour
	if reclaimed, err := svc.Sweep(ctx, time.Now().UTC().Add(2*time.Hour), window); err != nil || reclaimed != 1 {
		t.Fatalf("Sweep: reclaimed=%d err=%v", reclaimed, err)
	}

	claimed, err := svc.Assign(ctx, agentB.ID, 1)
	if err != nil {
		t.Fatalf("second Assign: %v", err)
	}
	if len(claimed) != 1 {
		t.Fatalf("reclaimed lead should be assignable again, claimed %d", len(claimed))
	}

	lead := claimed[0]
	if lead.ID != ids[0] {
		t.Errorf("lead identity changed across the cycle")
	}
	if lead.PriorityScore != 42.5 {
		t.Errorf("priority score changed across the cycle: %v", lead.PriorityScore)
	}
	if lead.Version != 4 {
		t.Errorf("version = %d, want 4 after claim, reclaim, claim", lead.Version)
	}
	if lead.AssignedAgentID == nil || *lead.AssignedAgentID != agentB.ID {
		t.Errorf("lead should now belong to the second agent")
	}
}

func TestConcurrentAssignNeverDoubleOwns(t *testing.T) {
	store := storetest.NewMemoryStore()
	scores := make([]float64, 30)
	for i := range scores {
		scores[i] = float64(i % 7)
	}
	store.Seed(scores...)

	agents := make([]ports.Agent, 4)
	for i := range agents {
		agents[i] = ports.Agent{ID: uuid.New(), Role: domain.RoleAgent, Quota: 10}
	}
	svc := newTestService(store, storetest.NewMemoryAgents(agents...), &recordingBus{})

	var g errgroup.Group
	results := make([][]ports.Lead, len(agents))
	for i, agent := range agents {
		g.Go(func() error {
			claimed, err := svc.Assign(context.Background(), agent.ID, 10)
			results[i] = claimed
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent Assign failed: %v", err)
	}

	seen := make(map[uuid.UUID]uuid.UUID)
	total := 0
	for i, claimed := range results {
		if len(claimed) > agents[i].Quota {
			t.Errorf("agent %d claimed %d leads over quota %d", i, len(claimed), agents[i].Quota)
		}
		total += len(claimed)
		for _, lead := range claimed {
			if owner, dup := seen[lead.ID]; dup {
				t.Fatalf("lead %s claimed by two agents (%s and %s)", lead.ID, owner, agents[i].ID)
			}
			seen[lead.ID] = agents[i].ID
		}
	}
	if total > 30 {
		t.Errorf("claimed %d leads from a pool of 30", total)
	}

	// The store must agree with the returned views.
	for _, lead := range store.Snapshot() {
		if lead.Status != domain.StatusAssigned {
			continue
		}
		owner, ok := seen[lead.ID]
		if !ok {
			t.Errorf("store shows lead %s assigned but no caller claimed it", lead.ID)
			continue
		}
		if lead.AssignedAgentID == nil || *lead.AssignedAgentID != owner {
			t.Errorf("store owner and returned owner disagree for lead %s", lead.ID)
		}
	}
}
