package recycle

import (
	"context"
	"testing"
	"time"

	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/storetest"

	"github.com/google/uuid"
)

const window = 168 * time.Hour

var sweepNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func putHeldLead(store *storetest.MemoryStore, status domain.Status, assignedAt time.Time) uuid.UUID {
	id := uuid.New()
	agentID := uuid.New()
	at := assignedAt
	store.Put(ports.Lead{
		ID:              id,
		Status:          status,
		AssignedAgentID: &agentID,
		AssignedAt:      &at,
		Version:         2,
		CreatedAt:       assignedAt.Add(-time.Hour),
	})
	return id
}

func TestSweepReclaimsOnlyStaleActiveLeads(t *testing.T) {
	store := storetest.NewMemoryStore()
	stale := sweepNow.Add(-window - time.Hour)
	fresh := sweepNow.Add(-time.Hour)

	staleAssigned := putHeldLead(store, domain.StatusAssigned, stale)
	staleContacted := putHeldLead(store, domain.StatusContacted, stale)
	staleQualified := putHeldLead(store, domain.StatusQualified, stale)
	freshAssigned := putHeldLead(store, domain.StatusAssigned, fresh)
	staleProtected := putHeldLead(store, domain.StatusProtected, stale)
	store.Seed(5)

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(context.Background(), sweepNow, window, 100)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if reclaimed != 3 {
		t.Fatalf("expected 3 reclaimed leads, got %d", reclaimed)
	}

	ctx := context.Background()
	for _, id := range []uuid.UUID{staleAssigned, staleContacted, staleQualified} {
		lead, err := store.GetLead(ctx, id)
		if err != nil {
			t.Fatalf("GetLead: %v", err)
		}
		if lead.Status != domain.StatusNew {
			t.Errorf("stale active lead should return to the pool, got status %s", lead.Status)
		}
		if lead.AssignedAgentID != nil || lead.AssignedAt != nil {
			t.Errorf("reclaimed lead should have ownership cleared")
		}
		if lead.Version != 3 {
			t.Errorf("reclaimed lead version = %d, want 3", lead.Version)
		}
	}

	if lead, _ := store.GetLead(ctx, freshAssigned); lead.Status != domain.StatusAssigned {
		t.Errorf("fresh assignment must not be swept, got status %s", lead.Status)
	}
	if lead, _ := store.GetLead(ctx, staleProtected); lead.Status != domain.StatusProtected {
		t.Errorf("protected lead must never be swept, got status %s", lead.Status)
	}
}

func TestSweepCutoffIsStrict(t *testing.T) {
	store := storetest.NewMemoryStore()
	putHeldLead(store, domain.StatusAssigned, sweepNow.Add(-window))

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(context.Background(), sweepNow, window, 100)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if reclaimed != 0 {
		t.Errorf("a lead assigned exactly at the cutoff is not yet expired, reclaimed %d", reclaimed)
	}
}

func TestSweepPaginatesThroughBatches(t *testing.T) {
	store := storetest.NewMemoryStore()
	stale := sweepNow.Add(-window - time.Hour)
	for i := 0; i < 5; i++ {
		putHeldLead(store, domain.StatusAssigned, stale.Add(time.Duration(i)*time.Minute))
	}

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(context.Background(), sweepNow, window, 2)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if reclaimed != 5 {
		t.Errorf("expected all 5 stale leads reclaimed across batches, got %d", reclaimed)
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	store := storetest.NewMemoryStore()
	putHeldLead(store, domain.StatusAssigned, sweepNow.Add(-window-time.Hour))
	sweeper := New(store, nil)
	ctx := context.Background()

	if reclaimed, err := sweeper.Sweep(ctx, sweepNow, window, 100); err != nil || reclaimed != 1 {
		t.Fatalf("first sweep: reclaimed=%d err=%v", reclaimed, err)
	}
	if reclaimed, err := sweeper.Sweep(ctx, sweepNow, window, 100); err != nil || reclaimed != 0 {
		t.Errorf("second sweep should find nothing: reclaimed=%d err=%v", reclaimed, err)
	}
}

func TestSweepSkipsLeadTouchedSinceScan(t *testing.T) {
	store := storetest.NewMemoryStore()
	id := putHeldLead(store, domain.StatusAssigned, sweepNow.Add(-window-time.Hour))
	ctx := context.Background()

	// The agent updates the lead between the scan and the release write.
	touched := false
	store.BeforeRelease = func(target uuid.UUID) {
		if touched || target != id {
			return
		}
		touched = true
		lead, err := store.GetLead(ctx, id)
		if err != nil {
			t.Fatalf("GetLead: %v", err)
		}
		lead.Status = domain.StatusQualified
		lead.Version++
		store.Put(lead)
	}

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(ctx, sweepNow, window, 100)
	if err != nil {
		t.Fatalf("Sweep returned error: %v", err)
	}
	if reclaimed != 0 {
		t.Errorf("a lead touched since the scan must be skipped, reclaimed %d", reclaimed)
	}

	lead, _ := store.GetLead(ctx, id)
	if lead.Status != domain.StatusQualified {
		t.Errorf("the newer write must stand, got status %s", lead.Status)
	}
}

func TestSweepReportsPartialProgressOnStoreFailure(t *testing.T) {
	store := storetest.NewMemoryStore()
	stale := sweepNow.Add(-window - time.Hour)
	first := putHeldLead(store, domain.StatusAssigned, stale)
	second := putHeldLead(store, domain.StatusAssigned, stale.Add(time.Minute))
	ctx := context.Background()

	// Storage fails after one reclaim has committed.
	releases := 0
	store.BeforeRelease = func(uuid.UUID) {
		releases++
		if releases == 2 {
			store.ReleaseErr = context.DeadlineExceeded
		}
	}

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(ctx, sweepNow, window, 100)
	if err == nil {
		t.Fatalf("expected the store failure to surface")
	}
	if reclaimed != 1 {
		t.Errorf("the committed reclaim must be counted, got %d", reclaimed)
	}

	if lead, _ := store.GetLead(ctx, first); lead.Status != domain.StatusNew {
		t.Errorf("the reclaim committed before the failure must stand, got status %s", lead.Status)
	}
	if lead, _ := store.GetLead(ctx, second); lead.Status != domain.StatusAssigned {
		t.Errorf("the lead hit by the failure must be untouched, got status %s", lead.Status)
	}
}

func TestSweepHonorsCancellation(t *testing.T) {
	store := storetest.NewMemoryStore()
	putHeldLead(store, domain.StatusAssigned, sweepNow.Add(-window-time.Hour))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sweeper := New(store, nil)
	reclaimed, err := sweeper.Sweep(ctx, sweepNow, window, 100)
	if err == nil {
		t.Fatalf("expected a context error from a cancelled sweep")
	}
	if reclaimed != 0 {
		t.Errorf("cancelled before the first batch, reclaimed should be 0, got %d", reclaimed)
	}
}
