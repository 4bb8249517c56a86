// Package storetest provides in-memory implementations of the hopper ports
// for engine and service tests. The store mirrors the conditional-write
// semantics of the Postgres repository, including version checks.
package storetest

import (
	"context"
	"sort"
	"sync"
	"time"

	"hopper_backend/internal/hopper/domain"
	"hopper_backend/internal/hopper/ports"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-memory LeadStore.
type MemoryStore struct {
	mu    sync.Mutex
	leads map[uuid.UUID]ports.Lead

	// ClaimErr and ReleaseErr, when set, are returned by the corresponding
	// mutation to simulate storage failures mid-batch.
	ClaimErr   error
	ReleaseErr error

	// BeforeClaim and BeforeRelease, when set, run before the store lock is
	// taken for the corresponding mutation. Tests use them to interleave a
	// competing writer and force a lost race.
	BeforeClaim   func(id uuid.UUID)
	BeforeRelease func(id uuid.UUID)
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{leads: make(map[uuid.UUID]ports.Lead)}
}

// Put inserts or replaces a lead.
func (s *MemoryStore) Put(lead ports.Lead) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[lead.ID] = lead
}

// Seed inserts n unassigned leads with the given priority scores, creating
// them in score-slice order so creation time breaks ties deterministically.
func (s *MemoryStore) Seed(scores ...float64) []uuid.UUID {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 0, len(scores))
	for i, score := range scores {
		id := uuid.New()
		s.Put(ports.Lead{
			ID:            id,
			Status:        domain.StatusNew,
			PriorityScore: score,
			Version:       1,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
		})
		ids = append(ids, id)
	}
	return ids
}

func (s *MemoryStore) GetLead(_ context.Context, id uuid.UUID) (ports.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lead, ok := s.leads[id]
	if !ok {
		return ports.Lead{}, ports.ErrLeadNotFound
	}
	return lead, nil
}

func (s *MemoryStore) SelectPool(_ context.Context, limit int) ([]ports.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var pool []ports.Lead
	for _, lead := range s.leads {
		if lead.Status == domain.StatusNew {
			pool = append(pool, lead)
		}
	}

	sort.Slice(pool, func(i, j int) bool {
		if pool[i].PriorityScore != pool[j].PriorityScore {
			return pool[i].PriorityScore > pool[j].PriorityScore
		}
		return pool[i].CreatedAt.Before(pool[j].CreatedAt)
	})

	if len(pool) > limit {
		pool = pool[:limit]
	}
	return pool, nil
}

func (s *MemoryStore) SelectExpired(_ context.Context, cutoff time.Time, limit int) ([]ports.Lead, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []ports.Lead
	for _, lead := range s.leads {
		if !domain.IsRecyclable(lead.Status) || lead.AssignedAt == nil {
			continue
		}
		if lead.AssignedAt.Before(cutoff) {
			expired = append(expired, lead)
		}
	}

	sort.Slice(expired, func(i, j int) bool {
		return expired[i].AssignedAt.Before(*expired[j].AssignedAt)
	})

	if len(expired) > limit {
		expired = expired[:limit]
	}
	return expired, nil
}

func (s *MemoryStore) ClaimLead(_ context.Context, id uuid.UUID, expectedVersion int64, agentID uuid.UUID, quota int, at time.Time) (bool, error) {
	if s.BeforeClaim != nil {
		s.BeforeClaim(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ClaimErr != nil {
		return false, s.ClaimErr
	}

	lead, ok := s.leads[id]
	if !ok || lead.Version != expectedVersion || lead.Status != domain.StatusNew {
		return false, nil
	}
	if s.countHeldLocked(agentID) >= quota {
		return false, nil
	}

	assignedAt := at
	lead.Status = domain.StatusAssigned
	lead.AssignedAgentID = &agentID
	lead.AssignedAt = &assignedAt
	lead.Version++
	s.leads[id] = lead
	return true, nil
}

func (s *MemoryStore) ReleaseLead(_ context.Context, id uuid.UUID, expectedVersion int64) (bool, error) {
	if s.BeforeRelease != nil {
		s.BeforeRelease(id)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ReleaseErr != nil {
		return false, s.ReleaseErr
	}

	lead, ok := s.leads[id]
	if !ok || lead.Version != expectedVersion || !domain.IsRecyclable(lead.Status) {
		return false, nil
	}

	lead.Status = domain.StatusNew
	lead.AssignedAgentID = nil
	lead.AssignedAt = nil
	lead.Version++
	s.leads[id] = lead
	return true, nil
}

func (s *MemoryStore) CountHeld(_ context.Context, agentID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countHeldLocked(agentID), nil
}

func (s *MemoryStore) countHeldLocked(agentID uuid.UUID) int {
	count := 0
	for _, lead := range s.leads {
		if lead.AssignedAgentID != nil && *lead.AssignedAgentID == agentID && domain.ConsumesQuota(lead.Status) {
			count++
		}
	}
	return count
}

func (s *MemoryStore) PoolStats(_ context.Context) (ports.PoolStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats ports.PoolStats
	for _, lead := range s.leads {
		stats.Total++
		switch {
		case lead.Status == domain.StatusNew:
			stats.Available++
		case domain.IsActive(lead.Status):
			stats.Active++
		case lead.Status == domain.StatusProtected:
			stats.Protected++
		case domain.IsTerminal(lead.Status):
			stats.Closed++
		}
	}
	return stats, nil
}

// Snapshot returns a copy of all leads for assertions.
func (s *MemoryStore) Snapshot() []ports.Lead {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]ports.Lead, 0, len(s.leads))
	for _, lead := range s.leads {
		out = append(out, lead)
	}
	return out
}

var _ ports.LeadStore = (*MemoryStore)(nil)

// MemoryAgents is an in-memory AgentProvider.
type MemoryAgents struct {
	mu     sync.Mutex
	agents map[uuid.UUID]ports.Agent
}

// NewMemoryAgents creates an agent provider holding the given agents.
func NewMemoryAgents(agents ...ports.Agent) *MemoryAgents {
	m := &MemoryAgents{agents: make(map[uuid.UUID]ports.Agent)}
	for _, a := range agents {
		m.agents[a.ID] = a
	}
	return m
}

func (m *MemoryAgents) GetAgent(_ context.Context, id uuid.UUID) (ports.Agent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	agent, ok := m.agents[id]
	if !ok {
		return ports.Agent{}, ports.ErrAgentNotFound
	}
	return agent, nil
}

var _ ports.AgentProvider = (*MemoryAgents)(nil)
