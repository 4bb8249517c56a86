// This file defines the module that encapsulates hopper setup and route registration.
package hopper

import (
	"context"

	"hopper_backend/internal/events"
	"hopper_backend/internal/hopper/assign"
	"hopper_backend/internal/hopper/capacity"
	"hopper_backend/internal/hopper/handler"
	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/recycle"
	"hopper_backend/internal/hopper/repository"
	apphttp "hopper_backend/internal/http"
	"hopper_backend/platform/config"
	"hopper_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// ModuleConfig combines the config interfaces the hopper module needs.
type ModuleConfig interface {
	config.HopperConfig
}

// Module is the hopper bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *Service
	store   ports.LeadStore
}

// NewModule creates and initializes the hopper module with all its dependencies.
// The agents parameter is the cross-context provider adapter; the hopper never
// reaches into the agents context directly.
func NewModule(pool *pgxpool.Pool, agents ports.AgentProvider, eventBus events.Bus, cfg ModuleConfig, log *logger.Logger) *Module {
	store := repository.New(pool)
	tracker := capacity.New(store, agents)
	engine := assign.New(store, tracker, log)
	sweeper := recycle.New(store, log)
	svc := NewService(engine, sweeper, tracker, store, eventBus, cfg.GetSweepBatchSize())

	// Replenish a freshly onboarded agent's pool. Admin and manager accounts
	// do not carry quotas; the capacity tracker rejects them, so filter here.
	eventBus.Subscribe(events.AgentOnboarded{}.EventName(), events.HandlerFunc(func(ctx context.Context, event events.Event) error {
		e, ok := event.(events.AgentOnboarded)
		if !ok {
			return nil
		}
		if e.Role != "agent" {
			return nil
		}

		if _, err := svc.Replenish(ctx, e.AgentID); err != nil {
			log.Error("replenish on onboarding failed", "error", err, "agentId", e.AgentID)
		}
		return nil
	}))

	return &Module{
		handler: handler.New(svc, cfg),
		service: svc,
		store:   store,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "hopper"
}

// Service returns the hopper facade for external use (scheduler worker).
func (m *Module) Service() *Service {
	return m.service
}

// Store returns the lead store for modules that share the leads table.
func (m *Module) Store() ports.LeadStore {
	return m.store
}

// RegisterRoutes mounts hopper routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/hopper"))

	adminGroup := ctx.Admin.Group("/hopper")
	adminGroup.Use(ctx.SweepRateLimiter.RateLimit())
	m.handler.RegisterAdminRoutes(adminGroup)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
