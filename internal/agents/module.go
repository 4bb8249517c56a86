// Package agents manages agent accounts: onboarding, quotas, and lookup.
package agents

import (
	"hopper_backend/internal/agents/handler"
	"hopper_backend/internal/agents/repository"
	"hopper_backend/internal/agents/service"
	"hopper_backend/internal/events"
	apphttp "hopper_backend/internal/http"
	"hopper_backend/platform/config"
	"hopper_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the agents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	repo    *repository.Repository
}

// NewModule creates and initializes the agents module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg config.HopperConfig) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, val, cfg.GetDefaultAgentQuota())

	return &Module{
		handler: handler.New(svc),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "agents"
}

// Repository returns the agents repository for cross-context adapters.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts agent routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/agents"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
