// Package intake handles lead registration and lifecycle updates made by
// agents working their leads. Pool assignment and recycling live in the
// hopper context.
package intake

import (
	"hopper_backend/internal/events"
	apphttp "hopper_backend/internal/http"
	"hopper_backend/internal/intake/handler"
	"hopper_backend/internal/intake/repository"
	"hopper_backend/internal/intake/service"
	"hopper_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the intake bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
}

// NewModule creates and initializes the intake module.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, eventBus, log)

	return &Module{handler: handler.New(svc)}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "intake"
}

// RegisterRoutes mounts lead intake routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterRoutes(ctx.V1.Group("/leads"))
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
