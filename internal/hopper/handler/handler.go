package handler

import (
	"context"
	"net/http"
	"time"

	"hopper_backend/internal/hopper/ports"
	"hopper_backend/internal/hopper/transport"
	"hopper_backend/platform/config"
	"hopper_backend/platform/httpkit"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const msgInvalidRequest = "invalid request"

// Service is the hopper facade surface the handler consumes.
type Service interface {
	Assign(ctx context.Context, agentID uuid.UUID, requested int) ([]ports.Lead, error)
	Replenish(ctx context.Context, agentID uuid.UUID) ([]ports.Lead, error)
	Sweep(ctx context.Context, now time.Time, window time.Duration) (int, error)
	Stats(ctx context.Context) (ports.PoolStats, error)
}

// Handler exposes the hopper facade over HTTP.
type Handler struct {
	svc Service
	cfg config.HopperConfig
}

// New creates a hopper handler.
func New(svc Service, cfg config.HopperConfig) *Handler {
	return &Handler{svc: svc, cfg: cfg}
}

// RegisterRoutes mounts the agent-facing hopper routes.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/assign", h.Assign)
	rg.POST("/replenish", h.Replenish)
	rg.GET("/stats", h.Stats)
}

// RegisterAdminRoutes mounts the admin-only routes.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/sweep", h.Sweep)
}

func (h *Handler) Assign(c *gin.Context) {
	var req transport.AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leads, err := h.svc.Assign(c.Request.Context(), agentID, req.Count)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAssignResponse(req.Count, leads))
}

func (h *Handler) Replenish(c *gin.Context) {
	var req transport.ReplenishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
		return
	}

	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	leads, err := h.svc.Replenish(c.Request.Context(), agentID)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToAssignResponse(len(leads), leads))
}

// Sweep is the manual admin trigger. It runs the same idempotent sweep as the
// scheduler, so overlapping the periodic job is harmless.
func (h *Handler) Sweep(c *gin.Context) {
	var req transport.SweepRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, err.Error())
			return
		}
	}

	window := h.cfg.GetRecycleWindow()
	if req.Window != "" {
		parsed, err := time.ParseDuration(req.Window)
		if err != nil || parsed <= 0 {
			httpkit.Error(c, http.StatusBadRequest, "invalid window duration", nil)
			return
		}
		window = parsed
	}

	now := time.Now().UTC()
	reclaimed, err := h.svc.Sweep(c.Request.Context(), now, window)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.SweepResponse{Reclaimed: reclaimed, SweptAt: now})
}

func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, transport.ToStatsResponse(stats))
}
