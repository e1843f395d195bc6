package handlers

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger checks connectivity to a backing service.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler reports the status of the service and its dependencies.
type HealthHandler struct {
	redis  *redis.Client
	db     Pinger
	logger *zap.Logger
}

// NewHealthHandler creates a new health handler. Either dependency may
// be nil, in which case it is reported as skipped.
func NewHealthHandler(redisClient *redis.Client, db Pinger, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		redis:  redisClient,
		db:     db,
		logger: logger,
	}
}

// HealthRequest is the input for a health check.
type HealthRequest struct{}

// HealthResponse reports per-dependency status.
type HealthResponse struct {
	Status int
	Body   struct {
		Status   string `json:"status" enum:"ok,degraded" doc:"Overall service status"`
		Redis    string `json:"redis"`
		Postgres string `json:"postgres"`
	}
}

// Check pings redis and postgres and reports degraded with a 503 when
// either fails.
func (h *HealthHandler) Check(ctx context.Context, _ *HealthRequest) (*HealthResponse, error) {
	resp := &HealthResponse{Status: 200}
	resp.Body.Status = "ok"
	resp.Body.Redis = "ok"
	resp.Body.Postgres = "ok"

	if h.redis == nil {
		resp.Body.Redis = "skipped"
	} else if err := h.redis.Ping(ctx).Err(); err != nil {
		h.logger.Warn("redis health check failed", zap.Error(err))
		resp.Body.Redis = "unreachable"
		resp.Body.Status = "degraded"
		resp.Status = 503
	}

	if h.db == nil {
		resp.Body.Postgres = "skipped"
	} else if err := h.db.Ping(ctx); err != nil {
		h.logger.Warn("postgres health check failed", zap.Error(err))
		resp.Body.Postgres = "unreachable"
		resp.Body.Status = "degraded"
		resp.Status = 503
	}

	return resp, nil
}
