package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	statusHealthy   = "healthy"
	statusUnhealthy = "unhealthy"
	statusDisabled  = "disabled"
)

type HealthHandler struct {
	store       repository.Pinger
	storeDriver string
	cache       repository.Pinger
	breaker     *circuit.Breaker
	environment string
	startedAt   time.Time
}

type HealthCheckResponse struct {
	Status      string                 `json:"status"`
	Version     string                 `json:"version"`
	Environment string                 `json:"environment"`
	Uptime      string                 `json:"uptime"`
	Timestamp   time.Time              `json:"timestamp"`
	Checks      map[string]HealthCheck `json:"checks"`
}

type HealthCheck struct {
	Status  string            `json:"status"`
	Message string            `json:"message,omitempty"`
	Breaker *circuit.Snapshot `json:"breaker,omitempty"`
}

// HealthOption wires optional backends into the health report
type HealthOption func(*HealthHandler)

// WithCache reports the Redis user cache and, when set, its breaker.
func WithCache(cache repository.Pinger, breaker *circuit.Breaker) HealthOption {
	return func(h *HealthHandler) {
		h.cache = cache
		h.breaker = breaker
	}
}

func NewHealthHandler(store repository.Pinger, storeDriver, environment string, opts ...HealthOption) *HealthHandler {
	h := &HealthHandler{
		store:       store,
		storeDriver: storeDriver,
		environment: environment,
		startedAt:   time.Now(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HealthCheck reports store connectivity. The cache is optional and never
// makes the service unhealthy.
func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	response := HealthCheckResponse{
		Status:      statusHealthy,
		Version:     constants.AppVersion,
		Environment: h.environment,
		Uptime:      time.Since(h.startedAt).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Checks:      make(map[string]HealthCheck),
	}

	storeStatus := h.checkStore(ctx)
	response.Checks["store"] = storeStatus
	if storeStatus.Status != statusHealthy {
		response.Status = statusUnhealthy
	}

	response.Checks["cache"] = h.checkCache(ctx)

	statusCode := http.StatusOK
	if response.Status == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	logger.GetLogger().Debug("Health check performed",
		zap.String("overall_status", response.Status),
		zap.Int("status_code", statusCode),
	)

	c.JSON(statusCode, response)
}

func (h *HealthHandler) checkStore(ctx context.Context) HealthCheck {
	if h.store == nil {
		return HealthCheck{Status: statusUnhealthy, Message: "Store not initialized"}
	}

	if err := h.store.Ping(ctx); err != nil {
		logger.GetLogger().Error("Store ping failed",
			zap.String("driver", h.storeDriver),
			zap.Error(err),
		)
		return HealthCheck{Status: statusUnhealthy, Message: h.storeDriver + " store is unreachable"}
	}

	return HealthCheck{Status: statusHealthy, Message: h.storeDriver + " store is reachable"}
}

func (h *HealthHandler) checkCache(ctx context.Context) HealthCheck {
	if h.cache == nil {
		return HealthCheck{Status: statusDisabled, Message: "Redis cache is disabled"}
	}

	check := HealthCheck{Status: statusHealthy, Message: "Redis connection is healthy"}
	if err := h.cache.Ping(ctx); err != nil {
		logger.GetLogger().Warn("Redis ping failed", zap.Error(err))
		check = HealthCheck{Status: statusUnhealthy, Message: "Redis ping failed"}
	}
	if h.breaker != nil {
		snapshot := h.breaker.Snapshot()
		check.Breaker = &snapshot
	}
	return check
}
