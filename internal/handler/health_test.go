package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var (
	pingOK   = pingFunc(func(context.Context) error { return nil })
	pingDown = pingFunc(func(context.Context) error { return errors.New("connection refused") })
)

func serveHealth(t *testing.T, h *HealthHandler) (int, HealthCheckResponse) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/health", h.HealthCheck)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	var resp HealthCheckResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return w.Code, resp
}

func TestHealthCheck_StoreDown(t *testing.T) {
	code, resp := serveHealth(t, NewHealthHandler(pingDown, "mongo", "production"))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", resp.Status)
	assert.Equal(t, "mongo store is unreachable", resp.Checks["store"].Message)
	assert.NotContains(t, resp.Checks["store"].Message, "refused")
}

func TestHealthCheck_CacheDownIsNotFatal(t *testing.T) {
	breaker := circuit.NewBreaker("redis-user-cache", circuit.DefaultConfig(), zap.NewNop())
	code, resp := serveHealth(t, NewHealthHandler(pingOK, "postgres", "staging", WithCache(pingDown, breaker)))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "staging", resp.Environment)
	assert.NotEmpty(t, resp.Uptime)

	cache := resp.Checks["cache"]
	assert.Equal(t, "unhealthy", cache.Status)
	require.NotNil(t, cache.Breaker)
	assert.Equal(t, "redis-user-cache", cache.Breaker.Name)
	assert.Equal(t, "CLOSED", cache.Breaker.State)
}
