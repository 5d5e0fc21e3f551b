package router

import (
	"context"
	"time"

	"github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/handler"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// apiPrefixes are the mount points of the public API. Both serve the same
// routes.
var apiPrefixes = []string{"/api/v1", "/api"}

type Router struct {
	authHandler   *handler.AuthHandler
	healthHandler *handler.HealthHandler

	authMw  *middleware.AuthMiddleware
	validMw *middleware.ValidationMiddleware
	metrics *metrics.Metrics
	Config  *config.Config
}

func NewRouter(
	auth *handler.AuthHandler,
	health *handler.HealthHandler,

	authMw *middleware.AuthMiddleware,
	validMw *middleware.ValidationMiddleware,
	metrics *metrics.Metrics,
	config *config.Config,
) *Router {
	return &Router{
		authHandler:   auth,
		healthHandler: health,

		authMw:  authMw,
		validMw: validMw,
		metrics: metrics,
		Config:  config,
	}
}

// SetupRoutes builds the engine. Background upkeep such as the rate limiter
// sweep stops when ctx is cancelled.
func (r *Router) SetupRoutes(ctx context.Context) *gin.Engine {
	router := gin.New()

	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware(r.Config.App.Debug && !r.Config.IsProduction()))
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.SecurityLoggingMiddleware())
	router.Use(middleware.CORS(r.Config.CORS.Origin))

	if r.metrics != nil {
		router.Use(middleware.MetricsMiddleware(r.metrics))
		router.GET("/metrics", gin.WrapH(r.metrics.Handler()))
	}

	router.GET("/health", r.healthHandler.HealthCheck)
	router.NoRoute(handler.NotFound)

	// both mounts share one limiter
	limiter := middleware.RateLimit(ctx, r.Config.RateLimit.Request, time.Duration(r.Config.RateLimit.Duration)*time.Second)
	timeout := middleware.RequestTimeoutMiddleware(r.Config.App.Timeout)

	for _, prefix := range apiPrefixes {
		api := router.Group(prefix)
		api.Use(limiter, timeout)
		{
			api.GET("/health", r.healthHandler.HealthCheck)

			r.authRoutes(api)
			r.adminRoutes(api)
		}
	}

	return router
}
