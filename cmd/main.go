package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/Payphone-Digital/auth-service/config"
	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/handler"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/repository"
	"github.com/Payphone-Digital/auth-service/internal/router"
	"github.com/Payphone-Digital/auth-service/internal/service"
	"github.com/Payphone-Digital/auth-service/pkg/circuit"
	"github.com/Payphone-Digital/auth-service/pkg/database"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/metrics"
	"github.com/Payphone-Digital/auth-service/pkg/redis"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	shutdownTimeout = 10 * time.Second
	purgeInterval   = time.Hour
)

// stores bundles the selected persistence backend
type stores struct {
	users  repository.UserStore
	tokens repository.TokenStore
	pinger repository.Pinger
	close  func()
}

func openStores(ctx context.Context, config *configs.Config) (*stores, error) {
	switch config.Store.Driver {
	case constants.StoreMongo:
		m, err := database.NewMongo(config.Mongo)
		if err != nil {
			return nil, err
		}
		if err := m.EnsureIndexes(ctx); err != nil {
			_ = m.Close()
			return nil, err
		}
		logger.GetLogger().Info("MongoDB indexes ensured",
			zap.String("database", config.Mongo.Name),
			zap.Bool("transactions", m.Transactions),
		)
		return &stores{
			users:  repository.NewMongoUserStore(m),
			tokens: repository.NewMongoTokenStore(m),
			pinger: m,
			close:  func() { _ = m.Close() },
		}, nil

	case constants.StorePostgres:
		db, err := database.NewPostgresDB(config)
		if err != nil {
			return nil, err
		}
		if err := database.AutoMigrate(db, repository.GormModels()...); err != nil {
			_ = database.CloseDB(db)
			return nil, err
		}
		logger.GetLogger().Info("Database migrated successfully")
		users := repository.NewGormUserStore(db)
		return &stores{
			users:  users,
			tokens: repository.NewGormTokenStore(db),
			pinger: users,
			close:  func() { _ = database.CloseDB(db) },
		}, nil

	case constants.StoreMemory:
		logger.GetLogger().Warn("Using in-memory store; data is lost on restart")
		store := repository.NewMemoryStore()
		return &stores{
			users:  store,
			tokens: store,
			pinger: store,
			close:  func() {},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", config.Store.Driver)
	}
}

func main() {
	config, err := configs.LoadConfig()
	if err != nil {
		panic("Failed to load config: " + err.Error())
	}

	if err := logger.InitLogger(config); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer logger.Sync()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
		zap.String("store", config.Store.Driver),
		zap.String("version", constants.AppVersion),
	)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	validation.Setup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	st, err := openStores(startupCtx, config)
	if err != nil {
		logger.GetLogger().Fatal("Failed to open store", zap.String("driver", config.Store.Driver), zap.Error(err))
	}
	defer st.close()

	m := metrics.NewMetrics("auth_service", nil)

	users := st.users
	var healthOpts []handler.HealthOption
	if config.Redis.Enabled {
		redisClient, err := redis.NewClient(config)
		if err != nil {
			// the cache is optional; serve straight from the store
			logger.GetLogger().Warn("Redis unavailable, user cache disabled", zap.Error(err))
		} else {
			defer redisClient.Close()

			breakerConfig := circuit.DefaultConfig()
			breakerConfig.Threshold = config.Redis.BreakerThreshold
			breakerConfig.Timeout = config.Redis.BreakerTimeout
			breaker := circuit.NewBreaker("redis-user-cache", breakerConfig, logger.GetLogger(),
				circuit.OnStateChange(func(name string, to circuit.State) {
					m.SetBreakerState(name, int(to))
				}),
			)

			users = repository.NewCachedUserStore(st.users, redisClient, breaker, config.Redis.UserCacheTTL, m)
			healthOpts = append(healthOpts, handler.WithCache(redisClient, breaker))
		}
	}

	codec, err := service.NewTokenService(config.JWT)
	if err != nil {
		logger.GetLogger().Fatal("Failed to initialize token service", zap.Error(err))
	}
	authService := service.NewAuthService(users, st.tokens, codec, service.WithRecorder(m))

	if config.Seed.Enabled {
		created, err := database.Seed(startupCtx, authService, database.DefaultAdmin{
			Name:     config.Seed.AdminName,
			Email:    config.Seed.AdminEmail,
			Password: config.Seed.AdminPassword,
		})
		if err != nil {
			// Don't fail - the admin can be created later
			logger.GetLogger().Error("Failed to seed admin", zap.Error(err))
		} else {
			logger.GetLogger().Info("Admin seed completed",
				zap.String("email", config.Seed.AdminEmail),
				zap.Bool("created", created),
			)
		}
	}

	if purger, ok := st.tokens.(repository.Purger); ok {
		worker := repository.NewPurgeWorker(purger, purgeInterval, logger.GetLogger())
		worker.Start(ctx)
		defer worker.Stop()
	}

	exposeDetails := !config.IsProduction()
	r := router.NewRouter(
		handler.NewAuthHandler(authService, exposeDetails),
		handler.NewHealthHandler(st.pinger, config.Store.Driver, config.App.Environment, healthOpts...),

		middleware.NewAuthMiddleware(authService, exposeDetails),
		middleware.NewValidationMiddleware(exposeDetails),
		m,
		config,
	).SetupRoutes(ctx)

	srv := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.GetLogger().Info("Server starting",
			zap.String("port", config.App.Port),
			zap.String("host", "0.0.0.0"),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.GetLogger().Fatal("Failed to start server",
				zap.Error(err),
				zap.String("port", config.App.Port),
			)
		}
	}()

	<-ctx.Done()
	logger.GetLogger().Info("Shutting down server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.GetLogger().Error("Server forced to shutdown", zap.Error(err))
	}
	logger.GetLogger().Info("Server exited")
}
