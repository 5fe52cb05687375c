package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"task-tracker/internal/cache"
	"task-tracker/internal/config"
	"task-tracker/internal/database"
	"task-tracker/internal/events"
	"task-tracker/internal/handlers"
	"task-tracker/internal/middleware"
	"task-tracker/internal/monitoring"
	"task-tracker/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"
)

const relayRetryInterval = 5 * time.Second

type application struct {
	config  *config.Config
	logger  *logrus.Logger
	pool    *database.DatabasePool
	redis   *redis.Client
	hub     *events.Hub
	bus     *events.RedisBus
	cache   *services.TaskCache
	limiter *middleware.RateLimiter
	metrics *monitoring.Metrics
	router  *gin.Engine
}

func newApplication(cfg *config.Config, log *logrus.Logger) (*application, error) {
	app := &application{
		config:  cfg,
		logger:  log,
		metrics: monitoring.NewMetrics(),
	}

	gormLevel := logger.Warn
	if log.IsLevelEnabled(logrus.DebugLevel) {
		gormLevel = logger.Info
	}
	pool, err := database.NewDatabasePool(&database.PoolConfig{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.GetDatabaseDSN(),
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		LogLevel:        gormLevel,
		Writer:          log,
	})
	if err != nil {
		return nil, err
	}
	app.pool = pool

	if err := pool.Migrate(); err != nil {
		app.close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	app.hub = events.NewHub(cfg.Events.SubscriberBuffer, log, app.metrics)
	var publisher events.Publisher = app.hub

	var l2 cache.Cache
	if cfg.Redis.Enabled {
		app.redis = cache.NewRedisClient(&cache.CacheConfig{
			Addr:         cfg.GetRedisAddr(),
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		app.bus = events.NewRedisBus(app.hub, app.redis, cfg.Events.RedisChannel, cfg.Events.PublishTimeout, cache.NewCircuitBreaker(nil), log)
		publisher = app.bus
		if cfg.Cache.Enabled {
			l2 = cache.NewRedisCache(app.redis, cache.DefaultCacheConfig().KeyPrefix, cache.NewCircuitBreaker(nil))
		}
	}

	if cfg.Cache.Enabled {
		multi := cache.NewMultiLevelCache(cache.NewMemoryCache(0), l2, time.Minute)
		app.metrics.RegisterCache(multi.Metrics())
		app.cache = services.NewTaskCache(multi, cfg.Cache.TaskTTL, log)
	}

	if cfg.RateLimit.Enabled {
		app.limiter = middleware.NewRateLimiter(middleware.RateLimitConfig{
			RequestsPerMinute: cfg.RateLimit.RequestsPerMin,
			Burst:             cfg.RateLimit.BurstSize,
			IdleTTL:           cfg.RateLimit.CleanupInterval,
		})
	}

	health := monitoring.NewHealthChecker(3 * time.Second)
	health.Register("database", func(context.Context) error {
		return pool.Health()
	})
	health.Register("events", func(context.Context) error {
		if !app.hub.Started() {
			return events.ErrNotInitialized
		}
		return nil
	})
	if app.redis != nil {
		health.Register("redis", func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		})
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	app.router = handlers.NewRouter(handlers.RouterConfig{
		Tasks:         services.NewTaskService(pool.DB, publisher, app.cache, log),
		Notifications: services.NewNotificationService(pool.DB, log),
		Hub:           app.hub,
		Auth: middleware.AuthConfig{
			Secret: cfg.Auth.JWTSecret,
			Issuer: cfg.Auth.Issuer,
		},
		RateLimiter: app.limiter,
		Metrics:     app.metrics,
		Health:      health,
		CORSOrigins: cfg.CORS.AllowedOrigins,
		Heartbeat:   cfg.Events.HeartbeatInterval,
		Logger:      log,
	})

	return app, nil
}

// start opens the event bus and launches the background loops. They stop
// when ctx is cancelled.
func (a *application) start(ctx context.Context) {
	a.hub.Start()

	if a.cache != nil {
		go a.cache.Follow(ctx, a.hub.Subscribe())
	}
	if a.bus != nil {
		go a.runRelay(ctx)
	}
	if a.limiter != nil {
		go a.limiter.RunCleanup(a.config.RateLimit.CleanupInterval, ctx.Done())
	}
}

// runRelay keeps the redis subscription alive, resubscribing after errors.
func (a *application) runRelay(ctx context.Context) {
	for {
		err := a.bus.Run(ctx)
		if ctx.Err() != nil {
			return
		}
		if err == nil {
			err = errors.New("subscription closed")
		}
		a.logger.WithError(err).Warn("Event relay stopped, retrying")

		select {
		case <-ctx.Done():
			return
		case <-time.After(relayRetryInterval):
		}
	}
}

// close releases everything newApplication opened. Closing the hub first
// ends open event streams so the HTTP server can drain.
func (a *application) close() {
	if a.hub != nil {
		a.hub.Close()
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close redis client")
		}
	}
	if a.pool != nil {
		if err := a.pool.Close(); err != nil {
			a.logger.WithError(err).Warn("Failed to close database")
		}
	}
}
