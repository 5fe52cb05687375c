package handlers

import (
	"time"

	"task-tracker/internal/events"
	"task-tracker/internal/logging"
	"task-tracker/internal/middleware"
	"task-tracker/internal/monitoring"
	"task-tracker/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// RouterConfig carries everything the HTTP surface is built from. Metrics,
// Health and RateLimiter are optional.
type RouterConfig struct {
	Tasks         services.TaskService
	Notifications services.NotificationService
	Hub           *events.Hub
	Auth          middleware.AuthConfig
	RateLimiter   *middleware.RateLimiter
	Metrics       *monitoring.Metrics
	Health        *monitoring.HealthChecker
	CORSOrigins   []string
	Heartbeat     time.Duration
	Logger        logrus.FieldLogger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	logger := logging.OrDiscard(cfg.Logger)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RecoveryWithLog(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware())
		router.GET("/metrics", cfg.Metrics.Handler())
	}

	health := cfg.Health
	if health == nil {
		health = monitoring.NewHealthChecker(0)
	}
	router.GET("/health", health.HealthHandler())
	router.GET("/ready", health.ReadinessHandler())
	router.GET("/live", health.LivenessHandler())

	api := router.Group("/api")
	api.GET("/events", NewEventsHandler(cfg.Hub, cfg.Heartbeat, logger).Stream)

	protected := api.Group("")
	protected.Use(middleware.Authenticate(cfg.Auth))
	if cfg.RateLimiter != nil {
		protected.Use(cfg.RateLimiter.Middleware())
	}

	taskHandler := NewTaskHandler(cfg.Tasks, logger)
	tasks := protected.Group("/tasks")
	{
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("", taskHandler.GetTasks)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	notificationHandler := NewNotificationHandler(cfg.Notifications, logger)
	notifications := protected.Group("/notifications")
	{
		notifications.GET("", notificationHandler.GetNotifications)
		notifications.PATCH("/read-all", notificationHandler.MarkAllAsRead)
		notifications.PATCH("/:id/read", notificationHandler.MarkAsRead)
	}

	return router
}

func corsConfig(origins []string) cors.Config {
	config := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}

	for _, origin := range origins {
		if origin == "*" {
			config.AllowAllOrigins = true
			config.AllowCredentials = false
			return config
		}
	}
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}
	config.AllowOrigins = origins
	return config
}
