package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"robot-fleet-backend/internal/fleet"
	"robot-fleet-backend/internal/mw"
)

// Options configures the router's middleware.
type Options struct {
	RateLimit      rate.Limit
	RateBurst      int
	RequestTimeout time.Duration
	// Registry receives the HTTP metrics and backs /metrics. A fresh registry
	// is created when nil.
	Registry *prometheus.Registry
}

// NewRouter creates and configures a new Gin router.
func NewRouter(svc *fleet.Service, log logrus.FieldLogger, opts Options) *gin.Engine {
	r := gin.New()

	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = rate.Inf
	}
	metrics := mw.NewMetrics(reg)
	handler := NewHandler(svc, log, metrics)

	r.Use(gin.Recovery(), mw.RequestID(), mw.Logger(log), metrics.Middleware())

	r.GET("/healthz", handler.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))

	// Idle clients are forgotten after ten minutes.
	limiter := mw.NewIPRateLimiter(opts.RateLimit, opts.RateBurst, 10*time.Minute)

	api := r.Group("/api")
	api.Use(mw.RateLimiter(limiter), mw.Timeout(opts.RequestTimeout))
	{
		robots := api.Group("/robots")
		robots.GET("", handler.ListRobots)
		robots.GET("/search", handler.SearchRobots)
		robots.GET("/by-capability/:capability", handler.RobotsByCapability)
		robots.GET("/by-serial/:serial", handler.GetRobotBySerial)
		robots.GET("/high-telemetry", handler.RobotsWithHighTelemetryCount)
		robots.GET("/sorted-by-capabilities", handler.RobotsSortedByCapabilityCount)
		robots.GET("/recent-activity", handler.RobotsWithRecentActivity)
		robots.GET("/statistics", handler.RobotStatistics)
		robots.GET("/:id", handler.GetRobot)
		robots.GET("/:id/details", handler.GetRobotDetails)
		robots.POST("", handler.CreateRobot)
		robots.POST("/bulk-status", handler.BulkUpdateRobotStatuses)
		robots.POST("/from-templates", handler.CreateRobotsFromTemplates)
		robots.PATCH("/:id", handler.UpdateRobot)
		robots.DELETE("/:id", handler.DeleteRobot)

		tasks := api.Group("/tasks")
		tasks.GET("", handler.ListTasks)
		tasks.GET("/high-priority", handler.HighPriorityTasks)
		tasks.GET("/overdue", handler.OverdueTasks)
		tasks.GET("/by-urgency", handler.TasksByUrgency)
		tasks.GET("/:id", handler.GetTask)
		tasks.POST("", handler.CreateTask)
		tasks.POST("/assign-by-capability", handler.AssignTasksByCapability)
		tasks.PATCH("/:id", handler.UpdateTask)
		tasks.DELETE("/:id", handler.DeleteTask)

		telemetry := api.Group("/telemetry")
		telemetry.GET("", handler.ListTelemetry)
		telemetry.GET("/statistics", handler.TelemetryStatistics)
		telemetry.GET("/anomalies", handler.TelemetryAnomalies)
		telemetry.GET("/:id", handler.GetTelemetryPoint)
		telemetry.POST("", handler.CreateTelemetryPoint)
		telemetry.POST("/cleanup", handler.CleanupOldTelemetry)
		telemetry.PATCH("/:id", handler.UpdateTelemetryPoint)
		telemetry.DELETE("/:id", handler.DeleteTelemetryPoint)

		maintenance := api.Group("/maintenance-events")
		maintenance.GET("", handler.ListMaintenanceEvents)
		maintenance.GET("/:id", handler.GetMaintenanceEvent)
		maintenance.POST("", handler.CreateMaintenanceEvent)
		maintenance.PATCH("/:id", handler.UpdateMaintenanceEvent)
		maintenance.DELETE("/:id", handler.DeleteMaintenanceEvent)

		predictions := api.Group("/predictions")
		predictions.GET("", handler.ListPredictions)
		predictions.GET("/:id", handler.GetPrediction)
		predictions.POST("", handler.CreatePrediction)
		predictions.PATCH("/:id", handler.UpdatePrediction)
		predictions.DELETE("/:id", handler.DeletePrediction)
	}

	return r
}
