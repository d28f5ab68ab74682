package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/activity-tracker-go/internal/config"
	"github.com/jengzang/activity-tracker-go/internal/handler"
	"github.com/jengzang/activity-tracker-go/internal/metrics"
	"github.com/jengzang/activity-tracker-go/internal/middleware"
	"github.com/rs/zerolog"
)

// Handlers groups the route handlers
type Handlers struct {
	Tracking   *handler.TrackingHandler
	Activities *handler.ActivityHandler
}

// SetupRouter builds the HTTP router
func SetupRouter(cfg *config.Config, h Handlers, logger zerolog.Logger) (*gin.Engine, error) {
	limiter, err := middleware.NewRateLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window, cfg.RateLimit.Clients)
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.Use(middleware.Logger(logger), gin.Recovery())

	// CORS
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Activity tracker is running",
		})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	api := r.Group("/api/v1")
	{
		tracking := api.Group("/tracking")
		{
			tracking.GET("/status", h.Tracking.Status)
			tracking.GET("/events", h.Tracking.Events)
			tracking.GET("/notification", h.Tracking.Notification)

			commands := tracking.Group("", middleware.RateLimit(limiter))
			commands.POST("/start", h.Tracking.Start)
			commands.POST("/pause", h.Tracking.Pause)
			commands.POST("/resume", h.Tracking.Resume)
			commands.POST("/stop", h.Tracking.Stop)
			commands.POST("/actions/:action", h.Tracking.Action)

			tracking.POST("/locations", h.Tracking.PushLocations)
		}

		activities := api.Group("/activities")
		{
			activities.GET("", h.Activities.List)
			activities.GET("/stats", h.Activities.Stats)
			activities.GET("/:id", h.Activities.Get)
			activities.DELETE("/:id", h.Activities.Delete)
		}
	}

	return r, nil
}
