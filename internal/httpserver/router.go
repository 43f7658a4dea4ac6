package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"milestone-tracker/internal/handler"
	"milestone-tracker/internal/metrics"
	"milestone-tracker/internal/middleware"
)

// Pinger reports whether the backing store can serve requests.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Handler *handler.Handler
	Auth    middleware.Authenticator
	Limiter *middleware.RateLimiter
	Metrics *metrics.Metrics
	Store   Pinger
	Log     *zap.Logger
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.Recovery(d.Log),
		middleware.RequestLog(d.Log, d.Metrics),
		middleware.CORS(),
	)

	h := d.Handler
	r.GET("/api/health", h.Health)
	r.GET("/api/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
		defer cancel()
		if err := d.Store.Ping(ctx); err != nil {
			d.Log.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))

	authGroup := r.Group("/api/auth", middleware.RateLimit(d.Limiter))
	{
		authGroup.POST("/register", h.Register)
		authGroup.POST("/login", h.Login)
	}

	ms := r.Group("/api/milestones", middleware.Auth(d.Auth))
	{
		ms.GET("", h.ListMilestones)
		ms.POST("", h.CreateMilestone)
		ms.GET("/:id", h.GetMilestone)
		ms.PUT("/:id", h.UpdateMilestone)
		ms.DELETE("/:id", h.DeleteMilestone)
	}

	r.NoRoute(h.NoRoute)
	return r
}
