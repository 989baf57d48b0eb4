package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pegfall/internal/http/handlers"
	"pegfall/internal/http/middleware"
	"pegfall/internal/ws"
)

type Deps struct {
	Hub     *ws.Hub
	DB      handlers.Pinger  // nil when the archive is disabled
	History handlers.History // nil when the archive is disabled
	Limiter *middleware.RedisLimiter

	AllowedOrigin string
	RateLimit     int
	RateWindow    time.Duration
	Version       string
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	healthHandler := handlers.NewHealthHandler(d.DB, func() int { return len(d.Hub.List()) }, d.Version)
	rooms := handlers.NewRoomsHandler(d.Hub, d.History)

	// Health checks (no rate limiting)
	r.GET("/health", healthHandler.Health)
	r.GET("/healthz", healthHandler.Liveness)
	r.GET("/readyz", healthHandler.Readiness)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/ws", ws.HandleWS(d.Hub, d.AllowedOrigin))

	v1 := r.Group("/api/v1")
	v1.Use(d.Limiter.Handler(d.RateLimit, d.RateWindow))
	{
		v1.GET("/rooms", rooms.List)
		v1.POST("/rooms", rooms.Create)
		v1.GET("/rooms/:code", rooms.Get)
		v1.GET("/rooms/:code/history", rooms.History)
	}
}
