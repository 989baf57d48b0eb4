package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"pegfall/internal/config"
	"pegfall/internal/db"
	httpServer "pegfall/internal/http"
	"pegfall/internal/http/middleware"
	"pegfall/internal/logger"
	"pegfall/internal/repository"
	"pegfall/internal/scheduler"
	"pegfall/internal/service"
	"pegfall/internal/session"
	"pegfall/internal/ws"
)

const (
	shutdownTimeout = 10 * time.Second
	cleanupInterval = time.Minute
	idleRoomTTL     = 10 * time.Minute
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP and WebSocket server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	service.InitJWT(cfg.JWTSecret)
	if !service.TicketsEnabled() {
		logger.Warn("JWT_SECRET not set, /ws accepts connections without a ticket")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps := httpServer.Deps{
		AllowedOrigin: cfg.AllowedOrigin,
		RateLimit:     cfg.APIRateLimit,
		RateWindow:    cfg.APIRateWindow(),
		Version:       version,
	}

	var roomOpts []ws.RoomOption
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer pool.Close()
		repo := repository.NewRoundResultRepository(pool)
		roomOpts = append(roomOpts, ws.WithRecorder(repo))
		deps.DB = pool
		deps.History = repo
	} else {
		logger.Info("DATABASE_URL not set, round archive disabled")
	}

	limiter, err := middleware.NewRedisLimiter(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		// fail open
		logger.Warn("redis unavailable, API rate limiting disabled", "error", err)
		limiter = nil
	}
	defer limiter.Close()
	deps.Limiter = limiter

	hub := ws.NewHub(ctx, roomConfig(cfg), roomOpts...)
	hub.StartCleanup(cleanupInterval, idleRoomTTL)
	defer hub.Shutdown()
	deps.Hub = hub

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	httpServer.RegisterRoutes(r, deps)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("server started", "port", cfg.AppPort, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info("server exited")
	return nil
}

func roomConfig(cfg *config.Config) ws.RoomConfig {
	return ws.RoomConfig{
		Limits: session.Limits{
			MaxParticipants: cfg.MaxParticipants,
			BotNameAttempts: cfg.BotNameAttempts,
		},
		Scheduler: scheduler.Config{
			BotDelayMin:  cfg.BotDelayMin(),
			BotDelayMax:  cfg.BotDelayMax(),
			ScoreTimeout: cfg.ScoreTimeout(),
			MinX:         cfg.BoardMinX,
			MaxX:         cfg.BoardMaxX,
		},
	}
}
