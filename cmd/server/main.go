package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fetchdeck/backend/internal/api"
	"github.com/fetchdeck/backend/internal/config"
	"github.com/fetchdeck/backend/internal/health"
	"github.com/fetchdeck/backend/internal/logger"
	"github.com/fetchdeck/backend/internal/persist"
	"github.com/fetchdeck/backend/internal/queue"
	"github.com/fetchdeck/backend/internal/websocket"
	"github.com/fetchdeck/backend/internal/worker"
)

// version is stamped by the build via -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg := config.Load()

	if err := logger.Init(cfg.LogMode); err != nil {
		panic(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	saver, persistCheck, closeSaver := openSaver(cfg)
	if closeSaver != nil {
		defer closeSaver()
	}

	ytdlp, err := worker.NewYtdlpBridge(&worker.YtdlpConfig{
		BinPath:     cfg.YtdlpPath,
		DownloadDir: cfg.DownloadDir,
	})
	if err != nil {
		logger.Fatal("yt-dlp unavailable", zap.Error(err))
	}

	store, err := queue.Open(ctx, queue.Config{
		ConcurrencyLimit: func() int { return cfg.ConcurrentDownloads },
		Bridges: map[queue.Kind]queue.Bridge{
			queue.KindMedia: ytdlp,
			queue.KindFile:  worker.NewHTTPBridge(cfg.DownloadDir),
		},
		Saver: saver,
	})
	if err != nil {
		logger.Fatal("failed to open queue", zap.Error(err))
	}

	hub := websocket.NewHub()
	go hub.Run(ctx)
	go websocket.NewFeed(store, hub).Run(ctx)

	healthHandler := health.NewHandler(health.NewChecker(&health.CheckerConfig{
		PersistCheck: persistCheck,
		WorkerCheck:  ytdlp.Check,
		Version:      version,
	}))

	wsHandler := websocket.NewHandler(hub)
	router := api.NewRouter(api.NewHandlers(store, ytdlp), healthHandler.HealthHandler, wsHandler.ServeWS)

	srv := &http.Server{
		Addr:        cfg.ServerAddr,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("queue close", zap.Error(err))
	}
}

// openSaver selects the persistence backend. A backend that cannot be
// reached is fatal so a misconfigured deployment fails loudly instead
// of silently losing the queue. The second return is the liveness
// probe for health checks, nil when persistence is disabled.
func openSaver(cfg *config.Config) (queue.Saver, func(context.Context) error, func()) {
	switch cfg.PersistBackend {
	case config.BackendRedis:
		s, err := persist.NewRedisStore(cfg.RedisURL)
		if err != nil {
			logger.Fatal("redis unavailable", zap.Error(err))
		}
		return s, s.Ping, func() { s.Close() }

	case config.BackendPostgres:
		s, err := persist.NewPostgresStore(cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("postgres unavailable", zap.Error(err))
		}
		return s, s.Ping, func() { s.Close() }

	case config.BackendNone:
		logger.Warn("queue persistence disabled")
		return nil, nil, nil

	default:
		logger.Fatal("unknown persistence backend", zap.String("backend", cfg.PersistBackend))
		return nil, nil, nil
	}
}
