package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"feedpilot/internal/activity"
	"feedpilot/internal/auth"
	"feedpilot/internal/config"
	"feedpilot/internal/hub"
	"feedpilot/internal/logging"
	"feedpilot/internal/remote"
	"feedpilot/internal/server"
	"feedpilot/internal/session"
	"feedpilot/internal/store"
	"feedpilot/internal/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logging.Init(cfg.LogLevel)
	gin.SetMode(cfg.GinMode)

	st, err := store.Open(cfg.DatabaseURL, cfg.SQLitePath)
	if err != nil {
		slog.Error("store", "err", err)
		os.Exit(1)
	}

	var sessions session.Registry
	if cfg.RedisAddr != "" {
		sessions = session.NewRedis(cfg.RedisAddr, cfg.RedisPassword)
		slog.Info("sessions backed by redis", "addr", cfg.RedisAddr)
	} else {
		sessions = session.NewMemory()
	}

	tokenCfg := auth.TokenConfig{
		Secret: cfg.MasterSecret,
		Expiry: cfg.TokenExpiry,
		Issuer: "feedpilot",
	}

	wsHub := hub.New()
	activityLog := activity.NewLog(st, wsHub)
	remoteClient := remote.NewHTTPClient(cfg.RemoteAuthURL, cfg.RemoteAPIURL)
	workers := worker.NewRegistry(st, activityLog, remoteClient, worker.Options{
		PollInterval: cfg.PollInterval,
		ErrorBackoff: cfg.ErrorBackoff,
	})

	router := server.NewRouter(server.Deps{
		Store:       st,
		Sessions:    sessions,
		Workers:     workers,
		Activity:    activityLog,
		Hub:         wsHub,
		TokenConfig: tokenCfg,
	})

	srv := server.NewHTTPServer(cfg, router)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := server.Run(srv, cfg); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("listen", "err", err)
			os.Exit(1)
		}
	}()
	slog.Info("listening", "port", cfg.Port)

	<-ctx.Done()
	slog.Info("shutting down")

	workers.StopAll()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}
