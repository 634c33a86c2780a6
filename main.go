package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/medlinkr/medlinkr-api/auth"
	"github.com/medlinkr/medlinkr-api/backend"
	"github.com/medlinkr/medlinkr-api/config"
	"github.com/medlinkr/medlinkr-api/geolocation"
	"github.com/medlinkr/medlinkr-api/handlers"
	"github.com/medlinkr/medlinkr-api/health"
	"github.com/medlinkr/medlinkr-api/logging"
	"github.com/medlinkr/medlinkr-api/scheduler"
	"github.com/medlinkr/medlinkr-api/server"
	"github.com/medlinkr/medlinkr-api/session"
	"github.com/medlinkr/medlinkr-api/store"
	"github.com/medlinkr/medlinkr-api/validation"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logging.Warn("Could not read .env file", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logging.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.InitLogger("logs", cfg.LogRetentionWeeks, cfg.MaxLogFileSize)

	kv, err := store.Open(cfg.StorePath)
	if err != nil {
		logging.Error("Could not open durable store", "path", cfg.StorePath, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := kv.Close(); err != nil {
			logging.Error("Store close error", "error", err)
		}
	}()

	client := backend.NewClient(cfg.BackendURL, cfg.BackendTimeout)
	resolver := geolocation.NewResolver(cfg.GeocoderURL, cfg.GeocodeTimeout, kv)
	sessions := session.NewRegistry(client, client)
	tokens := auth.NewTokenStore(kv)

	// Prescription sessions are user state; they go when the user does
	tokens.OnSignOut(func() {
		if removed := sessions.Clear(); removed > 0 {
			logging.Info("Cleared upload sessions on sign-out", "removed", removed)
		}
	})

	handler := handlers.New(
		sessions,
		client, client, client,
		resolver,
		validation.NewFormValidator(),
		tokens,
	)

	checker := health.NewHealthChecker(sessions, kv)
	srv := server.NewServer(cfg, handler, checker)

	jobs := scheduler.NewGatewayScheduler(sessions, resolver)
	if err := jobs.Start(); err != nil {
		logging.Error("Could not start background jobs", "error", err)
		os.Exit(1)
	}
	defer jobs.Stop()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logging.Error("Shutdown failed", "error", err)
		os.Exit(1)
	}
}
