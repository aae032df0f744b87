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

	"contas/internal/amqp"
	"contas/internal/cache"
	"contas/internal/client"
	"contas/internal/config"
	"contas/internal/core"
	apphttp "contas/internal/http"
	applog "contas/internal/log"
	"contas/internal/metrics"
	"contas/internal/storage"
)

func main() {
	// Load .env for local development; absent in containers.
	_ = godotenv.Load()

	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	metrics.Init()

	store, err := storage.NewStore(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer store.Close()

	auth := client.NewAuthContext()
	upstream := client.New(cfg.UpstreamBaseURL, auth, logger)
	if cfg.UpstreamEmail != "" {
		loginCtx, loginCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := upstream.Login(loginCtx, cfg.UpstreamEmail, cfg.UpstreamSenha); err != nil {
			logger.Error("Upstream login failed", "error", err)
			loginCancel()
			os.Exit(1)
		}
		loginCancel()
	}

	snapCache := cache.NewLRUCache[core.Snapshot](cfg.SnapshotCapacity, cfg.SnapshotTTL)
	cacheManager := cache.NewManager()
	cacheManager.Register(snapCache)
	cacheManager.StartCleanup(time.Minute)
	defer cacheManager.Stop()

	// AMQP is optional: without it exports are still queued in SQLite and
	// picked up by the worker's startup check.
	var publisher apphttp.ExportPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, export messages disabled", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
		}
	}

	snapshots := apphttp.NewSnapshotService(upstream, store, snapCache, logger)
	handler := apphttp.NewHandler(snapshots, store, publisher, logger)
	if cfg.RepublicID > 0 {
		handler.RestrictToRepublic(cfg.RepublicID)
	}

	srv := apphttp.NewServer(":"+cfg.Port, handler, apphttp.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Logger:         logger,
		Ready: func() bool {
			_, ok := auth.Authorization()
			return ok || cfg.UpstreamEmail == ""
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting contas server", "port", cfg.Port, "republic_id", cfg.RepublicID)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
