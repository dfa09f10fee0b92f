package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Wotsits/domain-and-protocol-switcher/internal/api"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/config"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/logger"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/match"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/service"
	"github.com/Wotsits/domain-and-protocol-switcher/internal/storage/sql"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	zl, err := logger.New(cfg.Log.Level)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync() //nolint:errcheck

	// Create data directory if needed (for SQLite)
	if cfg.Database.Driver == "sqlite3" {
		if dir := filepath.Dir(cfg.Database.DSN); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				zl.Fatal("failed to create data directory", zap.Error(err))
			}
		}
	}

	store, err := sql.New(cfg.Database.Driver, cfg.Database.DSN, cfg.Storage.QuotaBytes)
	if err != nil {
		zl.Fatal("failed to initialize storage", zap.Error(err))
	}
	defer store.Close()

	switcher := service.New(store, match.Matcher{FoldHost: cfg.Match.FoldHost}, zl)
	router := api.NewRouter(store, switcher, cfg.Auth.BootstrapAPIKey, zl)

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gr, ctx := errgroup.WithContext(ctx)
	gr.Go(func() error {
		zl.Info("starting variant switcher", zap.String("addr", cfg.Server.Addr()))
		if err := server.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	gr.Go(func() error {
		<-ctx.Done()

		zl.Info("shutting down server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := gr.Wait(); err != nil {
		zl.Error("server exited with error", zap.Error(err))
		os.Exit(1)
	}
	zl.Info("server stopped")
}
