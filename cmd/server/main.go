// Package main is the entry point for the supply planning API server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplyplan/internal/app"
	"supplyplan/internal/config"
	v1 "supplyplan/internal/infrastructure/http/v1"
	"supplyplan/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: !cfg.IsProduction(),
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Infow("starting supplyplan server", "storage", cfg.Storage, "frozen_periods", cfg.FrozenPeriods.String())

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	if cfg.SeedDemoYear != 0 {
		if _, err := app.SeedDemo(ctx, a, cfg.SeedDemoYear); err != nil {
			log.Fatalw("failed to seed demo data", "error", err)
		}
	}

	router, err := v1.NewRouter(v1.RouterConfig{
		Planning:       a.Planning,
		Plans:          a.Plans,
		Reference:      a.Reference,
		Health:         a.Health,
		Logger:         log,
		RequestTimeout: cfg.RequestTimeout,
		Years:          cfg.YearRange(),
	})
	if err != nil {
		log.Fatalw("failed to build router", "error", err)
	}

	server := &http.Server{
		Addr:        ":" + cfg.AppPort,
		Handler:     router,
		ReadTimeout: 15 * time.Second,
		// Leave room for the handler timeout to render its own error.
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", cfg.AppPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
