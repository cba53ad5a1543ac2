// Package main runs the yearly recalculation of every derived plan.
//
// Usage:
//
//	recalc -year 2025 [-comment "nightly"]
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"supplyplan/internal/app"
	"supplyplan/internal/config"
	"supplyplan/internal/domain/planning"
	"supplyplan/pkg/logger"
)

func main() {
	year := flag.Int("year", time.Now().Year(), "planning year to recalculate")
	comment := flag.String("comment", "scheduled recalculation", "audit comment for saved plans")
	flag.Parse()

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
	log = log.WithComponent("recalc")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithLogger(ctx, log)

	os.Exit(run(ctx, cfg, log, *year, *comment))
}

func run(ctx context.Context, cfg *config.Config, log *logger.Logger, year int, comment string) int {
	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Errorw("failed to initialize application", "error", err)
		return 1
	}
	defer a.Close()

	log.Infow("recalculation started", "year", year, "concurrency", cfg.RecalcConcurrency)

	report, err := planning.NewBatchRecalculator(a.Planning, cfg.RecalcConcurrency).RecalculateYear(ctx, year, comment)
	if report != nil {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	}
	if err != nil {
		log.Errorw("recalculation aborted", "year", year, "error", err)
		return 1
	}
	if report.Failed() {
		log.Warnw("recalculation finished with failures", "year", year)
		return 2
	}
	log.Infow("recalculation finished", "year", year)
	return 0
}
