// Package main loads the demo reference data and sales plans.
//
// Usage:
//
//	seed -year 2025 [-reset-sequences]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"supplyplan/internal/app"
	"supplyplan/internal/config"
	"supplyplan/pkg/logger"
)

// sequenceResetter is implemented by the PostgreSQL reference writer.
type sequenceResetter interface {
	ResetSequences(ctx context.Context) error
}

func main() {
	year := flag.Int("year", time.Now().Year(), "planning year to seed")
	reset := flag.Bool("reset-sequences", false, "align id sequences after loading rows with explicit ids")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.LogLevel,
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log.WithComponent("seed"))

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatalw("failed to initialize application", "error", err)
	}
	defer a.Close()

	if *reset {
		if r, ok := a.Writer.(sequenceResetter); ok {
			if err := r.ResetSequences(ctx); err != nil {
				log.Fatalw("failed to reset sequences", "error", err)
			}
			log.Info("sequences reset")
		}
	}

	res, err := app.SeedDemo(ctx, a, *year)
	if err != nil {
		log.Fatalw("failed to seed demo data", "error", err)
	}
	if res.Skipped {
		log.Info("database already seeded")
		return
	}
	log.Info("seeding completed successfully")
}
