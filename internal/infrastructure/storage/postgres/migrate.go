package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"supplyplan/pkg/logger"
)

//go:embed schema.sql
var schemaSQL string

// Migrate applies the embedded schema. Every statement is idempotent, so it
// runs on each start when AUTO_MIGRATE is enabled.
func Migrate(ctx context.Context, pool *Pool) error {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	logger.Info(ctx, "database schema is up to date")
	return nil
}
