package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/period"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, period.YearRange{Min: 2020, Max: 2100}, cfg.YearRange())
	assert.True(t, cfg.FrozenPeriods.IsFrozen(1, 1, period.Month(2023, time.January)))
	assert.Empty(t, cfg.RedisAddr)
	assert.Equal(t, "postgres", cfg.Storage)
}

func TestLoad_FrozenPeriodsFromEnv(t *testing.T) {
	t.Setenv("FROZEN_PERIODS", "2023-01,2024-02@5:*")
	t.Setenv("RECALC_CONCURRENCY", "8")

	cfg, err := Load()
	require.NoError(t, err)

	require.Len(t, cfg.FrozenPeriods, 2)
	assert.True(t, cfg.FrozenPeriods.IsFrozen(5, 11, period.Month(2024, time.February)))
	assert.False(t, cfg.FrozenPeriods.IsFrozen(6, 11, period.Month(2024, time.February)))
	assert.Equal(t, 8, cfg.RecalcConcurrency)
}

func TestLoad_Invalid(t *testing.T) {
	t.Setenv("FROZEN_PERIODS", "January")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("FROZEN_PERIODS", "")
	t.Setenv("PLANNING_MIN_YEAR", "2200")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("PLANNING_MIN_YEAR", "2020")
	t.Setenv("STORAGE", "sqlite")
	_, err = Load()
	assert.Error(t, err)

	t.Setenv("STORAGE", "memory")
	t.Setenv("SEED_DEMO_YEAR", "1999")
	_, err = Load()
	assert.Error(t, err)
}
