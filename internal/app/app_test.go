package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/config"
	"supplyplan/internal/domain/planning"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/pkg/logger"
)

func memoryConfig() *config.Config {
	return &config.Config{
		Storage:           "memory",
		PlanningMinYear:   2020,
		PlanningMaxYear:   2100,
		RecalcConcurrency: 2,
	}
}

func newMemoryApp(t *testing.T) *App {
	t.Helper()
	a, err := New(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestNew_Memory(t *testing.T) {
	a := newMemoryApp(t)

	assert.NotNil(t, a.Planning)
	assert.NotNil(t, a.Plans)
	assert.NotNil(t, a.Reference)
	assert.NotNil(t, a.Writer)
	assert.Nil(t, a.Pool)
	assert.Nil(t, a.Health)
}

func TestSeedDemo(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)

	res, err := SeedDemo(ctx, a, 2025)
	require.NoError(t, err)
	assert.Equal(t, &SeedResult{
		Subdivisions: 3,
		Materials:    4,
		Regulations:  8 * 13,
		Cards:        4,
		Sources:      4 * 12,
		SalesPlans:   4 * 13,
	}, res)

	trading := reference.SubdivisionTrading
	shops, err := a.Reference.ListSubdivisions(ctx, &trading)
	require.NoError(t, err)
	assert.Len(t, shops, 2)

	again, err := SeedDemo(ctx, a, 2025)
	require.NoError(t, err)
	assert.True(t, again.Skipped)

	sales, err := a.Plans.List(ctx, plans.KindSales, plans.Filter{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, sales, 4*12)
}

func TestSeedDemo_Recalculates(t *testing.T) {
	ctx := context.Background()
	a := newMemoryApp(t)

	_, err := SeedDemo(ctx, a, 2025)
	require.NoError(t, err)

	report, err := planning.NewBatchRecalculator(a.Planning, 2).RecalculateYear(ctx, 2025, "seed")
	require.NoError(t, err)
	assert.False(t, report.Failed())
	require.Len(t, report.Phases, 6)
	assert.Equal(t, 48, report.Phases[0].Saved) // 4 shop/product pairs x 12 months

	production, err := a.Plans.List(ctx, plans.KindProduction, plans.Filter{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, production, 2*12)

	purchases, err := a.Plans.List(ctx, plans.KindPurchase, plans.Filter{Year: 2025})
	require.NoError(t, err)
	assert.Len(t, purchases, 2*12)
}
