package planning

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/storage/memory"
	"supplyplan/pkg/logger"
)

// countingTx records how often yearly previews open a read-only transaction.
type countingTx struct {
	*memory.Store
	reads int
}

func (c *countingTx) ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	c.reads++
	return c.Store.ReadOnly(ctx, fn)
}

func TestYearlyPreviewsRunReadOnly(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "0.5")
	f.regulationsAll(shop, bread, 2024, 15)

	txm := &countingTx{Store: f.store}
	svc := NewService(Deps{
		Reference: f.store,
		Plans:     f.repos,
		Audit:     f.store,
		TxManager: txm,
		Years:     f.svc.years,
		Logger:    logger.NewNop(),
	})

	inv, err := svc.CalculateInventoryYear(f.ctx, shop, bread, 2024)
	require.NoError(t, err)
	_, err = svc.CalculateProductionYear(f.ctx, plant, bread, month(2024, 1))
	require.NoError(t, err)
	_, err = svc.CalculateWriteOffYear(f.ctx, plant, flour, 2024)
	require.NoError(t, err)
	_, err = svc.CalculatePurchaseYear(f.ctx, plant, flour, 2024)
	require.NoError(t, err)
	assert.Equal(t, 4, txm.reads)

	_, err = svc.SaveCalculatedPlans(f.ctx, SaveRequest{
		Kind:              plans.KindInventory,
		SubdivisionID:     shop,
		MaterialID:        bread,
		Plans:             inv.Plans(),
		OverwriteExisting: true,
	})
	require.NoError(t, err)
	assert.Equal(t, 4, txm.reads)
}
