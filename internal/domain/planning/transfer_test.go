package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

type transferNetwork struct {
	*fixture
	plant, shop, bread int64
}

func newTransferNetwork(t *testing.T, frozen ...string) *transferNetwork {
	f := newFixture(t, frozen...)
	n := &transferNetwork{
		fixture: f,
		plant:   f.subdivision("Plant", reference.SubdivisionProduction),
		shop:    f.subdivision("Shop", reference.SubdivisionTrading),
		bread:   f.material("Bread", reference.MaterialFinished),
	}
	f.regulationsAll(n.shop, n.bread, 2024, 15)
	for m := 1; m <= 12; m++ {
		f.row(f.repos.Sales, n.shop, n.bread, 2024, m, 300)
		f.supply(n.shop, n.bread, 2024, m, n.plant)
	}
	return n
}

func (n *transferNetwork) transfers() []plans.TransferRow {
	n.t.Helper()
	rows, err := n.repos.Transfers.Query(n.ctx, plans.TransferFilter{Year: 2024})
	require.NoError(n.t, err)
	return rows
}

func TestCalculateTransfers_Quantities(t *testing.T) {
	n := newTransferNetwork(t)

	res, err := n.svc.CalculateTransfers(n.ctx, 2024, false)
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Equal(t, 12, res.PlansCount)
	require.Len(t, res.CalculatedPlans, 12)
	assert.Equal(t, 300.0, res.CalculatedPlans[0].Quantity)
	// January of the next year has no sales, so December only covers its own demand.
	assert.Equal(t, 150.0, res.CalculatedPlans[11].Quantity)
	assert.Equal(t, "Plant", res.CalculatedPlans[0].SourceSubdivisionName)
	assert.Equal(t, TransferStatistics{
		ProductionSubdivisionsCount: 1,
		TradingSubdivisionsCount:    1,
		FinishedProductsCount:       1,
		MonthsCalculated:            12,
	}, res.Statistics)

	// Preview does not persist.
	assert.Empty(t, n.transfers())
}

func TestCalculateTransfers_NeverNegative(t *testing.T) {
	n := newTransferNetwork(t)
	n.regulation(n.shop, n.bread, 2024, 2, 90) // Feb inventory 900

	res, err := n.svc.CalculateTransfers(n.ctx, 2024, false)
	require.NoError(t, err)

	// February: 300 + 150 - 900 < 0
	assert.Zero(t, res.CalculatedPlans[1].Quantity)
	assert.Equal(t, 1050.0, res.CalculatedPlans[0].Quantity)
}

func TestCalculateTransfers_DestructiveRecompute(t *testing.T) {
	n := newTransferNetwork(t)

	first, err := n.svc.CalculateTransfers(n.ctx, 2024, true)
	require.NoError(t, err)
	assert.Zero(t, first.DeletedCount)
	require.Len(t, n.transfers(), 12)

	// December loses its source and March demand doubles.
	n.supply(n.shop, n.bread, 2024, 12, 0)
	n.row(n.repos.Sales, n.shop, n.bread, 2024, 3, 600)

	second, err := n.svc.CalculateTransfers(n.ctx, 2024, true)
	require.NoError(t, err)
	assert.Equal(t, int64(12), second.DeletedCount)

	rows := n.transfers()
	require.Len(t, rows, 11)
	for _, r := range rows {
		assert.NotEqual(t, 12, int(r.Date.Month()))
		assert.True(t, r.IsCalculated)
	}
	assert.Equal(t, 450.0, rows[2].Quantity) // 600 + 150 - 300
}

func TestCalculateTransfers_FrozenMonthUntouched(t *testing.T) {
	n := newTransferNetwork(t, "2024-02")
	n.transfer(n.plant, n.shop, n.bread, 2024, 2, 77)

	res, err := n.svc.CalculateTransfers(n.ctx, 2024, true)
	require.NoError(t, err)
	assert.Equal(t, 11, res.PlansCount)
	assert.Len(t, res.SkippedFrozen, 1)

	rows := n.transfers()
	require.Len(t, rows, 12)
	assert.Equal(t, 77.0, rows[1].Quantity)
	assert.False(t, rows[1].IsCalculated)
}

func TestCalculateTransfers_SkipsInvalidAssignments(t *testing.T) {
	n := newTransferNetwork(t)
	otherShop := n.subdivision("Other shop", reference.SubdivisionTrading)
	n.supply(otherShop, n.bread, 2024, 1, n.shop) // trading cannot supply

	res, err := n.svc.CalculateTransfers(n.ctx, 2024, false)
	require.NoError(t, err)
	assert.Equal(t, 12, res.PlansCount)
	assert.Len(t, res.Warnings, 1)
}

func TestDebugTransfers(t *testing.T) {
	n := newTransferNetwork(t)
	_, err := n.svc.CalculateTransfers(n.ctx, 2024, true)
	require.NoError(t, err)

	dbg, err := n.svc.DebugTransfers(n.ctx, n.plant, n.bread, 2024)
	require.NoError(t, err)
	assert.Len(t, dbg.Transfers, 12)
	assert.Equal(t, 300.0, dbg.MonthlyTotals["2024-01"])
	assert.Equal(t, 11*300.0+150, dbg.Total)

	_, err = n.svc.DebugTransfers(n.ctx, n.shop, n.bread, 2024)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
