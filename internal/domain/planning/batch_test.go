package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/domain/reference"
)

func TestBatchRecalculator_RecalculateYear(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "0.5")

	f.regulationsAll(shop, bread, 2024, 15)
	f.regulationsAll(plant, bread, 2024, 30)
	f.regulationsAll(plant, flour, 2024, 30)
	for m := 1; m <= 12; m++ {
		f.row(f.repos.Sales, shop, bread, 2024, m, 300)
		f.supply(shop, bread, 2024, m, plant)
	}

	report, err := NewBatchRecalculator(f.svc, 4).RecalculateYear(f.ctx, 2024, "nightly")
	require.NoError(t, err)
	assert.False(t, report.Failed())

	names := make([]string, len(report.Phases))
	for i, p := range report.Phases {
		names[i] = p.Name
	}
	assert.Equal(t, []string{
		PhaseTransfers, PhaseFinishedInventory, PhaseProduction,
		PhaseWriteOffs, PhaseRawInventory, PhasePurchases,
	}, names)
	assert.Equal(t, 2, report.Phases[1].Keys)
	assert.Equal(t, 1, report.Phases[2].Keys)

	shopInv := f.saved(f.repos.Inventory, shop, bread, 2024)
	require.Len(t, shopInv, 12)
	assert.Equal(t, 150.0, shopInv[5].Quantity)

	plantInv := f.saved(f.repos.Inventory, plant, bread, 2024)
	require.Len(t, plantInv, 12)
	assert.Zero(t, plantInv[0].Quantity) // no transfers in December of the previous year
	assert.Equal(t, 300.0, plantInv[1].Quantity)

	production := f.saved(f.repos.Production, plant, bread, 2024)
	require.Len(t, production, 12)
	assert.Equal(t, 600.0, production[0].Quantity) // 300 - 0 + 300
	assert.Equal(t, 300.0, production[1].Quantity)

	writeOffs := f.saved(f.repos.WriteOff, plant, flour, 2024)
	require.Len(t, writeOffs, 12)
	assert.Equal(t, 300.0, writeOffs[0].Quantity)
	assert.Equal(t, 150.0, writeOffs[1].Quantity)

	rawInv := f.saved(f.repos.Inventory, plant, flour, 2024)
	require.Len(t, rawInv, 12)
	assert.Equal(t, 300.0, rawInv[0].Quantity)

	purchases := f.saved(f.repos.Purchase, plant, flour, 2024)
	require.Len(t, purchases, 12)
	assert.Equal(t, 150.0, purchases[0].Quantity) // 150 - 300 + 300

	// A second run replaces everything in place.
	_, err = NewBatchRecalculator(f.svc, 2).RecalculateYear(f.ctx, 2024, "rerun")
	require.NoError(t, err)
	assert.Len(t, f.saved(f.repos.Production, plant, bread, 2024), 12)
	assert.Len(t, f.saved(f.repos.Purchase, plant, flour, 2024), 12)
}
