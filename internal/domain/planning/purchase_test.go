package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/domain/reference"
)

func TestCalculatePurchaseYear(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "2")

	f.row(f.repos.Inventory, plant, flour, 2024, 1, 100)
	f.row(f.repos.Inventory, plant, flour, 2024, 2, 150)
	f.row(f.repos.Inventory, plant, flour, 2024, 3, 120)
	f.row(f.repos.WriteOff, plant, flour, 2024, 1, 40)
	f.row(f.repos.Production, plant, bread, 2024, 2, 30)

	months, err := f.svc.CalculatePurchaseYear(f.ctx, plant, flour, 2024)
	require.NoError(t, err)
	require.Len(t, months, 12)

	jan := months[0]
	assert.Equal(t, 90.0, jan.PurchasePlanQuantity) // 150 - 100 + 40
	assert.Equal(t, ConsumptionFromWriteOff, jan.ConsumptionSource)
	assert.Empty(t, jan.Note)

	feb := months[1]
	assert.Equal(t, 30.0, feb.PurchasePlanQuantity) // 120 - 150 + 30*2
	assert.Equal(t, ConsumptionFromProduction, feb.ConsumptionSource)
	assert.Equal(t, 60.0, feb.TotalProductionPlans)

	mar := months[2]
	assert.Equal(t, -120.0, mar.PurchasePlanQuantity)
	assert.Contains(t, mar.Note, "2024-04")
}

func TestRecalculatePurchases_OverwritesSavedPlans(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	flour := f.material("Flour", reference.MaterialRaw)
	f.row(f.repos.Purchase, plant, flour, 2024, 1, 999)
	f.row(f.repos.Inventory, plant, flour, 2024, 2, 12.4)

	_, res, err := f.svc.RecalculatePurchases(f.ctx, plant, flour, 2024, "monthly refresh")
	require.NoError(t, err)
	assert.Equal(t, 1, res.Overwritten)

	existing, err := f.svc.GetExistingPurchases(f.ctx, plant, flour, 2024)
	require.NoError(t, err)
	require.Len(t, existing, 12)
	assert.Equal(t, 12.0, existing[0].Quantity)
	assert.Equal(t, -12.0, existing[1].Quantity)
}
