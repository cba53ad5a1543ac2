package planning

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

func TestSumProductionForRawMaterial(t *testing.T) {
	const (
		sub   = int64(1)
		raw   = int64(10)
		prodA = int64(20)
		prodB = int64(21)
		prodC = int64(22)
	)
	march := period.Month(2024, time.March)

	cards := []reference.TechnologicalCard{
		{ID: 1, SubdivisionID: sub, FinishedProductID: prodA, RawMaterialID: raw, RawMaterialPerUnit: types.MustRatio("2")},
		{ID: 2, SubdivisionID: sub, FinishedProductID: prodB, RawMaterialID: raw, RawMaterialPerUnit: types.MustRatio("3")},
		{ID: 3, SubdivisionID: sub, FinishedProductID: prodC, RawMaterialID: raw + 1, RawMaterialPerUnit: types.MustRatio("7")},
		{ID: 4, SubdivisionID: sub + 1, FinishedProductID: prodA, RawMaterialID: raw, RawMaterialPerUnit: types.MustRatio("9")},
	}
	production := NewProductionIndex([]plans.Row{
		{SubdivisionID: sub, MaterialID: prodA, Date: march, Quantity: 10},
		{SubdivisionID: sub, MaterialID: prodB, Date: march, Quantity: 5},
		{SubdivisionID: sub, MaterialID: prodC, Date: march, Quantity: 100},
		{SubdivisionID: sub + 1, MaterialID: prodA, Date: march, Quantity: 100},
		{SubdivisionID: sub, MaterialID: prodA, Date: period.Month(2024, time.April), Quantity: 1000},
	})

	t.Run("fan-in across finished products", func(t *testing.T) {
		agg := SumProductionForRawMaterial(cards, production, sub, raw, march)
		assert.Equal(t, 35.0, agg.Quantity)
		assert.Equal(t, 2, agg.ContributingPlanCount)
		assert.Len(t, agg.Contributions, 2)
		assert.Empty(t, agg.Note)
	})

	t.Run("mid-month date is normalized", func(t *testing.T) {
		agg := SumProductionForRawMaterial(cards, production, sub, raw, march.AddDate(0, 0, 14))
		assert.Equal(t, 35.0, agg.Quantity)
	})

	t.Run("cards without plans", func(t *testing.T) {
		agg := SumProductionForRawMaterial(cards, production, sub, raw, period.Month(2024, time.May))
		assert.Zero(t, agg.Quantity)
		assert.Zero(t, agg.ContributingPlanCount)
		assert.NotEmpty(t, agg.Note)
	})

	t.Run("no cards", func(t *testing.T) {
		agg := SumProductionForRawMaterial(cards, production, sub, 999, march)
		assert.Zero(t, agg.Quantity)
		assert.Contains(t, agg.Note, "no technological cards")
	})
}
