package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/reference"
)

func TestCalculateWriteOff_Month(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	buns := f.material("Buns", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "2")
	f.card(plant, buns, flour, "3")
	f.row(f.repos.Production, plant, bread, 2024, 3, 10)
	f.row(f.repos.Production, plant, buns, 2024, 3, 5)

	m, err := f.svc.CalculateWriteOff(f.ctx, plant, flour, 2024, 3)
	require.NoError(t, err)

	assert.Equal(t, 35.0, m.CalculatedQuantity)
	assert.Equal(t, 2, m.ProductionPlansCount)
	assert.Equal(t, "March", m.MonthName)
	require.Len(t, m.ProductionPlans, 2)
	assert.Equal(t, "Bread", m.ProductionPlans[0].MaterialName)
	assert.Equal(t, 10.0, m.ProductionPlans[0].ProductionQuantity)

	_, err = f.svc.CalculateWriteOff(f.ctx, plant, flour, 2024, 13)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CalculateWriteOff(f.ctx, plant, bread, 2024, 3)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCalculateWriteOffYear(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "0.25")
	f.row(f.repos.Production, plant, bread, 2024, 1, 100)
	f.row(f.repos.Production, plant, bread, 2024, 2, 200)

	y, err := f.svc.CalculateWriteOffYear(f.ctx, plant, flour, 2024)
	require.NoError(t, err)

	require.Len(t, y.MonthlyResults, 12)
	assert.Equal(t, 25.0, y.MonthlyResults[0].CalculatedQuantity)
	assert.Equal(t, 50.0, y.MonthlyResults[1].CalculatedQuantity)
	assert.Zero(t, y.MonthlyResults[2].CalculatedQuantity)
	assert.Zero(t, y.MonthlyResults[2].ProductionPlansCount)
	assert.NotEmpty(t, y.MonthlyResults[2].Note)
	assert.Equal(t, 75.0, y.TotalQuantity)
	assert.Equal(t, 6.25, y.AverageMonthlyQuantity)
	assert.Contains(t, y.CalculationSummary, "2 of 12")
}

func TestCalculateAndSaveWriteOffYear(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "0.3")
	f.row(f.repos.Production, plant, bread, 2024, 1, 105)

	_, res, err := f.svc.CalculateAndSaveWriteOffYear(f.ctx, plant, flour, 2024, "initial")
	require.NoError(t, err)
	assert.Len(t, res.Saved, 12)

	rows := f.saved(f.repos.WriteOff, plant, flour, 2024)
	require.Len(t, rows, 12)
	assert.Equal(t, 32.0, rows[0].Quantity) // 31.5 rounds half away from zero
	assert.True(t, rows[0].IsCalculated)

	// Saving again overwrites in place.
	_, _, err = f.svc.CalculateAndSaveWriteOffYear(f.ctx, plant, flour, 2024, "again")
	require.NoError(t, err)
	assert.Len(t, f.saved(f.repos.WriteOff, plant, flour, 2024), 12)

	_, res, err = f.svc.CalculateAndSaveWriteOff(f.ctx, plant, flour, 2024, 1, "single")
	require.NoError(t, err)
	assert.Len(t, res.Saved, 1)
	assert.Equal(t, 1, res.Overwritten)
}
