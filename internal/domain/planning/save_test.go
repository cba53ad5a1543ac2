package planning

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

func yearOf(qty float64) []CalculatedPlan {
	out := make([]CalculatedPlan, 12)
	for i := range out {
		out[i] = CalculatedPlan{Date: month(2024, i+1), Quantity: qty}
	}
	return out
}

func TestSaveCalculatedPlans_Idempotent(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)

	req := SaveRequest{
		Kind:              plans.KindInventory,
		SubdivisionID:     shop,
		MaterialID:        bread,
		Plans:             yearOf(149.5),
		OverwriteExisting: true,
		Comment:           "first",
	}
	first, err := f.svc.SaveCalculatedPlans(f.ctx, req)
	require.NoError(t, err)
	assert.Len(t, first.Saved, 12)
	assert.Zero(t, first.Overwritten)

	second, err := f.svc.SaveCalculatedPlans(f.ctx, req)
	require.NoError(t, err)
	assert.Equal(t, 12, second.Overwritten)

	rows := f.saved(f.repos.Inventory, shop, bread, 2024)
	require.Len(t, rows, 12)
	for _, r := range rows {
		assert.Equal(t, 150.0, r.Quantity)
		assert.True(t, r.IsCalculated)
	}

	history, err := f.svc.GetHistoryPlans(f.ctx, plans.KindInventory, shop, bread, 2024)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "first", history[1].Comment)
	assert.Len(t, history[0].Previous, 12)
}

func TestSaveCalculatedPlans_ConflictWithoutOverwrite(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.row(f.repos.Inventory, shop, bread, 2024, 4, 10)

	_, err := f.svc.SaveCalculatedPlans(f.ctx, SaveRequest{
		Kind:          plans.KindInventory,
		SubdivisionID: shop,
		MaterialID:    bread,
		Plans:         yearOf(20),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsConflict(err))
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, []string{"2024-04"}, appErr.Details["months"])
	assert.NotEmpty(t, appErr.Details["suggestion"])

	assert.Len(t, f.saved(f.repos.Inventory, shop, bread, 2024), 1)
}

func TestSaveCalculatedPlans_SkipsFrozenMonths(t *testing.T) {
	f := newFixture(t, "2024-01")
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.row(f.repos.Inventory, shop, bread, 2024, 1, 5)

	res, err := f.svc.SaveCalculatedPlans(f.ctx, SaveRequest{
		Kind:          plans.KindInventory,
		SubdivisionID: shop,
		MaterialID:    bread,
		Plans:         yearOf(20),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01"}, res.SkippedFrozen)
	assert.Len(t, res.Saved, 11)

	rows := f.saved(f.repos.Inventory, shop, bread, 2024)
	require.Len(t, rows, 12)
	assert.Equal(t, 5.0, rows[0].Quantity)
}

func TestSaveCalculatedPlans_Validation(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)

	tests := []struct {
		name string
		req  SaveRequest
	}{
		{"sales are not calculated", SaveRequest{Kind: plans.KindSales, SubdivisionID: shop, MaterialID: bread, Plans: yearOf(1)}},
		{"missing subdivision", SaveRequest{Kind: plans.KindInventory, MaterialID: bread, Plans: yearOf(1)}},
		{"empty plans", SaveRequest{Kind: plans.KindInventory, SubdivisionID: shop, MaterialID: bread}},
		{"duplicate month", SaveRequest{Kind: plans.KindInventory, SubdivisionID: shop, MaterialID: bread, Plans: []CalculatedPlan{
			{Date: month(2024, 1), Quantity: 1},
			{Date: month(2024, 1).AddDate(0, 0, 3), Quantity: 2},
		}}},
		{"months span two years", SaveRequest{Kind: plans.KindInventory, SubdivisionID: shop, MaterialID: bread, Plans: []CalculatedPlan{
			{Date: month(2024, 12), Quantity: 1},
			{Date: month(2025, 1), Quantity: 2},
		}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.SaveCalculatedPlans(f.ctx, tt.req)
			assert.True(t, apperror.HasCode(err, apperror.CodeValidation), "got %v", err)
		})
	}
}

func TestSaveCalculatedPlans_UnknownReferenceIsConflict(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)

	_, err := f.svc.SaveCalculatedPlans(f.ctx, SaveRequest{
		Kind:          plans.KindInventory,
		SubdivisionID: shop,
		MaterialID:    4242,
		Plans:         yearOf(1),
	})
	assert.True(t, apperror.IsConflict(err))
}

// failingRepo fails UpsertBatch after writing the first half of the rows.
type failingRepo struct {
	plans.Repository
}

func (r failingRepo) UpsertBatch(ctx context.Context, rows []plans.Row) error {
	if err := r.Repository.UpsertBatch(ctx, rows[:len(rows)/2]); err != nil {
		return err
	}
	return errors.New("connection reset")
}

func TestSaveCalculatedPlans_RollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.row(f.repos.Inventory, shop, bread, 2024, 1, 7)

	f.repos.Inventory = failingRepo{Repository: f.repos.Inventory}

	_, err := f.svc.SaveCalculatedPlans(f.ctx, SaveRequest{
		Kind:              plans.KindInventory,
		SubdivisionID:     shop,
		MaterialID:        bread,
		Plans:             yearOf(99),
		OverwriteExisting: true,
	})
	require.Error(t, err)
	assert.True(t, apperror.HasCode(err, apperror.CodeTransaction))

	rows := f.saved(f.repos.Inventory, shop, bread, 2024)
	require.Len(t, rows, 1)
	assert.Equal(t, 7.0, rows[0].Quantity)

	history, err := f.svc.GetHistoryPlans(f.ctx, plans.KindInventory, shop, bread, 2024)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSaveCalculatedPlans_CancelledContextRollsBack(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)

	ctx, cancel := context.WithCancel(f.ctx)
	cancel()

	_, err := f.svc.SaveCalculatedPlans(ctx, SaveRequest{
		Kind:          plans.KindInventory,
		SubdivisionID: shop,
		MaterialID:    bread,
		Plans:         yearOf(3),
	})
	require.Error(t, err)
	assert.Empty(t, f.saved(f.repos.Inventory, shop, bread, 2024))
}
