package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

func seed(t *testing.T) (*Store, int64, int64) {
	t.Helper()
	ctx := context.Background()
	s := NewStore()
	sub := &reference.Subdivision{Name: "Shop", Type: reference.SubdivisionTrading}
	mat := &reference.Material{Name: "Bread", Type: reference.MaterialFinished}
	require.NoError(t, s.CreateSubdivision(ctx, sub))
	require.NoError(t, s.CreateMaterial(ctx, mat))
	return s, sub.ID, mat.ID
}

func TestPlanRepo_UpsertReplacesByKey(t *testing.T) {
	s, sub, mat := seed(t)
	ctx := context.Background()
	repo := s.Repositories().Sales

	first := &plans.Row{SubdivisionID: sub, MaterialID: mat, Date: time.Date(2024, 3, 17, 0, 0, 0, 0, time.UTC), Quantity: 10}
	require.NoError(t, repo.Upsert(ctx, first))
	second := &plans.Row{SubdivisionID: sub, MaterialID: mat, Date: period.Month(2024, time.March), Quantity: 20}
	require.NoError(t, repo.Upsert(ctx, second))

	assert.Equal(t, first.ID, second.ID)
	rows, err := repo.Query(ctx, plans.Filter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 20.0, rows[0].Quantity)
	assert.Equal(t, period.Month(2024, time.March), rows[0].Date)
}

func TestPlanRepo_QueryOrdersByDateAcrossKeys(t *testing.T) {
	s, first, mat := seed(t)
	ctx := context.Background()
	second := &reference.Subdivision{Name: "Shop 2", Type: reference.SubdivisionTrading}
	require.NoError(t, s.CreateSubdivision(ctx, second))
	repo := s.Repositories().Sales

	require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: first, MaterialID: mat, Date: period.Month(2024, time.June)}))
	require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: second.ID, MaterialID: mat, Date: period.Month(2024, time.January)}))
	require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: first, MaterialID: mat, Date: period.Month(2024, time.January)}))

	rows, err := repo.Query(ctx, plans.Filter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, period.Month(2024, time.January), rows[0].Date)
	assert.Equal(t, first, rows[0].SubdivisionID)
	assert.Equal(t, second.ID, rows[1].SubdivisionID)
	assert.Equal(t, period.Month(2024, time.June), rows[2].Date)
}

func TestPlanRepo_UnknownReferenceIsConflict(t *testing.T) {
	s, sub, _ := seed(t)
	err := s.Repositories().Inventory.Upsert(context.Background(), &plans.Row{
		SubdivisionID: sub, MaterialID: 999, Date: period.Month(2024, time.January),
	})
	assert.True(t, apperror.IsConflict(err))
}

func TestPlanRepo_DeleteAndGet(t *testing.T) {
	s, sub, mat := seed(t)
	ctx := context.Background()
	repo := s.Repositories().Production

	for m := time.January; m <= time.March; m++ {
		require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: sub, MaterialID: mat, Date: period.Month(2024, m)}))
	}
	require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: sub, MaterialID: mat, Date: period.Month(2025, time.January)}))

	n, err := repo.DeleteByKey(ctx, sub, mat, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	_, err = repo.GetByID(ctx, 12345)
	assert.True(t, apperror.IsNotFound(err))
	assert.True(t, apperror.IsNotFound(repo.DeleteByID(ctx, 12345)))

	rows, err := repo.Query(ctx, plans.Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	got, err := repo.GetByID(ctx, rows[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 2025, got.Date.Year())
}

func TestStore_RunInTransactionRollsBack(t *testing.T) {
	s, sub, mat := seed(t)
	ctx := context.Background()
	repo := s.Repositories().Inventory

	err := s.RunInTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Upsert(ctx, &plans.Row{SubdivisionID: sub, MaterialID: mat, Date: period.Month(2024, time.May)}))
		require.NoError(t, s.Record(ctx, &plans.AuditEntry{Kind: plans.KindInventory, SubdivisionID: sub, MaterialID: mat, Year: 2024}))
		return s.RunInTransaction(ctx, func(ctx context.Context) error {
			return errors.New("boom")
		})
	})
	require.EqualError(t, err, "boom")

	rows, err := repo.Query(ctx, plans.Filter{})
	require.NoError(t, err)
	assert.Empty(t, rows)
	history, err := s.History(ctx, plans.KindInventory, sub, mat, 2024)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestTransferRepo_InsertBatchRejectsDuplicates(t *testing.T) {
	s, shop, mat := seed(t)
	ctx := context.Background()
	plant := &reference.Subdivision{Name: "Plant", Type: reference.SubdivisionProduction}
	require.NoError(t, s.CreateSubdivision(ctx, plant))
	repo := s.Repositories().Transfers

	row := plans.TransferRow{SourceSubdivisionID: plant.ID, DestinationSubdivisionID: shop, MaterialID: mat, Date: period.Month(2024, time.June), Quantity: 5}
	require.NoError(t, repo.InsertBatch(ctx, []plans.TransferRow{row}))
	err := repo.InsertBatch(ctx, []plans.TransferRow{row})
	assert.True(t, apperror.HasCode(err, apperror.CodeDuplicate))

	rows, err := repo.Query(ctx, plans.TransferFilter{DestinationSubdivisionID: shop})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	n, err := repo.DeleteByIDs(ctx, []int64{rows[0].ID, 777})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}
