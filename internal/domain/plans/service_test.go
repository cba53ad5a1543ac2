package plans_test

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
	"supplyplan/internal/infrastructure/storage/memory"
)

type env struct {
	ctx        context.Context
	store      *memory.Store
	svc        *plans.Service
	shop, mill int64
	bread      int64
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	shop := &reference.Subdivision{Name: "Shop", Type: reference.SubdivisionTrading}
	mill := &reference.Subdivision{Name: "Mill", Type: reference.SubdivisionProduction}
	bread := &reference.Material{Name: "Bread", Type: reference.MaterialFinished}
	require.NoError(t, store.CreateSubdivision(ctx, shop))
	require.NoError(t, store.CreateSubdivision(ctx, mill))
	require.NoError(t, store.CreateMaterial(ctx, bread))

	svc := plans.NewService(store.Repositories(), store, period.YearRange{Min: 2020, Max: 2030})
	return &env{ctx: ctx, store: store, svc: svc, shop: shop.ID, mill: mill.ID, bread: bread.ID}
}

func (e *env) sales(t *testing.T, year, month int, qty float64) *plans.Row {
	t.Helper()
	row := &plans.Row{
		SubdivisionID: e.shop,
		MaterialID:    e.bread,
		Date:          period.Month(year, time.Month(month)).AddDate(0, 0, 14),
		Quantity:      qty,
	}
	require.NoError(t, e.svc.Save(e.ctx, plans.KindSales, row))
	return row
}

func TestService_SaveNormalizesAndUpserts(t *testing.T) {
	e := newEnv(t)

	first := e.sales(t, 2024, 3, 100)
	assert.Equal(t, period.Month(2024, time.March), first.Date)

	second := e.sales(t, 2024, 3, 120)
	assert.Equal(t, first.ID, second.ID)

	got, err := e.svc.Get(e.ctx, plans.KindSales, first.ID)
	require.NoError(t, err)
	assert.Equal(t, 120.0, got.Quantity)
}

func TestService_SaveValidation(t *testing.T) {
	e := newEnv(t)

	tests := []struct {
		name string
		kind plans.Kind
		row  plans.Row
		code string
	}{
		{
			name: "negative sales",
			kind: plans.KindSales,
			row:  plans.Row{SubdivisionID: e.shop, MaterialID: e.bread, Date: period.Month(2024, time.May), Quantity: -1},
			code: apperror.CodeValidation,
		},
		{
			name: "year outside range",
			kind: plans.KindInventory,
			row:  plans.Row{SubdivisionID: e.shop, MaterialID: e.bread, Date: period.Month(2031, time.May)},
			code: apperror.CodeValidation,
		},
		{
			name: "missing material",
			kind: plans.KindInventory,
			row:  plans.Row{SubdivisionID: e.shop, Date: period.Month(2024, time.May)},
			code: apperror.CodeValidation,
		},
		{
			name: "transfer kind is not row shaped",
			kind: plans.KindTransfer,
			row:  plans.Row{SubdivisionID: e.shop, MaterialID: e.bread, Date: period.Month(2024, time.May)},
			code: apperror.CodeValidation,
		},
		{
			name: "unknown subdivision",
			kind: plans.KindInventory,
			row:  plans.Row{SubdivisionID: 999, MaterialID: e.bread, Date: period.Month(2024, time.May)},
			code: apperror.CodeConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := tt.row
			err := e.svc.Save(e.ctx, tt.kind, &row)
			require.Error(t, err)
			assert.True(t, apperror.HasCode(err, tt.code), "got %v", err)
		})
	}
}

func TestService_ListBoundsOpenRanges(t *testing.T) {
	e := newEnv(t)
	e.sales(t, 2020, 1, 10)
	e.sales(t, 2024, 6, 20)
	e.sales(t, 2030, 12, 30)

	all, err := e.svc.List(e.ctx, plans.KindSales, plans.Filter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	upTo, err := e.svc.List(e.ctx, plans.KindSales, plans.Filter{To: period.Month(2025, time.January)})
	require.NoError(t, err)
	require.Len(t, upTo, 2)
	assert.Equal(t, 10.0, upTo[0].Quantity)

	from, err := e.svc.List(e.ctx, plans.KindSales, plans.Filter{From: period.Month(2024, time.June)})
	require.NoError(t, err)
	assert.Len(t, from, 2)

	year, err := e.svc.List(e.ctx, plans.KindSales, plans.Filter{Year: 2024})
	require.NoError(t, err)
	require.Len(t, year, 1)
	assert.Equal(t, 20.0, year[0].Quantity)

	_, err = e.svc.List(e.ctx, plans.KindSales, plans.Filter{Year: 1990})
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_DeleteYear(t *testing.T) {
	e := newEnv(t)
	for m := 1; m <= 12; m++ {
		e.sales(t, 2024, m, 10)
	}
	e.sales(t, 2025, 1, 10)

	n, err := e.svc.DeleteYear(e.ctx, plans.KindSales, e.shop, e.bread, 2024)
	require.NoError(t, err)
	assert.EqualValues(t, 12, n)

	left, err := e.svc.List(e.ctx, plans.KindSales, plans.Filter{SubdivisionID: e.shop})
	require.NoError(t, err)
	assert.Len(t, left, 1)

	_, err = e.svc.DeleteYear(e.ctx, plans.KindSales, 0, e.bread, 2024)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestService_Delete_NotFound(t *testing.T) {
	e := newEnv(t)

	err := e.svc.Delete(e.ctx, plans.KindProduction, 42)
	assert.True(t, apperror.IsNotFound(err))

	_, err = e.svc.GetTransfer(e.ctx, 42)
	assert.True(t, apperror.IsNotFound(err))
}

func TestService_DeleteSurvivesConcurrentRollback(t *testing.T) {
	e := newEnv(t)
	row := e.sales(t, 2024, 5, 10)

	started := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- e.store.RunInTransaction(e.ctx, func(ctx context.Context) error {
			close(started)
			time.Sleep(50 * time.Millisecond)
			return errors.New("boom")
		})
	}()
	<-started

	require.NoError(t, e.svc.Delete(e.ctx, plans.KindSales, row.ID))
	require.EqualError(t, <-done, "boom")

	_, err := e.svc.Get(e.ctx, plans.KindSales, row.ID)
	assert.True(t, apperror.IsNotFound(err), "got %v", err)
}

func TestService_Transfers(t *testing.T) {
	e := newEnv(t)

	row := &plans.TransferRow{
		SourceSubdivisionID:      e.mill,
		DestinationSubdivisionID: e.shop,
		MaterialID:               e.bread,
		Date:                     period.Month(2024, time.April).AddDate(0, 0, 3),
		Quantity:                 75,
	}
	require.NoError(t, e.svc.SaveTransfer(e.ctx, row))
	assert.Equal(t, period.Month(2024, time.April), row.Date)

	same := &plans.TransferRow{SourceSubdivisionID: e.shop, DestinationSubdivisionID: e.shop, MaterialID: e.bread, Date: row.Date}
	assert.True(t, apperror.HasCode(e.svc.SaveTransfer(e.ctx, same), apperror.CodeValidation))

	listed, err := e.svc.ListTransfers(e.ctx, plans.TransferFilter{DestinationSubdivisionID: e.shop})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, 75.0, listed[0].Quantity)

	n, err := e.svc.DeleteYear(e.ctx, plans.KindTransfer, e.mill, e.bread, 2024)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
