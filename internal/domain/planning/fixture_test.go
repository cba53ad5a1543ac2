package planning

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/storage/memory"
	"supplyplan/pkg/logger"
)

type fixture struct {
	t     *testing.T
	ctx   context.Context
	store *memory.Store
	repos *plans.Repositories
	svc   *Service
}

func newFixture(t *testing.T, frozen ...string) *fixture {
	t.Helper()
	store := memory.NewStore()
	repos := store.Repositories()
	svc := NewService(Deps{
		Reference: store,
		Plans:     repos,
		Audit:     store,
		TxManager: store,
		Frozen:    period.MustFrozenSet(frozen...),
		Years:     period.YearRange{Min: 2020, Max: 2100},
		Logger:    logger.NewNop(),
	})
	return &fixture{t: t, ctx: context.Background(), store: store, repos: repos, svc: svc}
}

func month(year, m int) time.Time {
	return period.Month(year, time.Month(m))
}

func (f *fixture) subdivision(name string, typ reference.SubdivisionType) int64 {
	f.t.Helper()
	s := &reference.Subdivision{Name: name, Type: typ}
	require.NoError(f.t, f.store.CreateSubdivision(f.ctx, s))
	return s.ID
}

func (f *fixture) material(name string, typ reference.MaterialType) int64 {
	f.t.Helper()
	m := &reference.Material{Name: name, Type: typ}
	require.NoError(f.t, f.store.CreateMaterial(f.ctx, m))
	return m.ID
}

func (f *fixture) regulation(sub, mat int64, year, m, days int) {
	f.t.Helper()
	require.NoError(f.t, f.store.UpsertRegulation(f.ctx, &reference.Regulation{
		SubdivisionID: sub, MaterialID: mat, Date: month(year, m), DaysCount: days,
	}))
}

// regulationsAll sets the same norm for every month of year and January of year+1.
func (f *fixture) regulationsAll(sub, mat int64, year, days int) {
	f.t.Helper()
	for m := 1; m <= 12; m++ {
		f.regulation(sub, mat, year, m, days)
	}
	f.regulation(sub, mat, year+1, 1, days)
}

func (f *fixture) card(sub, product, raw int64, ratio string) {
	f.t.Helper()
	require.NoError(f.t, f.store.CreateTechnologicalCard(f.ctx, &reference.TechnologicalCard{
		SubdivisionID: sub, FinishedProductID: product, RawMaterialID: raw, RawMaterialPerUnit: types.MustRatio(ratio),
	}))
}

func (f *fixture) supply(dest, mat int64, year, m int, source int64) {
	f.t.Helper()
	src := &reference.SupplySource{DestinationSubdivisionID: dest, MaterialID: mat, Year: year, Month: m}
	if source != 0 {
		src.SourceSubdivisionID = &source
	}
	require.NoError(f.t, f.store.UpsertSupplySource(f.ctx, src))
}

func (f *fixture) row(repo plans.Repository, sub, mat int64, year, m int, qty float64) {
	f.t.Helper()
	require.NoError(f.t, repo.Upsert(f.ctx, &plans.Row{
		SubdivisionID: sub, MaterialID: mat, Date: month(year, m), Quantity: qty,
	}))
}

func (f *fixture) transfer(source, dest, mat int64, year, m int, qty float64) {
	f.t.Helper()
	require.NoError(f.t, f.repos.Transfers.Upsert(f.ctx, &plans.TransferRow{
		SourceSubdivisionID: source, DestinationSubdivisionID: dest, MaterialID: mat, Date: month(year, m), Quantity: qty,
	}))
}

func (f *fixture) saved(repo plans.Repository, sub, mat int64, year int) []plans.Row {
	f.t.Helper()
	rows, err := repo.Query(f.ctx, plans.Filter{SubdivisionID: sub, MaterialID: mat, Year: year})
	require.NoError(f.t, err)
	return rows
}
