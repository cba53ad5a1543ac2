// Package reference_repo provides the PostgreSQL implementation of the
// reference-data repository and its seed writer.
package reference_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/storage/postgres"
)

var (
	_ reference.Repository = (*Repo)(nil)
	_ reference.Writer     = (*Repo)(nil)

	subdivisionColumns = postgres.ExtractDBColumns[reference.Subdivision]()
	materialColumns    = postgres.ExtractDBColumns[reference.Material]()
	regulationColumns  = postgres.ExtractDBColumns[reference.Regulation]()
	cardColumns        = postgres.ExtractDBColumns[reference.TechnologicalCard]()
	sourceColumns      = postgres.ExtractDBColumns[reference.SupplySource]()
)

// Repo reads and seeds reference tables.
type Repo struct {
	txManager *postgres.TxManager
}

// New creates a reference repository.
func New(txManager *postgres.TxManager) *Repo {
	return &Repo{txManager: txManager}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

func selectAll[T any](ctx context.Context, r *Repo, q squirrel.SelectBuilder, entity string) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out []T
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, entity, nil)
	}
	return out, nil
}

func getOne[T any](ctx context.Context, r *Repo, table string, cols []string, id int64, entity string) (*T, error) {
	sql, args, err := builder().Select(cols...).From(table).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	var out T
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, entity, id)
	}
	return &out, nil
}

// GetSubdivision implements reference.Repository.
func (r *Repo) GetSubdivision(ctx context.Context, id int64) (*reference.Subdivision, error) {
	return getOne[reference.Subdivision](ctx, r, "subdivisions", subdivisionColumns, id, "subdivision")
}

// GetMaterial implements reference.Repository.
func (r *Repo) GetMaterial(ctx context.Context, id int64) (*reference.Material, error) {
	return getOne[reference.Material](ctx, r, "materials", materialColumns, id, "material")
}

// ListSubdivisions implements reference.Repository.
func (r *Repo) ListSubdivisions(ctx context.Context, subType *reference.SubdivisionType) ([]reference.Subdivision, error) {
	q := builder().Select(subdivisionColumns...).From("subdivisions").OrderBy("id")
	if subType != nil {
		q = q.Where(squirrel.Eq{"type": string(*subType)})
	}
	return selectAll[reference.Subdivision](ctx, r, q, "subdivision")
}

// ListMaterials implements reference.Repository.
func (r *Repo) ListMaterials(ctx context.Context, matType *reference.MaterialType) ([]reference.Material, error) {
	q := builder().Select(materialColumns...).From("materials").OrderBy("id")
	if matType != nil {
		q = q.Where(squirrel.Eq{"type": string(*matType)})
	}
	return selectAll[reference.Material](ctx, r, q, "material")
}

// ListRegulations implements reference.Repository.
func (r *Repo) ListRegulations(ctx context.Context, f reference.RegulationFilter) ([]reference.Regulation, error) {
	q := builder().Select(regulationColumns...).From("regulations").OrderBy("subdivision_id", "material_id", "date")
	if f.SubdivisionID != 0 {
		q = q.Where(squirrel.Eq{"subdivision_id": f.SubdivisionID})
	}
	if f.MaterialID != 0 {
		q = q.Where(squirrel.Eq{"material_id": f.MaterialID})
	}
	if f.Year != 0 {
		from, to := period.YearBounds(f.Year)
		q = q.Where(squirrel.GtOrEq{"date": from}).Where(squirrel.Lt{"date": to})
	}
	return selectAll[reference.Regulation](ctx, r, q, "regulation")
}

// ListTechnologicalCards implements reference.Repository.
func (r *Repo) ListTechnologicalCards(ctx context.Context, f reference.CardFilter) ([]reference.TechnologicalCard, error) {
	q := builder().Select(cardColumns...).From("technological_cards").OrderBy("id")
	if f.SubdivisionID != 0 {
		q = q.Where(squirrel.Eq{"subdivision_id": f.SubdivisionID})
	}
	if f.RawMaterialID != 0 {
		q = q.Where(squirrel.Eq{"raw_material_id": f.RawMaterialID})
	}
	if f.FinishedProductID != 0 {
		q = q.Where(squirrel.Eq{"finished_product_id": f.FinishedProductID})
	}
	return selectAll[reference.TechnologicalCard](ctx, r, q, "technological card")
}

// ListSupplySources implements reference.Repository.
func (r *Repo) ListSupplySources(ctx context.Context, year int) ([]reference.SupplySource, error) {
	q := builder().
		Select(sourceColumns...).
		From("supply_sources").
		Where(squirrel.Eq{"year": year}).
		OrderBy("destination_subdivision_id", "material_id", "month")
	return selectAll[reference.SupplySource](ctx, r, q, "supply source")
}
