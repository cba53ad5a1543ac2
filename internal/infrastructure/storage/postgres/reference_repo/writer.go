package reference_repo

import (
	"context"
	"fmt"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/reference"
	"supplyplan/internal/infrastructure/storage/postgres"
)

// insertReturningID runs an INSERT built from v's db tags and stores the
// generated id. A non-zero id is written explicitly.
func (r *Repo) insertReturningID(ctx context.Context, table, entity string, cols []string, v any, id *int64, suffix string) error {
	if *id == 0 {
		cols = postgres.WithoutColumns(cols, "id")
	}
	sql, args, err := builder().
		Insert(table).
		Columns(cols...).
		Values(postgres.StructValues(v, cols)...).
		Suffix(suffix + " RETURNING id").
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}
	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(id)
	return postgres.MapError(err, entity, *id)
}

// CreateSubdivision implements reference.Writer.
func (r *Repo) CreateSubdivision(ctx context.Context, s *reference.Subdivision) error {
	return r.insertReturningID(ctx, "subdivisions", "subdivision", subdivisionColumns, s, &s.ID, "")
}

// CreateMaterial implements reference.Writer.
func (r *Repo) CreateMaterial(ctx context.Context, m *reference.Material) error {
	return r.insertReturningID(ctx, "materials", "material", materialColumns, m, &m.ID, "")
}

// UpsertRegulation implements reference.Writer.
func (r *Repo) UpsertRegulation(ctx context.Context, reg *reference.Regulation) error {
	if err := reg.Validate(ctx); err != nil {
		return err
	}
	reg.Date = period.MonthStart(reg.Date)
	return r.insertReturningID(ctx, "regulations", "regulation", regulationColumns, reg, &reg.ID,
		"ON CONFLICT (subdivision_id, material_id, date) DO UPDATE SET days_count = EXCLUDED.days_count")
}

// CreateTechnologicalCard implements reference.Writer.
func (r *Repo) CreateTechnologicalCard(ctx context.Context, c *reference.TechnologicalCard) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	return r.insertReturningID(ctx, "technological_cards", "technological card", cardColumns, c, &c.ID, "")
}

// UpsertSupplySource implements reference.Writer.
func (r *Repo) UpsertSupplySource(ctx context.Context, src *reference.SupplySource) error {
	if err := src.Validate(ctx); err != nil {
		return err
	}
	return r.insertReturningID(ctx, "supply_sources", "supply source", sourceColumns, src, &src.ID,
		"ON CONFLICT (destination_subdivision_id, material_id, year, month) DO UPDATE SET source_subdivision_id = EXCLUDED.source_subdivision_id")
}

// ResetSequences moves every id sequence past explicitly inserted ids.
func (r *Repo) ResetSequences(ctx context.Context) error {
	for _, table := range []string{"subdivisions", "materials", "regulations", "technological_cards", "supply_sources"} {
		sql := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%s', 'id'), COALESCE(MAX(id), 0) + 1, false) FROM %s", table, table)
		if _, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql); err != nil {
			return fmt.Errorf("reset %s sequence: %w", table, err)
		}
	}
	return nil
}

