package plan_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/storage/postgres"
)

var (
	_ plans.Repository = (*PlanRepo)(nil)

	rowColumns    = postgres.ExtractDBColumns[plans.Row]()
	rowInsertCols = postgres.WithoutColumns(rowColumns, "id", "created_at", "updated_at")
)

const rowUpsertSuffix = `ON CONFLICT (subdivision_id, material_id, date) DO UPDATE SET
	quantity = EXCLUDED.quantity,
	is_calculated = EXCLUDED.is_calculated,
	note = EXCLUDED.note,
	updated_at = now()
RETURNING id, created_at, updated_at`

// PlanRepo stores one Row kind in its own table.
type PlanRepo struct {
	txManager *postgres.TxManager
	kind      plans.Kind
	tableName string
	entity    string
}

// NewPlanRepo creates a repository for kind.
func NewPlanRepo(txManager *postgres.TxManager, kind plans.Kind) *PlanRepo {
	return &PlanRepo{
		txManager: txManager,
		kind:      kind,
		tableName: Tables[kind],
		entity:    string(kind) + " plan",
	}
}

func (r *PlanRepo) Kind() plans.Kind { return r.kind }

func (r *PlanRepo) upsertQuery(row *plans.Row) (string, []any, error) {
	row.Normalize()
	return builder().
		Insert(r.tableName).
		Columns(rowInsertCols...).
		Values(postgres.StructValues(row, rowInsertCols)...).
		Suffix(rowUpsertSuffix).
		ToSql()
}

// Upsert inserts or replaces the row for its key.
func (r *PlanRepo) Upsert(ctx context.Context, row *plans.Row) error {
	sql, args, err := r.upsertQuery(row)
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	return postgres.MapError(err, r.entity, row.Key())
}

// UpsertBatch sends all upserts in one round-trip inside a transaction.
func (r *PlanRepo) UpsertBatch(ctx context.Context, rows []plans.Row) error {
	if len(rows) == 0 {
		return nil
	}

	queries := make([]postgres.BatchQuery, 0, len(rows))
	for i := range rows {
		row := &rows[i]
		sql, args, err := r.upsertQuery(row)
		if err != nil {
			return fmt.Errorf("build upsert: %w", err)
		}
		queries = append(queries, postgres.BatchQuery{
			SQL:  sql,
			Args: args,
			Scan: func(res pgx.Row) error {
				return res.Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
			},
		})
	}

	return r.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		err := postgres.NewBatchExecutor(r.txManager).ExecuteBatch(ctx, queries)
		return postgres.MapError(err, r.entity, len(rows))
	})
}

// Query returns rows ordered by date, then subdivision and material.
func (r *PlanRepo) Query(ctx context.Context, f plans.Filter) ([]plans.Row, error) {
	sql, args, err := r.selectQuery(f)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []plans.Row
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, r.entity, nil)
	}
	return rows, nil
}

func (r *PlanRepo) selectQuery(f plans.Filter) (string, []any, error) {
	q := builder().
		Select(rowColumns...).
		From(r.tableName).
		Where(periodWhere(f.Year, f.From, f.To)).
		OrderBy("date", "subdivision_id", "material_id")
	if f.SubdivisionID != 0 {
		q = q.Where(squirrel.Eq{"subdivision_id": f.SubdivisionID})
	}
	if f.MaterialID != 0 {
		q = q.Where(squirrel.Eq{"material_id": f.MaterialID})
	}
	return q.ToSql()
}

// GetByID retrieves one row.
func (r *PlanRepo) GetByID(ctx context.Context, id int64) (*plans.Row, error) {
	sql, args, err := builder().
		Select(rowColumns...).
		From(r.tableName).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row plans.Row
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, r.entity, id)
	}
	return &row, nil
}

// DeleteByID removes one row.
func (r *PlanRepo) DeleteByID(ctx context.Context, id int64) error {
	sql, args, err := builder().Delete(r.tableName).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return postgres.MapError(err, r.entity, id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, r.entity, id)
	}
	return nil
}

// DeleteByKey removes one year of a (subdivision, material) pair.
func (r *PlanRepo) DeleteByKey(ctx context.Context, subdivisionID, materialID int64, year int) (int64, error) {
	sql, args, err := builder().
		Delete(r.tableName).
		Where(squirrel.Eq{"subdivision_id": subdivisionID, "material_id": materialID}).
		Where(periodWhere(year, noTime, noTime)).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}

	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, r.entity, nil)
	}
	return tag.RowsAffected(), nil
}
