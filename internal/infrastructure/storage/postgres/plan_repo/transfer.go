package plan_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"

	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/storage/postgres"
)

const (
	transferTable  = "transfer_plans"
	transferEntity = "transfer plan"
)

var (
	_ plans.TransferRepository = (*TransferRepo)(nil)

	transferColumns    = postgres.ExtractDBColumns[plans.TransferRow]()
	transferInsertCols = postgres.WithoutColumns(transferColumns, "id")
)

// TransferRepo stores transfer plans.
type TransferRepo struct {
	txManager *postgres.TxManager
	inserter  *postgres.BatchInserter
}

// NewTransferRepo creates a transfer repository.
func NewTransferRepo(txManager *postgres.TxManager) *TransferRepo {
	return &TransferRepo{txManager: txManager, inserter: postgres.NewBatchInserter(txManager)}
}

// Upsert inserts or replaces the transfer for its key.
func (r *TransferRepo) Upsert(ctx context.Context, row *plans.TransferRow) error {
	row.Normalize()
	cols := postgres.WithoutColumns(transferInsertCols, "created_at", "updated_at")

	sql, args, err := builder().
		Insert(transferTable).
		Columns(cols...).
		Values(postgres.StructValues(row, cols)...).
		Suffix(`ON CONFLICT (source_subdivision_id, destination_subdivision_id, material_id, date) DO UPDATE SET
	quantity = EXCLUDED.quantity,
	is_calculated = EXCLUDED.is_calculated,
	updated_at = now()
RETURNING id, created_at, updated_at`).
		ToSql()
	if err != nil {
		return fmt.Errorf("build upsert: %w", err)
	}

	err = r.txManager.GetQuerier(ctx).QueryRow(ctx, sql, args...).Scan(&row.ID, &row.CreatedAt, &row.UpdatedAt)
	return postgres.MapError(err, transferEntity, row.Date)
}

// Query returns transfers ordered by date, then source, destination and material.
func (r *TransferRepo) Query(ctx context.Context, f plans.TransferFilter) ([]plans.TransferRow, error) {
	q := builder().
		Select(transferColumns...).
		From(transferTable).
		Where(periodWhere(f.Year, f.From, f.To)).
		OrderBy("date", "source_subdivision_id", "destination_subdivision_id", "material_id")
	if f.SourceSubdivisionID != 0 {
		q = q.Where(squirrel.Eq{"source_subdivision_id": f.SourceSubdivisionID})
	}
	if f.DestinationSubdivisionID != 0 {
		q = q.Where(squirrel.Eq{"destination_subdivision_id": f.DestinationSubdivisionID})
	}
	if f.MaterialID != 0 {
		q = q.Where(squirrel.Eq{"material_id": f.MaterialID})
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []plans.TransferRow
	if err := pgxscan.Select(ctx, r.txManager.GetQuerier(ctx), &rows, sql, args...); err != nil {
		return nil, postgres.MapError(err, transferEntity, nil)
	}
	return rows, nil
}

// GetByID retrieves one transfer.
func (r *TransferRepo) GetByID(ctx context.Context, id int64) (*plans.TransferRow, error) {
	sql, args, err := builder().Select(transferColumns...).From(transferTable).Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row plans.TransferRow
	if err := pgxscan.Get(ctx, r.txManager.GetQuerier(ctx), &row, sql, args...); err != nil {
		return nil, postgres.MapError(err, transferEntity, id)
	}
	return &row, nil
}

// DeleteByID removes one transfer.
func (r *TransferRepo) DeleteByID(ctx context.Context, id int64) error {
	n, err := r.delete(ctx, squirrel.Eq{"id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return postgres.MapError(pgx.ErrNoRows, transferEntity, id)
	}
	return nil
}

// DeleteByIDs removes the listed transfers; unknown IDs are ignored.
func (r *TransferRepo) DeleteByIDs(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return r.delete(ctx, squirrel.Eq{"id": ids})
}

// DeleteByKey removes one year of transfers leaving the source subdivision.
func (r *TransferRepo) DeleteByKey(ctx context.Context, sourceSubdivisionID, materialID int64, year int) (int64, error) {
	return r.delete(ctx, squirrel.And{
		squirrel.Eq{"source_subdivision_id": sourceSubdivisionID, "material_id": materialID},
		periodWhere(year, noTime, noTime),
	})
}

func (r *TransferRepo) delete(ctx context.Context, where squirrel.Sqlizer) (int64, error) {
	sql, args, err := builder().Delete(transferTable).Where(where).ToSql()
	if err != nil {
		return 0, fmt.Errorf("build delete: %w", err)
	}
	tag, err := r.txManager.GetQuerier(ctx).Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, transferEntity, nil)
	}
	return tag.RowsAffected(), nil
}

// InsertBatch copies rows into transfer_plans. It must run inside a
// transaction; an existing key fails the whole batch with DUPLICATE_ENTRY.
// COPY does not return generated IDs, so rows keep ID zero.
func (r *TransferRepo) InsertBatch(ctx context.Context, rows []plans.TransferRow) error {
	now := time.Now().UTC()
	data := make([][]any, 0, len(rows))
	for i := range rows {
		rows[i].Normalize()
		rows[i].CreatedAt, rows[i].UpdatedAt = now, now
		data = append(data, postgres.StructValues(&rows[i], transferInsertCols))
	}

	_, err := r.inserter.CopyFromSlice(ctx, transferTable, transferInsertCols, data)
	return postgres.MapError(err, transferEntity, len(rows))
}
