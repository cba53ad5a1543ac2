package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// BatchInserter performs bulk inserts using the COPY protocol.
// The transfer recompute writes a whole year of rows through it.
type BatchInserter struct {
	txManager *TxManager
}

// NewBatchInserter creates a new batch inserter.
func NewBatchInserter(txManager *TxManager) *BatchInserter {
	return &BatchInserter{txManager: txManager}
}

// CopyFromSlice performs bulk insert from a slice of rows.
func (b *BatchInserter) CopyFromSlice(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	tx := b.txManager.GetTx(ctx)
	if tx == nil {
		return 0, fmt.Errorf("CopyFromSlice requires transaction context")
	}
	if len(rows) == 0 {
		return 0, nil
	}
	return tx.CopyFrom(ctx, pgx.Identifier{table}, columns, pgx.CopyFromRows(rows))
}

// BatchExecutor sends several statements in a single round-trip.
type BatchExecutor struct {
	txManager *TxManager
}

// NewBatchExecutor creates a new batch executor.
func NewBatchExecutor(txManager *TxManager) *BatchExecutor {
	return &BatchExecutor{txManager: txManager}
}

// BatchQuery represents a query in a batch. Scan, when set, reads the single
// row the statement returns.
type BatchQuery struct {
	SQL  string
	Args []any
	Scan func(row pgx.Row) error
}

// ExecuteBatch executes the queries in order and stops at the first failure.
func (e *BatchExecutor) ExecuteBatch(ctx context.Context, queries []BatchQuery) error {
	tx := e.txManager.GetTx(ctx)
	if tx == nil {
		return fmt.Errorf("ExecuteBatch requires transaction context")
	}
	if len(queries) == 0 {
		return nil
	}

	batch := &pgx.Batch{}
	for _, q := range queries {
		batch.Queue(q.SQL, q.Args...)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i, q := range queries {
		if q.Scan != nil {
			if err := q.Scan(results.QueryRow()); err != nil {
				return fmt.Errorf("batch query %d: %w", i, err)
			}
			continue
		}
		if _, err := results.Exec(); err != nil {
			return fmt.Errorf("batch query %d: %w", i, err)
		}
	}
	return nil
}
