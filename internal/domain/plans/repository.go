package plans

import (
	"context"
	"fmt"
	"time"
)

// Filter narrows a plan query. Zero values match everything; when Year is
// zero the query is bounded by [From, To) instead.
type Filter struct {
	Year          int
	SubdivisionID int64
	MaterialID    int64
	From          time.Time
	To            time.Time
}

// Repository is the storage contract shared by every Row-shaped plan kind.
type Repository interface {
	Kind() Kind

	// Upsert inserts or replaces the row for its key and fills ID and timestamps.
	// Unknown subdivision or material yields a CONFLICT error.
	Upsert(ctx context.Context, row *Row) error

	// UpsertBatch upserts rows in order within the caller's transaction.
	UpsertBatch(ctx context.Context, rows []Row) error

	// Query returns rows ordered by date; subdivision and material break ties.
	Query(ctx context.Context, filter Filter) ([]Row, error)

	GetByID(ctx context.Context, id int64) (*Row, error)
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByKey removes one year of a (subdivision, material) pair.
	DeleteByKey(ctx context.Context, subdivisionID, materialID int64, year int) (int64, error)
}

// TransferFilter narrows a transfer query. Zero values match everything.
type TransferFilter struct {
	Year                     int
	SourceSubdivisionID      int64
	DestinationSubdivisionID int64
	MaterialID               int64
	From                     time.Time
	To                       time.Time
}

// TransferRepository stores transfer plans.
type TransferRepository interface {
	Upsert(ctx context.Context, row *TransferRow) error
	// Query returns rows ordered by date; subdivisions and material break ties.
	Query(ctx context.Context, filter TransferFilter) ([]TransferRow, error)
	GetByID(ctx context.Context, id int64) (*TransferRow, error)
	DeleteByID(ctx context.Context, id int64) error

	// DeleteByIDs and InsertBatch back the destructive yearly recompute.
	DeleteByIDs(ctx context.Context, ids []int64) (int64, error)
	InsertBatch(ctx context.Context, rows []TransferRow) error

	// DeleteByKey removes one year of transfers leaving the source subdivision.
	DeleteByKey(ctx context.Context, sourceSubdivisionID, materialID int64, year int) (int64, error)
}

// Repositories groups the plan tables.
type Repositories struct {
	Sales      Repository
	Inventory  Repository
	Production Repository
	WriteOff   Repository
	Purchase   Repository
	Transfers  TransferRepository
}

// ByKind returns the Row repository of a kind. Transfers are not Row-shaped.
func (r *Repositories) ByKind(kind Kind) (Repository, error) {
	switch kind {
	case KindSales:
		return r.Sales, nil
	case KindInventory:
		return r.Inventory, nil
	case KindProduction:
		return r.Production, nil
	case KindWriteOff:
		return r.WriteOff, nil
	case KindPurchase:
		return r.Purchase, nil
	}
	return nil, fmt.Errorf("no row repository for plan kind %q", kind)
}

