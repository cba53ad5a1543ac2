package plans

import (
	"context"
	"time"
)

// AuditEntry records one save of calculated plans.
type AuditEntry struct {
	ID            int64     `json:"id"`
	Kind          Kind      `json:"kind"`
	SubdivisionID int64     `json:"subdivisionId"`
	MaterialID    int64     `json:"materialId"`
	Year          int       `json:"year"`
	Comment       string    `json:"comment,omitempty"`
	Operator      string    `json:"operator"`
	Previous      []Row     `json:"previous"`
	Saved         []Row     `json:"saved"`
	CreatedAt     time.Time `json:"createdAt"`
}

// AuditJournal appends save records inside the caller's transaction.
type AuditJournal interface {
	Record(ctx context.Context, entry *AuditEntry) error
	History(ctx context.Context, kind Kind, subdivisionID, materialID int64, year int) ([]AuditEntry, error)
}
