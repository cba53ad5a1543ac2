package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/klauspost/compress/zstd"

	appctx "supplyplan/internal/core/context"
	"supplyplan/internal/domain/plans"
)

var _ plans.AuditJournal = (*AuditJournal)(nil)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// auditPayload is the JSON body of a plan_audit row.
type auditPayload struct {
	Previous []plans.Row `json:"previous"`
	Saved    []plans.Row `json:"saved"`
}

type auditRecord struct {
	ID                int64           `db:"id"`
	Kind              string          `db:"kind"`
	SubdivisionID     int64           `db:"subdivision_id"`
	MaterialID        int64           `db:"material_id"`
	Year              int             `db:"year"`
	Comment           string          `db:"comment"`
	Operator          string          `db:"operator"`
	Payload           json.RawMessage `db:"payload"`
	PayloadCompressed []byte          `db:"payload_compressed"`
	CompressionAlgo   CompressionAlgo `db:"compression_algo"`
	CreatedAt         time.Time       `db:"created_at"`
}

// AuditJournal stores one row per save of calculated plans in plan_audit.
// Payloads above the threshold are zstd-compressed.
type AuditJournal struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int
}

// NewAuditJournal creates a journal with a 10KB compression threshold.
func NewAuditJournal(txManager *TxManager) (*AuditJournal, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &AuditJournal{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024,
	}, nil
}

// Record inserts the entry and fills ID and CreatedAt.
func (j *AuditJournal) Record(ctx context.Context, entry *plans.AuditEntry) error {
	if entry.Operator == "" {
		entry.Operator = appctx.GetOperator(ctx)
	}

	payload, err := json.Marshal(auditPayload{Previous: entry.Previous, Saved: entry.Saved})
	if err != nil {
		return fmt.Errorf("marshal audit payload: %w", err)
	}
	var compressed []byte
	algo := CompressionNone
	if len(payload) > j.compressThreshold {
		compressed = j.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO plan_audit (
			kind, subdivision_id, material_id, year, comment, operator,
			payload, payload_compressed, compression_algo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`
	row := j.txManager.GetQuerier(ctx).QueryRow(ctx, sql,
		string(entry.Kind), entry.SubdivisionID, entry.MaterialID, entry.Year,
		entry.Comment, entry.Operator, payload, compressed, algo,
	)
	if err := row.Scan(&entry.ID, &entry.CreatedAt); err != nil {
		return fmt.Errorf("insert plan_audit: %w", err)
	}
	return nil
}

// History returns the saves of one plan key, newest first.
func (j *AuditJournal) History(ctx context.Context, kind plans.Kind, subdivisionID, materialID int64, year int) ([]plans.AuditEntry, error) {
	sql := `
		SELECT id, kind, subdivision_id, material_id, year, comment, operator,
			   payload, payload_compressed, compression_algo, created_at
		FROM plan_audit
		WHERE kind = $1 AND subdivision_id = $2 AND material_id = $3 AND year = $4
		ORDER BY created_at DESC, id DESC
	`

	var records []auditRecord
	if err := pgxscan.Select(ctx, j.txManager.GetQuerier(ctx), &records, sql,
		string(kind), subdivisionID, materialID, year); err != nil {
		return nil, fmt.Errorf("query plan_audit: %w", err)
	}

	out := make([]plans.AuditEntry, 0, len(records))
	for _, rec := range records {
		entry, err := j.decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

func (j *AuditJournal) decode(rec auditRecord) (plans.AuditEntry, error) {
	payload := []byte(rec.Payload)
	if rec.CompressionAlgo == CompressionZstd && len(rec.PayloadCompressed) > 0 {
		decompressed, err := j.decoder.DecodeAll(rec.PayloadCompressed, nil)
		if err != nil {
			return plans.AuditEntry{}, fmt.Errorf("decompress audit %d: %w", rec.ID, err)
		}
		payload = decompressed
	}

	var body auditPayload
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &body); err != nil {
			return plans.AuditEntry{}, fmt.Errorf("unmarshal audit %d: %w", rec.ID, err)
		}
	}

	return plans.AuditEntry{
		ID:            rec.ID,
		Kind:          plans.Kind(rec.Kind),
		SubdivisionID: rec.SubdivisionID,
		MaterialID:    rec.MaterialID,
		Year:          rec.Year,
		Comment:       rec.Comment,
		Operator:      rec.Operator,
		Previous:      body.Previous,
		Saved:         body.Saved,
		CreatedAt:     rec.CreatedAt,
	}, nil
}
