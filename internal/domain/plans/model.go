// Package plans defines persisted monthly plan rows and their repositories.
// Every kind shares one shape keyed by (subdivision, material, month);
// transfer plans add a destination subdivision.
package plans

import (
	"context"
	"time"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
)

// Kind identifies a plan table.
type Kind string

const (
	KindSales      Kind = "sales"
	KindInventory  Kind = "inventory"
	KindProduction Kind = "production"
	KindWriteOff   Kind = "writeoff"
	KindPurchase   Kind = "purchase"
	KindTransfer   Kind = "transfer"
)

// Kinds lists the kinds stored as Row.
var Kinds = []Kind{KindSales, KindInventory, KindProduction, KindWriteOff, KindPurchase}

// Row is one persisted month of a plan.
type Row struct {
	ID            int64     `db:"id" json:"id"`
	SubdivisionID int64     `db:"subdivision_id" json:"subdivisionId"`
	MaterialID    int64     `db:"material_id" json:"materialId"`
	Date          time.Time `db:"date" json:"date"`
	Quantity      float64   `db:"quantity" json:"quantity"`
	IsCalculated  bool      `db:"is_calculated" json:"isCalculated"`
	Note          string    `db:"note" json:"note,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time `db:"updated_at" json:"updatedAt"`
}

// Key returns the unique key of the row.
func (r *Row) Key() Key {
	return Key{SubdivisionID: r.SubdivisionID, MaterialID: r.MaterialID, Date: r.Date}
}

// Normalize moves the date to the first of the month.
func (r *Row) Normalize() {
	r.Date = period.MonthStart(r.Date)
}

// Validate checks the row before it is written.
func (r *Row) Validate(_ context.Context) error {
	if r.SubdivisionID <= 0 {
		return apperror.NewValidation("subdivisionId is required").WithDetail("field", "subdivisionId")
	}
	if r.MaterialID <= 0 {
		return apperror.NewValidation("materialId is required").WithDetail("field", "materialId")
	}
	if r.Date.IsZero() {
		return apperror.NewValidation("date is required").WithDetail("field", "date")
	}
	return nil
}

// Key identifies one month of one (subdivision, material) pair.
type Key struct {
	SubdivisionID int64
	MaterialID    int64
	Date          time.Time
}

// TransferRow is one month of goods moving from a production subdivision
// to a trading subdivision.
type TransferRow struct {
	ID                       int64     `db:"id" json:"id"`
	SourceSubdivisionID      int64     `db:"source_subdivision_id" json:"sourceSubdivisionId"`
	DestinationSubdivisionID int64     `db:"destination_subdivision_id" json:"destinationSubdivisionId"`
	MaterialID               int64     `db:"material_id" json:"materialId"`
	Date                     time.Time `db:"date" json:"transferDate"`
	Quantity                 float64   `db:"quantity" json:"quantity"`
	IsCalculated             bool      `db:"is_calculated" json:"isCalculated"`
	CreatedAt                time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt                time.Time `db:"updated_at" json:"updatedAt"`
}

// Normalize moves the date to the first of the month.
func (r *TransferRow) Normalize() {
	r.Date = period.MonthStart(r.Date)
}

// Validate checks the row before it is written.
func (r *TransferRow) Validate(_ context.Context) error {
	if r.SourceSubdivisionID <= 0 || r.DestinationSubdivisionID <= 0 {
		return apperror.NewValidation("source and destination subdivisions are required")
	}
	if r.SourceSubdivisionID == r.DestinationSubdivisionID {
		return apperror.NewValidation("source and destination must differ")
	}
	if r.MaterialID <= 0 {
		return apperror.NewValidation("materialId is required").WithDetail("field", "materialId")
	}
	if r.Quantity < 0 {
		return apperror.NewValidation("quantity must not be negative").WithDetail("field", "quantity")
	}
	if r.Date.IsZero() {
		return apperror.NewValidation("transferDate is required").WithDetail("field", "transferDate")
	}
	return nil
}
