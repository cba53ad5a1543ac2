// Package reference holds the master data the planning engine reads:
// subdivisions, materials, stock-day regulations, technological cards and
// monthly supply-source assignments.
package reference

import (
	"context"
	"time"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/types"
)

// SubdivisionType selects the formula branch for a subdivision.
type SubdivisionType string

const (
	SubdivisionTrading    SubdivisionType = "Trading"
	SubdivisionProduction SubdivisionType = "Production"
)

// MaterialType distinguishes raw materials from finished products.
type MaterialType string

const (
	MaterialRaw      MaterialType = "RawMaterial"
	MaterialFinished MaterialType = "FinishedProduct"
)

// Subdivision is a trading or production site.
type Subdivision struct {
	ID   int64           `db:"id" json:"id"`
	Name string          `db:"name" json:"name"`
	Type SubdivisionType `db:"type" json:"type"`
}

// Material is a raw material or a finished product. Its type never changes.
type Material struct {
	ID   int64        `db:"id" json:"id"`
	Name string       `db:"name" json:"name"`
	Type MaterialType `db:"type" json:"type"`
}

// Regulation is the days-of-stock norm for one subdivision/material/month.
type Regulation struct {
	ID            int64     `db:"id" json:"id"`
	SubdivisionID int64     `db:"subdivision_id" json:"subdivisionId"`
	MaterialID    int64     `db:"material_id" json:"materialId"`
	Date          time.Time `db:"date" json:"date"`
	DaysCount     int       `db:"days_count" json:"daysCount"`
}

// TechnologicalCard is a bill-of-materials line: RawMaterialPerUnit units of
// raw material per unit of finished product at a production subdivision.
type TechnologicalCard struct {
	ID                 int64       `db:"id" json:"id"`
	SubdivisionID      int64       `db:"subdivision_id" json:"subdivisionId"`
	FinishedProductID  int64       `db:"finished_product_id" json:"finishedProductId"`
	RawMaterialID      int64       `db:"raw_material_id" json:"rawMaterialId"`
	RawMaterialPerUnit types.Ratio `db:"raw_material_per_unit" json:"rawMaterialPerUnit"`
}

// SupplySource assigns the production subdivision that supplies a trading
// subdivision's demand for a finished product in a given month.
// SourceSubdivisionID is nil when the month is unassigned.
type SupplySource struct {
	ID                       int64  `db:"id" json:"id"`
	DestinationSubdivisionID int64  `db:"destination_subdivision_id" json:"destinationSubdivisionId"`
	MaterialID               int64  `db:"material_id" json:"materialId"`
	Year                     int    `db:"year" json:"year"`
	Month                    int    `db:"month" json:"month"`
	SourceSubdivisionID      *int64 `db:"source_subdivision_id" json:"sourceSubdivisionId,omitempty"`
}

// Validate implements the seed-time invariants of a regulation.
func (r *Regulation) Validate(_ context.Context) error {
	if r.SubdivisionID <= 0 || r.MaterialID <= 0 {
		return apperror.NewValidation("regulation requires subdivision and material")
	}
	if r.DaysCount <= 0 {
		return apperror.NewValidation("daysCount must be a positive integer").
			WithDetail("field", "daysCount").
			WithDetail("value", r.DaysCount)
	}
	return nil
}

// Validate checks the card ratio.
func (c *TechnologicalCard) Validate(_ context.Context) error {
	if !c.RawMaterialPerUnit.IsPositive() {
		return apperror.NewValidation("rawMaterialPerUnit must be positive").
			WithDetail("field", "rawMaterialPerUnit")
	}
	if c.FinishedProductID == c.RawMaterialID {
		return apperror.NewValidation("finished product and raw material must differ")
	}
	return nil
}

// Validate checks month bounds.
func (s *SupplySource) Validate(_ context.Context) error {
	if s.Month < 1 || s.Month > 12 {
		return apperror.NewValidation("month must be between 1 and 12").
			WithDetail("field", "month")
	}
	if s.SourceSubdivisionID != nil && *s.SourceSubdivisionID == s.DestinationSubdivisionID {
		return apperror.NewValidation("a subdivision cannot supply itself")
	}
	return nil
}
