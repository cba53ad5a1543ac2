package dto

import (
	"time"

	"supplyplan/internal/domain/plans"
)

// PlanFilter is the query string of a plan list.
type PlanFilter struct {
	Year          int   `form:"year" binding:"omitempty,planyear"`
	SubdivisionID int64 `form:"subdivisionId" binding:"omitempty,min=1"`
	MaterialID    int64 `form:"materialId" binding:"omitempty,min=1"`
}

// ToFilter converts the query to a repository filter.
func (f PlanFilter) ToFilter() plans.Filter {
	return plans.Filter{Year: f.Year, SubdivisionID: f.SubdivisionID, MaterialID: f.MaterialID}
}

// PlanRequest creates or replaces a manually entered plan row.
type PlanRequest struct {
	SubdivisionID int64    `json:"subdivisionId" binding:"required,min=1"`
	MaterialID    int64    `json:"materialId" binding:"required,min=1"`
	Date          string   `json:"date" binding:"required"`
	Quantity      *float64 `json:"quantity" binding:"required"`
	Note          string   `json:"note" binding:"max=500"`
}

// ToRow builds a row; date must already be parsed.
func (r PlanRequest) ToRow(date time.Time) *plans.Row {
	return &plans.Row{
		SubdivisionID: r.SubdivisionID,
		MaterialID:    r.MaterialID,
		Date:          date,
		Quantity:      *r.Quantity,
		Note:          r.Note,
	}
}

// SalesMonthlyRequest upserts one month of a sales plan keyed by "YYYY-MM".
type SalesMonthlyRequest struct {
	SubdivisionID int64    `json:"subdivisionId" binding:"required,min=1"`
	MaterialID    int64    `json:"materialId" binding:"required,min=1"`
	MonthKey      string   `json:"monthKey" binding:"required,len=7"`
	Quantity      *float64 `json:"quantity" binding:"required,min=0"`
}

// SalesSearchRequest searches sales plans by key and date range.
type SalesSearchRequest struct {
	SubdivisionID int64  `json:"subdivisionId" binding:"omitempty,min=1"`
	MaterialID    int64  `json:"materialId" binding:"omitempty,min=1"`
	StartDate     string `json:"startDate"`
	EndDate       string `json:"endDate"`
}

// TransferFilter is the query string of a transfer list.
type TransferFilter struct {
	Year                     int   `form:"year" binding:"omitempty,planyear"`
	SourceSubdivisionID      int64 `form:"sourceSubdivisionId" binding:"omitempty,min=1"`
	DestinationSubdivisionID int64 `form:"destinationSubdivisionId" binding:"omitempty,min=1"`
	MaterialID               int64 `form:"materialId" binding:"omitempty,min=1"`
}

// ToFilter converts the query to a repository filter.
func (f TransferFilter) ToFilter() plans.TransferFilter {
	return plans.TransferFilter{
		Year:                     f.Year,
		SourceSubdivisionID:      f.SourceSubdivisionID,
		DestinationSubdivisionID: f.DestinationSubdivisionID,
		MaterialID:               f.MaterialID,
	}
}

// TransferRequest creates or replaces a manually entered transfer row.
type TransferRequest struct {
	SourceSubdivisionID      int64    `json:"sourceSubdivisionId" binding:"required,min=1"`
	DestinationSubdivisionID int64    `json:"destinationSubdivisionId" binding:"required,min=1,nefield=SourceSubdivisionID"`
	MaterialID               int64    `json:"materialId" binding:"required,min=1"`
	TransferDate             string   `json:"transferDate" binding:"required"`
	Quantity                 *float64 `json:"quantity" binding:"required,min=0"`
}

// ToRow builds a transfer row; date must already be parsed.
func (r TransferRequest) ToRow(date time.Time) *plans.TransferRow {
	return &plans.TransferRow{
		SourceSubdivisionID:      r.SourceSubdivisionID,
		DestinationSubdivisionID: r.DestinationSubdivisionID,
		MaterialID:               r.MaterialID,
		Date:                     date,
		Quantity:                 *r.Quantity,
	}
}
