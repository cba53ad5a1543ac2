package dto

// KeyDateRequest addresses one (subdivision, material) pair and a month.
type KeyDateRequest struct {
	SubdivisionID int64  `json:"subdivisionId" binding:"required,min=1"`
	MaterialID    int64  `json:"materialId" binding:"required,min=1"`
	Date          string `json:"date" binding:"required"`
}

// KeyYearRequest addresses one (subdivision, material) pair and a year.
type KeyYearRequest struct {
	SubdivisionID int64 `json:"subdivisionId" form:"subdivisionId" binding:"required,min=1"`
	MaterialID    int64 `json:"materialId" form:"materialId" binding:"required,min=1"`
	Year          int   `json:"year" form:"year" binding:"required,planyear"`
}

// CalculatedPlan is one month of a plan sent back for saving or comparison.
// The quantity may arrive under the name used by each calculation result.
type CalculatedPlan struct {
	Date                 string   `json:"date" binding:"required"`
	Quantity             *float64 `json:"quantity"`
	CalculatedQuantity   *float64 `json:"calculatedQuantity"`
	ProductionPlan       *float64 `json:"productionPlan"`
	PurchasePlanQuantity *float64 `json:"purchasePlanQuantity"`
	Note                 string   `json:"note"`
}

// Value returns the first quantity present.
func (p CalculatedPlan) Value() (float64, bool) {
	for _, v := range []*float64{p.Quantity, p.CalculatedQuantity, p.ProductionPlan, p.PurchasePlanQuantity} {
		if v != nil {
			return *v, true
		}
	}
	return 0, false
}

// SavePlansRequest persists calculated plans of one key.
type SavePlansRequest struct {
	SubdivisionID     int64            `json:"subdivisionId" binding:"required,min=1"`
	MaterialID        int64            `json:"materialId" binding:"required,min=1"`
	CalculatedPlans   []CalculatedPlan `json:"calculatedPlans" binding:"required,min=1,dive"`
	OverwriteExisting bool             `json:"overwriteExisting"`
	Comment           string           `json:"comment" binding:"max=1000"`
}

// ComparePlansRequest reconciles calculated plans with saved rows.
type ComparePlansRequest struct {
	SubdivisionID   int64            `json:"subdivisionId" binding:"required,min=1"`
	MaterialID      int64            `json:"materialId" binding:"required,min=1"`
	CalculatedPlans []CalculatedPlan `json:"calculatedPlans" binding:"required,min=1,dive"`
}

// WriteOffRequest calculates one month of raw material write-off.
type WriteOffRequest struct {
	SubdivisionID int64  `json:"subdivisionId" binding:"required,min=1"`
	RawMaterialID int64  `json:"rawMaterialId" binding:"required,min=1"`
	Year          int    `json:"year" binding:"required,planyear"`
	Month         int    `json:"month" binding:"required,month"`
	Comment       string `json:"comment" binding:"max=1000"`
}

// RawYearRequest addresses one (subdivision, raw material) pair and a year.
type RawYearRequest struct {
	SubdivisionID int64  `json:"subdivisionId" form:"subdivisionId" binding:"required,min=1"`
	RawMaterialID int64  `json:"rawMaterialId" form:"rawMaterialId" binding:"required,min=1"`
	Year          int    `json:"year" form:"year" binding:"required,planyear"`
	Comment       string `json:"comment" form:"-" binding:"max=1000"`
}

// RawFilter is the query string of saved write-off lists.
type RawFilter struct {
	Year          int   `form:"year" binding:"omitempty,planyear"`
	SubdivisionID int64 `form:"subdivisionId" binding:"omitempty,min=1"`
	RawMaterialID int64 `form:"rawMaterialId" binding:"omitempty,min=1"`
}

// PurchasePlanItem is one month of a purchase plan as returned by CalculateYearPlan.
type PurchasePlanItem struct {
	SubdivisionID        int64    `json:"subdivisionId" binding:"required,min=1"`
	RawMaterialID        int64    `json:"rawMaterialId" binding:"required,min=1"`
	Date                 string   `json:"date" binding:"required"`
	PurchasePlanQuantity *float64 `json:"purchasePlanQuantity" binding:"required"`
	Note                 string   `json:"note"`
}

// SavePurchasesRequest persists a calculated purchase year.
type SavePurchasesRequest struct {
	PurchasePlans     []PurchasePlanItem `json:"purchasePlans" binding:"required,min=1,dive"`
	OverwriteExisting bool               `json:"overwriteExisting"`
	Comment           string             `json:"comment" binding:"max=1000"`
}

// TransferYearRequest runs the yearly transfer calculation.
type TransferYearRequest struct {
	Year int `json:"year" binding:"required,planyear"`
}
