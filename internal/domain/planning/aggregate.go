package planning

import (
	"fmt"
	"time"

	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

// ProductionIndex maps (subdivision, finished product, month) to a planned quantity.
type ProductionIndex map[plans.Key]float64

// NewProductionIndex indexes production plan rows.
func NewProductionIndex(rows []plans.Row) ProductionIndex {
	idx := make(ProductionIndex, len(rows))
	for _, r := range rows {
		idx[plans.Key{SubdivisionID: r.SubdivisionID, MaterialID: r.MaterialID, Date: period.MonthStart(r.Date)}] = r.Quantity
	}
	return idx
}

// Lookup returns the planned quantity and whether a plan exists.
func (idx ProductionIndex) Lookup(subdivisionID, productID int64, month time.Time) (float64, bool) {
	q, ok := idx[plans.Key{SubdivisionID: subdivisionID, MaterialID: productID, Date: period.MonthStart(month)}]
	return q, ok
}

// Contribution is one finished product's share of raw material consumption.
type Contribution struct {
	FinishedProductID  int64       `json:"materialId"`
	ProductionQuantity float64     `json:"productionQuantity"`
	RawMaterialPerUnit types.Ratio `json:"rawMaterialPerUnit"`
	Consumption        float64     `json:"consumption"`
	PlanDate           time.Time   `json:"planDate"`
}

// Aggregate is the fan-in of production plans into raw material consumption.
type Aggregate struct {
	Quantity              float64        `json:"quantity"`
	ContributingPlanCount int            `json:"contributingPlanCount"`
	Contributions         []Contribution `json:"contributions"`
	Note                  string         `json:"note,omitempty"`
}

// SumProductionForRawMaterial sums production[product][month] × ratio over
// the cards of (subdivision, raw material). No cards or no plans yields zero
// with a note.
func SumProductionForRawMaterial(
	cards []reference.TechnologicalCard,
	production ProductionIndex,
	subdivisionID, rawMaterialID int64,
	month time.Time,
) Aggregate {
	month = period.MonthStart(month)
	var agg Aggregate
	matched := 0

	for _, c := range cards {
		if c.SubdivisionID != subdivisionID || c.RawMaterialID != rawMaterialID {
			continue
		}
		matched++
		qty, ok := production.Lookup(subdivisionID, c.FinishedProductID, month)
		if !ok {
			continue
		}
		consumption := types.MulRatio(qty, c.RawMaterialPerUnit)
		agg.Quantity += consumption
		agg.ContributingPlanCount++
		agg.Contributions = append(agg.Contributions, Contribution{
			FinishedProductID:  c.FinishedProductID,
			ProductionQuantity: qty,
			RawMaterialPerUnit: c.RawMaterialPerUnit,
			Consumption:        consumption,
			PlanDate:           month,
		})
	}

	switch {
	case matched == 0:
		agg.Note = "no technological cards use this raw material at this subdivision"
	case agg.ContributingPlanCount == 0:
		agg.Note = fmt.Sprintf("no production plans for %s among %d finished products", period.Key(month), matched)
	}
	return agg
}
