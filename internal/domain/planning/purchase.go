package planning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
)

const purchaseFormula = "purchase = next month inventory − current month inventory + consumption"

// Consumption sources of a purchase month.
const (
	ConsumptionFromWriteOff   = "writeoff"
	ConsumptionFromProduction = "production"
)

// PurchaseMonth is one month of a raw material purchase plan.
type PurchaseMonth struct {
	Month                 int       `json:"month"`
	MonthName             string    `json:"monthName"`
	Year                  int       `json:"year"`
	Date                  time.Time `json:"date"`
	PurchasePlanQuantity  float64   `json:"purchasePlanQuantity"`
	CurrentMonthInventory float64   `json:"currentMonthInventory"`
	NextMonthInventory    float64   `json:"nextMonthInventory"`
	TotalProductionPlans  float64   `json:"totalProductionPlans"`
	ConsumptionSource     string    `json:"consumptionSource"`
	CalculationFormula    string    `json:"calculationFormula"`
	IsFixed               bool      `json:"isFixed"`
	Note                  string    `json:"note,omitempty"`
}

// PurchasePlans converts months to savable plans. Fixed months are left out.
func PurchasePlans(months []PurchaseMonth) []CalculatedPlan {
	out := make([]CalculatedPlan, 0, len(months))
	for _, m := range months {
		if m.IsFixed {
			continue
		}
		out = append(out, CalculatedPlan{Date: m.Date, Quantity: m.PurchasePlanQuantity, Note: m.Note})
	}
	return out
}

// CalculatePurchaseYear derives purchases of a raw material at a Production
// subdivision from saved raw material inventory and consumption. Consumption
// is the saved write-off of the month, or the production fan-in when none is saved.
func (s *Service) CalculatePurchaseYear(ctx context.Context, subdivisionID, rawMaterialID int64, year int) ([]PurchaseMonth, error) {
	return readOnly(ctx, s, func(ctx context.Context) ([]PurchaseMonth, error) {
		return s.purchaseYear(ctx, subdivisionID, rawMaterialID, year)
	})
}

func (s *Service) purchaseYear(ctx context.Context, subdivisionID, rawMaterialID int64, year int) ([]PurchaseMonth, error) {
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	key, err := s.requireType(ctx, subdivisionID, rawMaterialID, CalcProductionRaw)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "purchase_year", append(key.attrs(), attribute.Int("year", year))...)
	defer span.End()

	from, to := period.YearBounds(year)
	inventory, err := rowsByMonth(ctx, s.plans.Inventory, subdivisionID, rawMaterialID, from, period.Next(to))
	if err != nil {
		return nil, err
	}
	writeOffs, err := rowsByMonth(ctx, s.plans.WriteOff, subdivisionID, rawMaterialID, from, to)
	if err != nil {
		return nil, err
	}
	saved, err := rowsByMonth(ctx, s.plans.Purchase, subdivisionID, rawMaterialID, from, to)
	if err != nil {
		return nil, err
	}
	production, cards, err := s.loadConsumptionInputs(ctx, subdivisionID, rawMaterialID, from, to)
	if err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx)
	out := make([]PurchaseMonth, 0, period.MonthsPerYear)
	soft := 0
	for _, d := range period.MonthsOfYear(year) {
		m := PurchaseMonth{
			Month:              int(d.Month()),
			MonthName:          period.MonthName(int(d.Month())),
			Year:               year,
			Date:               d,
			CalculationFormula: purchaseFormula,
		}

		if s.frozen.IsFrozen(subdivisionID, rawMaterialID, d) {
			m.IsFixed = true
			if row, ok := saved[d]; ok {
				m.PurchasePlanQuantity = row.Quantity
			}
			m.Note = "frozen period: saved value kept"
			out = append(out, m)
			continue
		}

		if row, ok := writeOffs[d]; ok {
			m.TotalProductionPlans = row.Quantity
			m.ConsumptionSource = ConsumptionFromWriteOff
		} else {
			agg := SumProductionForRawMaterial(cards, production, subdivisionID, rawMaterialID, d)
			m.TotalProductionPlans = agg.Quantity
			m.ConsumptionSource = ConsumptionFromProduction
			m.Note = agg.Note
		}

		next := period.Next(d)
		cur, curOK := inventory[d]
		nxt, nxtOK := inventory[next]
		m.CurrentMonthInventory = cur.Quantity
		m.NextMonthInventory = nxt.Quantity
		m.PurchasePlanQuantity = nxt.Quantity - cur.Quantity + m.TotalProductionPlans

		m.Note = joinNotes(m.Note, missingInventoryNote(d, curOK, nxtOK))
		if m.Note != "" {
			soft++
			log.Debugw("purchase month degraded", "date", period.Key(d), "note", m.Note)
		}
		out = append(out, m)
	}

	log.Infow("purchase plan calculated",
		"subdivision_id", subdivisionID,
		"material_id", rawMaterialID,
		"year", year,
		"months", len(out),
		"soft_failures", soft,
	)
	return out, nil
}

// SavePurchaseYear saves calculated purchase plans.
func (s *Service) SavePurchaseYear(ctx context.Context, subdivisionID, rawMaterialID int64, months []PurchaseMonth, overwrite bool, comment string) (*SaveResult, error) {
	return s.SaveCalculatedPlans(ctx, SaveRequest{
		Kind:              plans.KindPurchase,
		SubdivisionID:     subdivisionID,
		MaterialID:        rawMaterialID,
		Plans:             PurchasePlans(months),
		OverwriteExisting: overwrite,
		Comment:           comment,
	})
}

// RecalculatePurchases calculates a year and overwrites the saved plans.
func (s *Service) RecalculatePurchases(ctx context.Context, subdivisionID, rawMaterialID int64, year int, comment string) ([]PurchaseMonth, *SaveResult, error) {
	months, err := s.CalculatePurchaseYear(ctx, subdivisionID, rawMaterialID, year)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.SavePurchaseYear(ctx, subdivisionID, rawMaterialID, months, true, comment)
	if err != nil {
		return nil, nil, err
	}
	return months, saved, nil
}

// GetExistingPurchases returns the saved purchase plans of a year.
func (s *Service) GetExistingPurchases(ctx context.Context, subdivisionID, rawMaterialID int64, year int) ([]plans.Row, error) {
	return s.GetSavedPlans(ctx, plans.KindPurchase, subdivisionID, rawMaterialID, year)
}

// missingInventoryNote explains inventory months counted as zero.
func missingInventoryNote(d time.Time, curOK, nxtOK bool) string {
	next := period.Next(d)
	switch {
	case !curOK && !nxtOK:
		return fmt.Sprintf("no inventory plans for %s and %s: save inventory first", period.Key(d), period.Key(next))
	case !curOK:
		return fmt.Sprintf("no inventory plan for %s: counted as 0", period.Key(d))
	case !nxtOK:
		return fmt.Sprintf("no inventory plan for %s: counted as 0", period.Key(next))
	}
	return ""
}

func joinNotes(a, b string) string {
	switch {
	case a == "":
		return b
	case b == "":
		return a
	}
	return a + "; " + b
}
