package planning

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/period"
)

const productionFormula = "production = next month inventory − current month inventory + transfers"

// ProductionMonth is one month of a production plan derivation.
// PreviousInventory is the inventory at the start of the month and
// CurrentInventory the inventory at the start of the next month.
type ProductionMonth struct {
	Month                 int       `json:"month"`
	Date                  time.Time `json:"date"`
	ProductionPlan        float64   `json:"productionPlan"`
	CurrentInventory      float64   `json:"currentInventory"`
	PreviousInventory     float64   `json:"previousInventory"`
	TransferQuantity      float64   `json:"transferQuantity"`
	CurrentMonthInventory float64   `json:"currentMonthInventory"`
	NextMonthInventory    float64   `json:"nextMonthInventory"`
	CalculationFormula    string    `json:"calculationFormula"`
	IsFixedValue          bool      `json:"isFixedValue"`
	Note                  string    `json:"note,omitempty"`
}

// ProductionPlans converts months to savable plans. Fixed months are left out.
func ProductionPlans(months []ProductionMonth) []CalculatedPlan {
	out := make([]CalculatedPlan, 0, len(months))
	for _, m := range months {
		if m.IsFixedValue {
			continue
		}
		out = append(out, CalculatedPlan{Date: m.Date, Quantity: m.ProductionPlan, Note: m.Note})
	}
	return out
}

// CalculateProductionYear derives the production plan of a Production
// subdivision and finished product from saved inventory plans and transfer
// plans. Inventory must be saved first; a missing month counts as zero.
// date selects the year and must not fall on a frozen month.
func (s *Service) CalculateProductionYear(ctx context.Context, subdivisionID, materialID int64, date time.Time) ([]ProductionMonth, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	date = period.MonthStart(date)
	if err := s.checkFrozen(subdivisionID, materialID, date); err != nil {
		return nil, err
	}
	return readOnly(ctx, s, func(ctx context.Context) ([]ProductionMonth, error) {
		return s.productionYear(ctx, subdivisionID, materialID, date.Year())
	})
}

func (s *Service) productionYear(ctx context.Context, subdivisionID, materialID int64, year int) ([]ProductionMonth, error) {
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	key, err := s.requireType(ctx, subdivisionID, materialID, CalcProductionFinished)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "production_year", append(key.attrs(), attribute.Int("year", year))...)
	defer span.End()

	from, to := period.YearBounds(year)
	inventory, err := rowsByMonth(ctx, s.plans.Inventory, subdivisionID, materialID, from, period.Next(to))
	if err != nil {
		return nil, err
	}
	transfers, err := s.transfersBySource(ctx, subdivisionID, materialID, from, to)
	if err != nil {
		return nil, err
	}
	saved, err := rowsByMonth(ctx, s.plans.Production, subdivisionID, materialID, from, to)
	if err != nil {
		return nil, err
	}

	log := s.log.WithContext(ctx)
	out := make([]ProductionMonth, 0, period.MonthsPerYear)
	soft := 0
	for _, d := range period.MonthsOfYear(year) {
		m := ProductionMonth{
			Month:              int(d.Month()),
			Date:               d,
			TransferQuantity:   transfers[d],
			CalculationFormula: productionFormula,
		}

		if s.frozen.IsFrozen(subdivisionID, materialID, d) {
			m.IsFixedValue = true
			if row, ok := saved[d]; ok {
				m.ProductionPlan = row.Quantity
			}
			m.Note = "frozen period: saved value kept"
			out = append(out, m)
			continue
		}

		next := period.Next(d)
		cur, curOK := inventory[d]
		nxt, nxtOK := inventory[next]
		m.CurrentMonthInventory = cur.Quantity
		m.NextMonthInventory = nxt.Quantity
		m.PreviousInventory = cur.Quantity
		m.CurrentInventory = nxt.Quantity
		m.ProductionPlan = nxt.Quantity - cur.Quantity + m.TransferQuantity

		m.Note = missingInventoryNote(d, curOK, nxtOK)
		if m.Note != "" {
			soft++
			log.Debugw("production month degraded", "date", period.Key(d), "note", m.Note)
		}
		out = append(out, m)
	}

	log.Infow("production plan calculated",
		"subdivision_id", subdivisionID,
		"material_id", materialID,
		"year", year,
		"months", len(out),
		"soft_failures", soft,
	)
	return out, nil
}
