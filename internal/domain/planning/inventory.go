package planning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

// InventoryMonth is one step of the yearly inventory fold.
// CurrentMonthInventory equals CalculatedQuantity; NextMonthInventory is the
// following month's value (January of the next year for December).
type InventoryMonth struct {
	Month                 int             `json:"month"`
	Date                  time.Time       `json:"date"`
	CalculatedQuantity    float64         `json:"calculatedQuantity"`
	BaseQuantity          float64         `json:"baseQuantity"`
	DaysCount             int             `json:"daysCount"`
	PreviousInventory     float64         `json:"previousInventory"`
	CurrentMonthInventory float64         `json:"currentMonthInventory"`
	NextMonthInventory    float64         `json:"nextMonthInventory"`
	CalculationType       CalculationType `json:"calculationType"`
	Formula               string          `json:"formula"`
	IsFixedPlan           bool            `json:"isFixedPlan"`
	Note                  string          `json:"note,omitempty"`
}

// InventoryYear is the result of CalculateInventoryYear.
type InventoryYear struct {
	SubdivisionID   int64            `json:"subdivisionId"`
	SubdivisionName string           `json:"subdivisionName"`
	MaterialID      int64            `json:"materialId"`
	MaterialName    string           `json:"materialName"`
	Year            int              `json:"year"`
	CalculationType CalculationType  `json:"calculationType"`
	Formula         string           `json:"formula"`
	Months          []InventoryMonth `json:"months"`
	SoftFailures    int              `json:"softFailures"`
}

// Plans converts the fold to savable plans. Fixed months are left out.
func (y *InventoryYear) Plans() []CalculatedPlan {
	out := make([]CalculatedPlan, 0, len(y.Months))
	for _, m := range y.Months {
		if m.IsFixedPlan {
			continue
		}
		out = append(out, CalculatedPlan{Date: m.Date, Quantity: m.CalculatedQuantity, Note: m.Note})
	}
	return out
}

// InventoryCalculationResult is the single-month inventory calculation.
type InventoryCalculationResult struct {
	Date               time.Time       `json:"date"`
	SubdivisionID      int64           `json:"subdivisionId"`
	SubdivisionName    string          `json:"subdivisionName"`
	MaterialID         int64           `json:"materialId"`
	MaterialName       string          `json:"materialName"`
	SalesPlan          *float64        `json:"salesPlan"`
	TransferPlan       *float64        `json:"transferPlan"`
	ConsumptionPlan    *float64        `json:"consumptionPlan"`
	StockNorm          int             `json:"stockNorm"`
	DaysInMonth        int             `json:"daysInMonth"`
	InventoryPlan      *float64        `json:"inventoryPlan"`
	CalculatedQuantity float64         `json:"calculatedQuantity"`
	CalculationType    CalculationType `json:"calculationType"`
	Formula            string          `json:"formula"`
	IsFixedPlan        bool            `json:"isFixedPlan"`
	Message            string          `json:"message,omitempty"`
}

// inventoryInputs holds every table the fold reads, loaded once per request.
type inventoryInputs struct {
	key        planKey
	days       map[time.Time]int
	persisted  map[time.Time]plans.Row
	sales      map[time.Time]plans.Row
	transfers  map[time.Time]float64
	writeOffs  map[time.Time]plans.Row
	production ProductionIndex
	cards      []reference.TechnologicalCard
}

// loadInventoryInputs reads [from, to) plus the month before from.
func (s *Service) loadInventoryInputs(ctx context.Context, key planKey, from, to time.Time) (*inventoryInputs, error) {
	subID, matID := key.sub.ID, key.mat.ID
	years := make([]int, 0, 3)
	for y := from.Year(); y <= to.Year(); y++ {
		years = append(years, y)
	}

	days, err := s.regulationDays(ctx, subID, matID, years...)
	if err != nil {
		return nil, err
	}
	persisted, err := rowsByMonth(ctx, s.plans.Inventory, subID, matID, from, to)
	if err != nil {
		return nil, err
	}
	in := &inventoryInputs{key: key, days: days, persisted: persisted}

	switch key.formula.Type {
	case CalcTradingFinished:
		in.sales, err = rowsByMonth(ctx, s.plans.Sales, subID, matID, from, to)
	case CalcProductionFinished:
		in.transfers, err = s.transfersBySource(ctx, subID, matID, period.Prev(from), to)
	case CalcProductionRaw:
		in.writeOffs, err = rowsByMonth(ctx, s.plans.WriteOff, subID, matID, from, to)
		if err == nil {
			in.production, in.cards, err = s.loadConsumptionInputs(ctx, subID, matID, from, to)
		}
	}
	if err != nil {
		return nil, err
	}
	return in, nil
}

// loadConsumptionInputs reads production plans of the subdivision and the
// cards that consume the raw material.
func (s *Service) loadConsumptionInputs(ctx context.Context, subdivisionID, rawMaterialID int64, from, to time.Time) (ProductionIndex, []reference.TechnologicalCard, error) {
	cards, err := s.ref.ListTechnologicalCards(ctx, reference.CardFilter{
		SubdivisionID: subdivisionID,
		RawMaterialID: rawMaterialID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("list technological cards: %w", err)
	}
	rows, err := s.plans.Production.Query(ctx, plans.Filter{
		SubdivisionID: subdivisionID,
		From:          from,
		To:            to,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("query production plans: %w", err)
	}
	return NewProductionIndex(rows), cards, nil
}

// base returns the monthly flow the norm is applied to, and a note when an
// input is missing.
func (in *inventoryInputs) base(date time.Time) (float64, string) {
	switch in.key.formula.Type {
	case CalcTradingFinished:
		if row, ok := in.sales[date]; ok {
			return row.Quantity, ""
		}
		return 0, fmt.Sprintf("no sales plan for %s", period.Key(date))
	case CalcProductionFinished:
		prev := period.Prev(date)
		if q, ok := in.transfers[prev]; ok {
			return q, ""
		}
		return 0, fmt.Sprintf("no transfers planned for %s", period.Key(prev))
	case CalcProductionRaw:
		if row, ok := in.writeOffs[date]; ok {
			return row.Quantity, ""
		}
		agg := SumProductionForRawMaterial(in.cards, in.production, in.key.sub.ID, in.key.mat.ID, date)
		return agg.Quantity, agg.Note
	}
	return 0, ""
}

// month computes one month. Frozen months keep the persisted value.
func (in *inventoryInputs) month(date time.Time, frozen bool) InventoryMonth {
	m := InventoryMonth{
		Month:           int(date.Month()),
		Date:            date,
		CalculationType: in.key.formula.Type,
		Formula:         in.key.formula.Description,
	}

	if frozen {
		m.IsFixedPlan = true
		m.BaseQuantity, _ = in.base(date)
		if row, ok := in.persisted[date]; ok {
			m.CalculatedQuantity = row.Quantity
			m.Note = "frozen period: saved value kept"
		} else {
			m.Note = "frozen period: no saved value"
		}
		return m
	}

	base, note := in.base(date)
	m.BaseQuantity = base
	days, ok := in.days[date]
	if !ok || days <= 0 {
		m.Note = fmt.Sprintf("no regulation for %s: add a days-of-stock norm before recalculating", period.Key(date))
		return m
	}
	m.DaysCount = days
	m.CalculatedQuantity = InventoryQuantity(base, days)
	m.Note = note
	return m
}

// CalculateInventoryYear folds January..December of year for one key.
// Missing regulations zero the month and the fold continues.
func (s *Service) CalculateInventoryYear(ctx context.Context, subdivisionID, materialID int64, year int) (*InventoryYear, error) {
	return readOnly(ctx, s, func(ctx context.Context) (*InventoryYear, error) {
		return s.calculateInventoryYear(ctx, subdivisionID, materialID, year)
	})
}

func (s *Service) calculateInventoryYear(ctx context.Context, subdivisionID, materialID int64, year int) (*InventoryYear, error) {
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	key, err := s.resolveKey(ctx, subdivisionID, materialID)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "inventory_year", append(key.attrs(), attribute.Int("year", year))...)
	defer span.End()

	return s.inventoryYear(ctx, key, year)
}

func (s *Service) inventoryYear(ctx context.Context, key planKey, year int) (*InventoryYear, error) {
	months := period.MonthsOfYear(year)
	span := make([]time.Time, 0, len(months)+2)
	span = append(span, period.Prev(months[0]))
	span = append(span, months...)
	span = append(span, period.Next(months[len(months)-1]))

	in, err := s.loadInventoryInputs(ctx, key, span[0], period.Next(span[len(span)-1]))
	if err != nil {
		return nil, err
	}

	values := make([]InventoryMonth, len(span))
	for i, d := range span {
		values[i] = in.month(d, s.frozen.IsFrozen(key.sub.ID, key.mat.ID, d))
	}

	res := &InventoryYear{
		SubdivisionID:   key.sub.ID,
		SubdivisionName: key.sub.Name,
		MaterialID:      key.mat.ID,
		MaterialName:    key.mat.Name,
		Year:            year,
		CalculationType: key.formula.Type,
		Formula:         key.formula.Description,
		Months:          make([]InventoryMonth, 0, len(months)),
	}

	log := s.log.WithContext(ctx)
	prev := values[0].CalculatedQuantity
	for i := 1; i <= len(months); i++ {
		m := values[i]
		m.PreviousInventory = prev
		m.CurrentMonthInventory = m.CalculatedQuantity
		m.NextMonthInventory = values[i+1].CalculatedQuantity
		if m.DaysCount == 0 && !m.IsFixedPlan {
			res.SoftFailures++
			log.Debugw("inventory month degraded", "date", period.Key(m.Date), "note", m.Note)
		}
		res.Months = append(res.Months, m)
		prev = m.CalculatedQuantity
	}

	log.Infow("inventory calculated",
		"subdivision_id", key.sub.ID,
		"material_id", key.mat.ID,
		"year", year,
		"type", key.formula.Type,
		"months", len(res.Months),
		"soft_failures", res.SoftFailures,
	)
	return res, nil
}

// CalculateInventory calculates one month. A frozen target month is rejected.
func (s *Service) CalculateInventory(ctx context.Context, subdivisionID, materialID int64, date time.Time) (*InventoryCalculationResult, error) {
	return s.calculateInventory(ctx, subdivisionID, materialID, date, "")
}

// CalculateInventoryAs is CalculateInventory restricted to one formula branch.
func (s *Service) CalculateInventoryAs(ctx context.Context, subdivisionID, materialID int64, date time.Time, want CalculationType) (*InventoryCalculationResult, error) {
	return s.calculateInventory(ctx, subdivisionID, materialID, date, want)
}

func (s *Service) calculateInventory(ctx context.Context, subdivisionID, materialID int64, date time.Time, want CalculationType) (*InventoryCalculationResult, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	date = period.MonthStart(date)
	if err := s.checkFrozen(subdivisionID, materialID, date); err != nil {
		return nil, err
	}
	if err := s.validateYear(date.Year()); err != nil {
		return nil, err
	}

	var key planKey
	var err error
	if want != "" {
		key, err = s.requireType(ctx, subdivisionID, materialID, want)
	} else {
		key, err = s.resolveKey(ctx, subdivisionID, materialID)
	}
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "inventory_month", key.attrs()...)
	defer span.End()

	in, err := s.loadInventoryInputs(ctx, key, date, period.Next(date))
	if err != nil {
		return nil, err
	}
	m := in.month(date, false)

	res := &InventoryCalculationResult{
		Date:               date,
		SubdivisionID:      key.sub.ID,
		SubdivisionName:    key.sub.Name,
		MaterialID:         key.mat.ID,
		MaterialName:       key.mat.Name,
		StockNorm:          m.DaysCount,
		DaysInMonth:        StockDivisor,
		CalculatedQuantity: m.CalculatedQuantity,
		CalculationType:    key.formula.Type,
		Formula:            key.formula.Description,
		Message:            m.Note,
	}
	base := m.BaseQuantity
	switch key.formula.Type {
	case CalcTradingFinished:
		res.SalesPlan = &base
	case CalcProductionFinished:
		res.TransferPlan = &base
	case CalcProductionRaw:
		res.ConsumptionPlan = &base
	}
	if row, ok := in.persisted[date]; ok {
		q := row.Quantity
		res.InventoryPlan = &q
		res.IsFixedPlan = !row.IsCalculated
	}

	s.log.WithContext(ctx).Infow("inventory month calculated",
		"subdivision_id", key.sub.ID,
		"material_id", key.mat.ID,
		"date", period.Key(date),
		"quantity", res.CalculatedQuantity,
	)
	return res, nil
}
