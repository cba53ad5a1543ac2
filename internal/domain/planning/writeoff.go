package planning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

const writeOffFormula = "write-off = Σ production plan × raw material per unit"

// ProductionContribution details one finished product behind a write-off.
type ProductionContribution struct {
	MaterialID         int64       `json:"materialId"`
	MaterialName       string      `json:"materialName"`
	ProductionQuantity float64     `json:"productionQuantity"`
	RawMaterialPerUnit types.Ratio `json:"rawMaterialPerUnit"`
	Consumption        float64     `json:"consumption"`
	PlanDate           time.Time   `json:"planDate"`
}

// WriteOffMonth is the write-off calculation of one month.
type WriteOffMonth struct {
	Month                int                      `json:"month"`
	MonthName            string                   `json:"monthName"`
	Year                 int                      `json:"year"`
	Date                 time.Time                `json:"date"`
	CalculatedQuantity   float64                  `json:"calculatedQuantity"`
	ProductionPlansCount int                      `json:"productionPlansCount"`
	CalculationFormula   string                   `json:"calculationFormula"`
	IsFixed              bool                     `json:"isFixed"`
	Note                 string                   `json:"note,omitempty"`
	ProductionPlans      []ProductionContribution `json:"productionPlans"`
}

// WriteOffYear is the yearly write-off calculation.
type WriteOffYear struct {
	SubdivisionID          int64           `json:"subdivisionId"`
	RawMaterialID          int64           `json:"rawMaterialId"`
	Year                   int             `json:"year"`
	TotalQuantity          float64         `json:"totalQuantity"`
	AverageMonthlyQuantity float64         `json:"averageMonthlyQuantity"`
	MonthlyResults         []WriteOffMonth `json:"monthlyResults"`
	CalculationSummary     string          `json:"calculationSummary"`
}

// Plans converts the year to savable plans. Fixed months are left out.
func (y *WriteOffYear) Plans() []CalculatedPlan {
	out := make([]CalculatedPlan, 0, len(y.MonthlyResults))
	for _, m := range y.MonthlyResults {
		if m.IsFixed {
			continue
		}
		out = append(out, CalculatedPlan{Date: m.Date, Quantity: m.CalculatedQuantity, Note: m.Note})
	}
	return out
}

type writeOffInputs struct {
	production ProductionIndex
	cards      []reference.TechnologicalCard
	names      map[int64]string
	saved      map[time.Time]plans.Row
}

func (s *Service) loadWriteOffInputs(ctx context.Context, key planKey, from, to time.Time) (*writeOffInputs, error) {
	production, cards, err := s.loadConsumptionInputs(ctx, key.sub.ID, key.mat.ID, from, to)
	if err != nil {
		return nil, err
	}
	names, err := s.materialNames(ctx)
	if err != nil {
		return nil, err
	}
	saved, err := rowsByMonth(ctx, s.plans.WriteOff, key.sub.ID, key.mat.ID, from, to)
	if err != nil {
		return nil, err
	}
	return &writeOffInputs{production: production, cards: cards, names: names, saved: saved}, nil
}

func (in *writeOffInputs) month(key planKey, date time.Time, frozen bool) WriteOffMonth {
	m := WriteOffMonth{
		Month:              int(date.Month()),
		MonthName:          period.MonthName(int(date.Month())),
		Year:               date.Year(),
		Date:               date,
		CalculationFormula: writeOffFormula,
		ProductionPlans:    []ProductionContribution{},
	}
	if frozen {
		m.IsFixed = true
		if row, ok := in.saved[date]; ok {
			m.CalculatedQuantity = row.Quantity
		}
		m.Note = "frozen period: saved value kept"
		return m
	}

	agg := SumProductionForRawMaterial(in.cards, in.production, key.sub.ID, key.mat.ID, date)
	m.CalculatedQuantity = agg.Quantity
	m.ProductionPlansCount = agg.ContributingPlanCount
	m.Note = agg.Note
	for _, c := range agg.Contributions {
		m.ProductionPlans = append(m.ProductionPlans, ProductionContribution{
			MaterialID:         c.FinishedProductID,
			MaterialName:       in.names[c.FinishedProductID],
			ProductionQuantity: c.ProductionQuantity,
			RawMaterialPerUnit: c.RawMaterialPerUnit,
			Consumption:        c.Consumption,
			PlanDate:           c.PlanDate,
		})
	}
	return m
}

// CalculateWriteOff calculates the raw material write-off of one month.
func (s *Service) CalculateWriteOff(ctx context.Context, subdivisionID, rawMaterialID int64, year, month int) (*WriteOffMonth, error) {
	if err := validateIDs(subdivisionID, rawMaterialID); err != nil {
		return nil, err
	}
	if month < 1 || month > 12 {
		return nil, validationField("month", "month must be between 1 and 12")
	}
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	date := period.Month(year, time.Month(month))
	if err := s.checkFrozen(subdivisionID, rawMaterialID, date); err != nil {
		return nil, err
	}
	key, err := s.requireType(ctx, subdivisionID, rawMaterialID, CalcProductionRaw)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "writeoff_month", key.attrs()...)
	defer span.End()

	in, err := s.loadWriteOffInputs(ctx, key, date, period.Next(date))
	if err != nil {
		return nil, err
	}
	m := in.month(key, date, false)
	return &m, nil
}

// CalculateWriteOffYear calculates write-offs for every month of year.
func (s *Service) CalculateWriteOffYear(ctx context.Context, subdivisionID, rawMaterialID int64, year int) (*WriteOffYear, error) {
	return readOnly(ctx, s, func(ctx context.Context) (*WriteOffYear, error) {
		return s.writeOffYear(ctx, subdivisionID, rawMaterialID, year)
	})
}

func (s *Service) writeOffYear(ctx context.Context, subdivisionID, rawMaterialID int64, year int) (*WriteOffYear, error) {
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	key, err := s.requireType(ctx, subdivisionID, rawMaterialID, CalcProductionRaw)
	if err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "writeoff_year", append(key.attrs(), attribute.Int("year", year))...)
	defer span.End()

	from, to := period.YearBounds(year)
	in, err := s.loadWriteOffInputs(ctx, key, from, to)
	if err != nil {
		return nil, err
	}

	res := &WriteOffYear{
		SubdivisionID:  subdivisionID,
		RawMaterialID:  rawMaterialID,
		Year:           year,
		MonthlyResults: make([]WriteOffMonth, 0, period.MonthsPerYear),
	}
	withPlans := 0
	for _, d := range period.MonthsOfYear(year) {
		m := in.month(key, d, s.frozen.IsFrozen(subdivisionID, rawMaterialID, d))
		res.TotalQuantity += m.CalculatedQuantity
		if m.ProductionPlansCount > 0 {
			withPlans++
		}
		res.MonthlyResults = append(res.MonthlyResults, m)
	}
	res.AverageMonthlyQuantity = types.Round2(res.TotalQuantity / period.MonthsPerYear)
	res.CalculationSummary = fmt.Sprintf(
		"%s, %s: %d of 12 months backed by production plans, total %.2f",
		key.sub.Name, key.mat.Name, withPlans, res.TotalQuantity,
	)

	s.log.WithContext(ctx).Infow("write-off plan calculated",
		"subdivision_id", subdivisionID,
		"material_id", rawMaterialID,
		"year", year,
		"months_with_plans", withPlans,
		"total", res.TotalQuantity,
	)
	return res, nil
}

// CalculateAndSaveWriteOff calculates one month and saves it as calculated.
func (s *Service) CalculateAndSaveWriteOff(ctx context.Context, subdivisionID, rawMaterialID int64, year, month int, comment string) (*WriteOffMonth, *SaveResult, error) {
	m, err := s.CalculateWriteOff(ctx, subdivisionID, rawMaterialID, year, month)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.SaveCalculatedPlans(ctx, SaveRequest{
		Kind:              plans.KindWriteOff,
		SubdivisionID:     subdivisionID,
		MaterialID:        rawMaterialID,
		Plans:             []CalculatedPlan{{Date: m.Date, Quantity: m.CalculatedQuantity, Note: m.Note}},
		OverwriteExisting: true,
		Comment:           comment,
	})
	if err != nil {
		return nil, nil, err
	}
	return m, saved, nil
}

// CalculateAndSaveWriteOffYear calculates a year and overwrites saved write-offs.
func (s *Service) CalculateAndSaveWriteOffYear(ctx context.Context, subdivisionID, rawMaterialID int64, year int, comment string) (*WriteOffYear, *SaveResult, error) {
	y, err := s.CalculateWriteOffYear(ctx, subdivisionID, rawMaterialID, year)
	if err != nil {
		return nil, nil, err
	}
	saved, err := s.SaveCalculatedPlans(ctx, SaveRequest{
		Kind:              plans.KindWriteOff,
		SubdivisionID:     subdivisionID,
		MaterialID:        rawMaterialID,
		Plans:             y.Plans(),
		OverwriteExisting: true,
		Comment:           comment,
	})
	if err != nil {
		return nil, nil, err
	}
	return y, saved, nil
}
