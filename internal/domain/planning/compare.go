package planning

import (
	"context"
	"time"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
)

// ComparisonStatus classifies one month of a reconciliation.
type ComparisonStatus string

const (
	StatusMatching  ComparisonStatus = "matching"
	StatusDifferent ComparisonStatus = "different"
	StatusMissing   ComparisonStatus = "missing"
)

// CalculatedPlan is one month of a freshly calculated plan.
type CalculatedPlan struct {
	Date     time.Time `json:"date"`
	Quantity float64   `json:"quantity"`
	Note     string    `json:"note,omitempty"`
}

// ComparisonDetail is one month of a reconciliation.
type ComparisonDetail struct {
	Date               time.Time        `json:"date"`
	CalculatedQuantity float64          `json:"calculatedQuantity"`
	SavedQuantity      *float64         `json:"savedQuantity"`
	HasSavedPlan       bool             `json:"hasSavedPlan"`
	Difference         *float64         `json:"difference"`
	Status             ComparisonStatus `json:"status"`
}

// ComparisonResult summarizes calculated against saved values.
type ComparisonResult struct {
	SubdivisionID        int64              `json:"subdivisionId"`
	MaterialID           int64              `json:"materialId"`
	Year                 int                `json:"year"`
	TotalCalculatedPlans int                `json:"totalCalculatedPlans"`
	TotalSavedPlans      int                `json:"totalSavedPlans"`
	MatchingPlans        int                `json:"matchingPlans"`
	DifferentPlans       int                `json:"differentPlans"`
	MissingPlans         int                `json:"missingPlans"`
	Details              []ComparisonDetail `json:"details"`
}

// ComparePlans classifies each calculated month against saved rows of the
// same key. It never writes anything.
func ComparePlans(subdivisionID, materialID int64, calculated []CalculatedPlan, saved []plans.Row) ComparisonResult {
	byMonth := make(map[time.Time]plans.Row, len(saved))
	for _, r := range saved {
		byMonth[period.MonthStart(r.Date)] = r
	}

	res := ComparisonResult{
		SubdivisionID:        subdivisionID,
		MaterialID:           materialID,
		TotalCalculatedPlans: len(calculated),
		Details:              make([]ComparisonDetail, 0, len(calculated)),
	}
	if len(calculated) > 0 {
		res.Year = calculated[0].Date.Year()
	}

	for _, c := range calculated {
		d := ComparisonDetail{
			Date:               period.MonthStart(c.Date),
			CalculatedQuantity: c.Quantity,
		}
		row, ok := byMonth[d.Date]
		switch {
		case !ok:
			d.Status = StatusMissing
			res.MissingPlans++
		default:
			savedQty := row.Quantity
			diff := savedQty - c.Quantity
			d.SavedQuantity = &savedQty
			d.Difference = &diff
			d.HasSavedPlan = true
			res.TotalSavedPlans++
			if types.NearlyEqual(savedQty, c.Quantity) {
				d.Status = StatusMatching
				res.MatchingPlans++
			} else {
				d.Status = StatusDifferent
				res.DifferentPlans++
			}
		}
		res.Details = append(res.Details, d)
	}
	return res
}

// Compare reconciles calculated plans with the saved rows of a plan kind.
func (s *Service) Compare(ctx context.Context, kind plans.Kind, subdivisionID, materialID int64, calculated []CalculatedPlan) (*ComparisonResult, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	if len(calculated) == 0 {
		return nil, apperror.NewValidation("calculatedPlans must not be empty").WithDetail("field", "calculatedPlans")
	}
	repo, err := s.savableRepo(kind)
	if err != nil {
		return nil, err
	}

	from, to := monthSpan(calculated)
	rows, err := repo.Query(ctx, plans.Filter{
		SubdivisionID: subdivisionID,
		MaterialID:    materialID,
		From:          from,
		To:            to,
	})
	if err != nil {
		return nil, err
	}

	res := ComparePlans(subdivisionID, materialID, calculated, rows)
	s.log.WithContext(ctx).Infow("plans compared",
		"kind", kind,
		"subdivision_id", subdivisionID,
		"material_id", materialID,
		"matching", res.MatchingPlans,
		"different", res.DifferentPlans,
		"missing", res.MissingPlans,
	)
	return &res, nil
}

// monthSpan returns [first month, month after last) of the plans.
func monthSpan(calculated []CalculatedPlan) (time.Time, time.Time) {
	from := period.MonthStart(calculated[0].Date)
	last := from
	for _, c := range calculated[1:] {
		m := period.MonthStart(c.Date)
		if m.Before(from) {
			from = m
		}
		if m.After(last) {
			last = m
		}
	}
	return from, period.Next(last)
}
