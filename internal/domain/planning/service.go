// Package planning implements the monthly planning folds: inventory,
// production, raw material write-off, purchase and transfer plans, plus
// reconciliation against saved plans and the two-phase batch recalculation.
package planning

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/core/tx"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/pkg/logger"
)

var tracer = otel.Tracer("supplyplan/planning")

// TxManager runs saves atomically, serializes writers of one plan key and
// gives yearly previews a read-only snapshot.
type TxManager interface {
	tx.ReadOnlyManager
	tx.KeyLocker
}

// Deps wires the service to storage and configuration.
type Deps struct {
	Reference reference.Repository
	Plans     *plans.Repositories
	Audit     plans.AuditJournal
	TxManager TxManager
	Frozen    period.FrozenSet
	Years     period.YearRange
	Logger    *logger.Logger
}

// Service is the planning calculation engine.
type Service struct {
	ref    reference.Repository
	plans  *plans.Repositories
	audit  plans.AuditJournal
	txm    TxManager
	frozen period.FrozenSet
	years  period.YearRange
	log    *logger.Logger
}

// NewService creates the planning engine.
func NewService(deps Deps) *Service {
	log := deps.Logger
	if log == nil {
		log = logger.Default()
	}
	return &Service{
		ref:    deps.Reference,
		plans:  deps.Plans,
		audit:  deps.Audit,
		txm:    deps.TxManager,
		frozen: deps.Frozen,
		years:  deps.Years,
		log:    log.WithComponent("planning"),
	}
}

// readOnly runs a yearly preview inside a read-only transaction.
func readOnly[T any](ctx context.Context, s *Service, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := s.txm.ReadOnly(ctx, func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	return out, err
}

// planKey is the resolved (subdivision, material) pair of a request.
type planKey struct {
	sub     *reference.Subdivision
	mat     *reference.Material
	formula Formula
}

func (k planKey) attrs() []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int64("subdivision.id", k.sub.ID),
		attribute.Int64("material.id", k.mat.ID),
		attribute.String("calculation.type", string(k.formula.Type)),
	}
}

func (s *Service) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return tracer.Start(ctx, "planning."+name, trace.WithAttributes(attrs...))
}

func validateIDs(subdivisionID, materialID int64) error {
	if subdivisionID <= 0 {
		return apperror.NewValidation("subdivisionId is required").WithDetail("field", "subdivisionId")
	}
	if materialID <= 0 {
		return apperror.NewValidation("materialId is required").WithDetail("field", "materialId")
	}
	return nil
}

func (s *Service) validateYear(year int) error {
	if year == 0 {
		return apperror.NewValidation("year is required").WithDetail("field", "year")
	}
	if !s.years.Contains(year) {
		return apperror.NewValidation(fmt.Sprintf("year must be between %d and %d", s.years.Min, s.years.Max)).
			WithDetail("field", "year").
			WithDetail("value", year)
	}
	return nil
}

// checkFrozen rejects requests that target a frozen month.
func (s *Service) checkFrozen(subdivisionID, materialID int64, date time.Time) error {
	if s.frozen.IsFrozen(subdivisionID, materialID, date) {
		return apperror.NewFrozenPeriod(period.Key(date)).
			WithSuggestion("this month holds manually loaded data; choose another month or edit the plan directly")
	}
	return nil
}

// resolveKey loads the subdivision and material and selects the formula.
// A missing subdivision or material aborts the request.
func (s *Service) resolveKey(ctx context.Context, subdivisionID, materialID int64) (planKey, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return planKey{}, err
	}
	sub, err := s.ref.GetSubdivision(ctx, subdivisionID)
	if err != nil {
		return planKey{}, err
	}
	mat, err := s.ref.GetMaterial(ctx, materialID)
	if err != nil {
		return planKey{}, err
	}
	formula, err := SelectFormula(sub.Type, mat.Type)
	if err != nil {
		return planKey{}, err
	}
	return planKey{sub: sub, mat: mat, formula: formula}, nil
}

// requireType narrows resolveKey to one formula branch.
func (s *Service) requireType(ctx context.Context, subdivisionID, materialID int64, want CalculationType) (planKey, error) {
	key, err := s.resolveKey(ctx, subdivisionID, materialID)
	if err != nil {
		return planKey{}, err
	}
	if key.formula.Type != want {
		return planKey{}, apperror.NewValidation(fmt.Sprintf(
			"%s calculation requires %s, got %s subdivision and %s material",
			want, want.describe(), key.sub.Type, key.mat.Type,
		)).WithDetail("calculationType", key.formula.Type)
	}
	return key, nil
}

// regulationDays indexes days-of-stock norms by month.
func (s *Service) regulationDays(ctx context.Context, subdivisionID, materialID int64, years ...int) (map[time.Time]int, error) {
	out := make(map[time.Time]int)
	for _, y := range years {
		regs, err := s.ref.ListRegulations(ctx, reference.RegulationFilter{
			SubdivisionID: subdivisionID,
			MaterialID:    materialID,
			Year:          y,
		})
		if err != nil {
			return nil, fmt.Errorf("list regulations: %w", err)
		}
		for _, r := range regs {
			out[period.MonthStart(r.Date)] = r.DaysCount
		}
	}
	return out, nil
}

// rowsByMonth loads one key of a plan kind over [from, to) indexed by month start.
func rowsByMonth(ctx context.Context, repo plans.Repository, subdivisionID, materialID int64, from, to time.Time) (map[time.Time]plans.Row, error) {
	rows, err := repo.Query(ctx, plans.Filter{
		SubdivisionID: subdivisionID,
		MaterialID:    materialID,
		From:          from,
		To:            to,
	})
	if err != nil {
		return nil, fmt.Errorf("query %s plans: %w", repo.Kind(), err)
	}
	out := make(map[time.Time]plans.Row, len(rows))
	for _, r := range rows {
		out[period.MonthStart(r.Date)] = r
	}
	return out, nil
}

// transfersBySource sums outgoing transfers of a production subdivision per month.
func (s *Service) transfersBySource(ctx context.Context, sourceID, materialID int64, from, to time.Time) (map[time.Time]float64, error) {
	rows, err := s.plans.Transfers.Query(ctx, plans.TransferFilter{
		SourceSubdivisionID: sourceID,
		MaterialID:          materialID,
		From:                from,
		To:                  to,
	})
	if err != nil {
		return nil, fmt.Errorf("query transfer plans: %w", err)
	}
	out := make(map[time.Time]float64)
	for _, r := range rows {
		out[period.MonthStart(r.Date)] += r.Quantity
	}
	return out, nil
}

func (s *Service) materialNames(ctx context.Context) (map[int64]string, error) {
	mats, err := s.ref.ListMaterials(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	out := make(map[int64]string, len(mats))
	for _, m := range mats {
		out[m.ID] = m.Name
	}
	return out, nil
}

func (s *Service) subdivisionNames(ctx context.Context) (map[int64]reference.Subdivision, error) {
	subs, err := s.ref.ListSubdivisions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	out := make(map[int64]reference.Subdivision, len(subs))
	for _, sub := range subs {
		out[sub.ID] = sub
	}
	return out, nil
}

func validationField(field, message string) error {
	return apperror.NewValidation(message).WithDetail("field", field)
}
