package planning

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/apperror"
	appctx "supplyplan/internal/core/context"
	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
)

// SaveRequest persists a calculated plan for one key.
type SaveRequest struct {
	Kind              plans.Kind
	SubdivisionID     int64
	MaterialID        int64
	Plans             []CalculatedPlan
	OverwriteExisting bool
	Comment           string
}

// SaveResult reports what a save wrote.
type SaveResult struct {
	Saved         []plans.Row `json:"saved"`
	SkippedFrozen []string    `json:"skippedFrozen"`
	Overwritten   int         `json:"overwritten"`
	AuditID       int64       `json:"auditId,omitempty"`
}

func (s *Service) savableRepo(kind plans.Kind) (plans.Repository, error) {
	switch kind {
	case plans.KindInventory, plans.KindProduction, plans.KindWriteOff, plans.KindPurchase:
		return s.plans.ByKind(kind)
	}
	return nil, apperror.NewValidation(fmt.Sprintf("calculated %s plans cannot be saved here", kind)).
		WithDetail("kind", kind)
}

// SaveCalculatedPlans upserts calculated months in one transaction.
// Quantities are rounded to whole units here and nowhere else. Frozen months
// are skipped. With OverwriteExisting unset, any saved month among the
// request fails the whole save with CONFLICT.
func (s *Service) SaveCalculatedPlans(ctx context.Context, req SaveRequest) (*SaveResult, error) {
	repo, err := s.savableRepo(req.Kind)
	if err != nil {
		return nil, err
	}
	if err := validateIDs(req.SubdivisionID, req.MaterialID); err != nil {
		return nil, err
	}
	if len(req.Plans) == 0 {
		return nil, validationField("calculatedPlans", "calculatedPlans must not be empty")
	}

	res := &SaveResult{SkippedFrozen: []string{}}
	toSave := make([]CalculatedPlan, 0, len(req.Plans))
	seen := make(map[time.Time]bool, len(req.Plans))
	year := 0
	for _, p := range req.Plans {
		p.Date = period.MonthStart(p.Date)
		if p.Date.IsZero() || p.Date.Year() < 1 {
			return nil, validationField("calculatedPlans", "every plan needs a date")
		}
		if err := s.validateYear(p.Date.Year()); err != nil {
			return nil, err
		}
		if year == 0 {
			year = p.Date.Year()
		} else if p.Date.Year() != year {
			return nil, validationField("calculatedPlans",
				fmt.Sprintf("plans span %d and %d; save one year at a time", year, p.Date.Year()))
		}
		if seen[p.Date] {
			return nil, validationField("calculatedPlans", fmt.Sprintf("month %s appears twice", period.Key(p.Date)))
		}
		seen[p.Date] = true
		if s.frozen.IsFrozen(req.SubdivisionID, req.MaterialID, p.Date) {
			res.SkippedFrozen = append(res.SkippedFrozen, period.Key(p.Date))
			continue
		}
		toSave = append(toSave, p)
	}
	if len(toSave) == 0 {
		return res, nil
	}

	ctx, span := s.startSpan(ctx, "save",
		attribute.String("plan.kind", string(req.Kind)),
		attribute.Int64("subdivision.id", req.SubdivisionID),
		attribute.Int64("material.id", req.MaterialID),
		attribute.Int("plans", len(toSave)),
	)
	defer span.End()

	from, to := monthSpan(toSave)
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.txm.LockKey(ctx, "plan:"+string(req.Kind), req.SubdivisionID, req.MaterialID); err != nil {
			return fmt.Errorf("lock plan key: %w", err)
		}

		existing, err := repo.Query(ctx, plans.Filter{
			SubdivisionID: req.SubdivisionID,
			MaterialID:    req.MaterialID,
			From:          from,
			To:            to,
		})
		if err != nil {
			return err
		}
		previous := make([]plans.Row, 0, len(existing))
		for _, r := range existing {
			if seen[period.MonthStart(r.Date)] {
				previous = append(previous, r)
			}
		}
		if len(previous) > 0 && !req.OverwriteExisting {
			months := make([]string, len(previous))
			for i, r := range previous {
				months[i] = period.Key(r.Date)
			}
			return apperror.NewConflict(fmt.Sprintf("%d %s plans are already saved", len(previous), req.Kind)).
				WithDetail("months", months).
				WithSuggestion("compare with the saved plans, then save again with overwriteExisting")
		}

		rows := make([]plans.Row, len(toSave))
		for i, p := range toSave {
			rows[i] = plans.Row{
				SubdivisionID: req.SubdivisionID,
				MaterialID:    req.MaterialID,
				Date:          p.Date,
				Quantity:      types.RoundQuantity(p.Quantity),
				IsCalculated:  true,
				Note:          p.Note,
			}
		}
		if err := repo.UpsertBatch(ctx, rows); err != nil {
			return err
		}

		entry := &plans.AuditEntry{
			Kind:          req.Kind,
			SubdivisionID: req.SubdivisionID,
			MaterialID:    req.MaterialID,
			Year:          year,
			Comment:       req.Comment,
			Operator:      appctx.GetOperator(ctx),
			Previous:      previous,
			Saved:         rows,
		}
		if err := s.audit.Record(ctx, entry); err != nil {
			return fmt.Errorf("record audit: %w", err)
		}

		res.Saved = rows
		res.Overwritten = len(previous)
		res.AuditID = entry.ID
		return nil
	})
	if err != nil {
		return nil, s.saveError(ctx, "save "+string(req.Kind)+" plans", err)
	}

	s.log.WithContext(ctx).Infow("plans saved",
		"kind", req.Kind,
		"subdivision_id", req.SubdivisionID,
		"material_id", req.MaterialID,
		"saved", len(res.Saved),
		"overwritten", res.Overwritten,
		"skipped_frozen", len(res.SkippedFrozen),
	)
	return res, nil
}

// saveError maps a failed transaction to the API taxonomy.
func (s *Service) saveError(ctx context.Context, operation string, err error) error {
	if appErr, ok := apperror.AsAppError(err); ok && appErr.Code != apperror.CodeInternal {
		return appErr
	}
	s.log.WithContext(ctx).Errorw("transaction rolled back", "operation", operation, "error", err)
	if errors.Is(err, context.DeadlineExceeded) {
		return apperror.NewTimeout(operation).WithCause(err)
	}
	return apperror.NewTransaction(operation, err)
}

// GetSavedPlans returns the saved rows of a key for a year.
func (s *Service) GetSavedPlans(ctx context.Context, kind plans.Kind, subdivisionID, materialID int64, year int) ([]plans.Row, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	repo, err := s.plans.ByKind(kind)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	return repo.Query(ctx, plans.Filter{SubdivisionID: subdivisionID, MaterialID: materialID, Year: year})
}

// GetHistoryPlans returns the audit journal of a key, newest first.
func (s *Service) GetHistoryPlans(ctx context.Context, kind plans.Kind, subdivisionID, materialID int64, year int) ([]plans.AuditEntry, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	return s.audit.History(ctx, kind, subdivisionID, materialID, year)
}
