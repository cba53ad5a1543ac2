package plans

import (
	"context"
	"fmt"
	"time"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/core/tx"
)

// Service provides manual CRUD over plan tables.
// Rows written here are not calculated and may seed frozen months.
type Service struct {
	repos     *Repositories
	txManager tx.Manager
	years     period.YearRange
}

// NewService creates a plan CRUD service.
func NewService(repos *Repositories, txManager tx.Manager, years period.YearRange) *Service {
	return &Service{repos: repos, txManager: txManager, years: years}
}

func (s *Service) repo(kind Kind) (Repository, error) {
	repo, err := s.repos.ByKind(kind)
	if err != nil {
		return nil, apperror.NewValidation(err.Error())
	}
	return repo, nil
}

func (s *Service) checkYear(year int) error {
	if year != 0 && !s.years.Contains(year) {
		return apperror.NewValidation(fmt.Sprintf("year must be between %d and %d", s.years.Min, s.years.Max)).
			WithDetail("field", "year")
	}
	return nil
}

// bound fills open ends of a date range with the configured planning range.
func (s *Service) bound(from, to time.Time) (time.Time, time.Time) {
	lo, hi := s.years.Bounds()
	if from.IsZero() {
		from = lo
	}
	if to.IsZero() {
		to = hi
	}
	return from, to
}

func normalizeGetErr(kind Kind, err error, id int64) error {
	if apperror.IsNotFound(err) {
		return apperror.NewNotFound(string(kind)+" plan", id)
	}
	return err
}

// List returns rows matching filter. An empty year is bounded by the
// configured planning range.
func (s *Service) List(ctx context.Context, kind Kind, filter Filter) ([]Row, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	if err := s.checkYear(filter.Year); err != nil {
		return nil, err
	}
	if filter.Year == 0 {
		filter.From, filter.To = s.bound(filter.From, filter.To)
	}
	return repo.Query(ctx, filter)
}

// Get returns a row by id.
func (s *Service) Get(ctx context.Context, kind Kind, id int64) (*Row, error) {
	repo, err := s.repo(kind)
	if err != nil {
		return nil, err
	}
	row, err := repo.GetByID(ctx, id)
	if err != nil {
		return nil, normalizeGetErr(kind, err, id)
	}
	return row, nil
}

// Save upserts a manually entered row.
func (s *Service) Save(ctx context.Context, kind Kind, row *Row) error {
	repo, err := s.repo(kind)
	if err != nil {
		return err
	}
	row.Normalize()
	if err := row.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkYear(row.Date.Year()); err != nil {
		return err
	}
	if kind == KindSales && row.Quantity < 0 {
		return apperror.NewValidation("sales quantity must not be negative").WithDetail("field", "quantity")
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.Upsert(ctx, row)
	})
}

// Delete removes a row by id.
func (s *Service) Delete(ctx context.Context, kind Kind, id int64) error {
	repo, err := s.repo(kind)
	if err != nil {
		return err
	}
	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return repo.DeleteByID(ctx, id)
	})
	if err != nil {
		return normalizeGetErr(kind, err, id)
	}
	return nil
}

// DeleteYear removes a year of one key and returns the deleted count.
func (s *Service) DeleteYear(ctx context.Context, kind Kind, subdivisionID, materialID int64, year int) (int64, error) {
	if err := s.checkYear(year); err != nil {
		return 0, err
	}
	if subdivisionID <= 0 || materialID <= 0 || year == 0 {
		return 0, apperror.NewValidation("subdivisionId, materialId and year are required")
	}

	var deleted int64
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		if kind == KindTransfer {
			deleted, err = s.repos.Transfers.DeleteByKey(ctx, subdivisionID, materialID, year)
			return err
		}
		repo, err := s.repo(kind)
		if err != nil {
			return err
		}
		deleted, err = repo.DeleteByKey(ctx, subdivisionID, materialID, year)
		return err
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// ListTransfers returns transfer rows matching filter.
func (s *Service) ListTransfers(ctx context.Context, filter TransferFilter) ([]TransferRow, error) {
	if err := s.checkYear(filter.Year); err != nil {
		return nil, err
	}
	if filter.Year == 0 {
		filter.From, filter.To = s.bound(filter.From, filter.To)
	}
	return s.repos.Transfers.Query(ctx, filter)
}

// GetTransfer returns a transfer row by id.
func (s *Service) GetTransfer(ctx context.Context, id int64) (*TransferRow, error) {
	row, err := s.repos.Transfers.GetByID(ctx, id)
	if err != nil {
		return nil, normalizeGetErr(KindTransfer, err, id)
	}
	return row, nil
}

// SaveTransfer upserts a manually entered transfer row.
func (s *Service) SaveTransfer(ctx context.Context, row *TransferRow) error {
	row.Normalize()
	if err := row.Validate(ctx); err != nil {
		return err
	}
	if err := s.checkYear(row.Date.Year()); err != nil {
		return err
	}
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repos.Transfers.Upsert(ctx, row)
	})
}

// DeleteTransfer removes a transfer row by id.
func (s *Service) DeleteTransfer(ctx context.Context, id int64) error {
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return s.repos.Transfers.DeleteByID(ctx, id)
	})
	if err != nil {
		return normalizeGetErr(KindTransfer, err, id)
	}
	return nil
}
