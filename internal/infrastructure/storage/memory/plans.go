package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
)

func monthStart(t time.Time) time.Time { return period.MonthStart(t) }

type planRepo struct {
	s    *Store
	kind plans.Kind
}

func (r *planRepo) Kind() plans.Kind { return r.kind }

func (r *planRepo) table() map[int64]plans.Row { return r.s.st.rows[r.kind] }

func (r *planRepo) Upsert(ctx context.Context, row *plans.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.upsertLocked(row)
}

func (r *planRepo) upsertLocked(row *plans.Row) error {
	if err := r.s.checkRefs(row.SubdivisionID, row.MaterialID); err != nil {
		return err
	}
	row.Date = monthStart(row.Date)
	now := r.s.now().UTC()
	for id, existing := range r.table() {
		if existing.SubdivisionID == row.SubdivisionID && existing.MaterialID == row.MaterialID && existing.Date.Equal(row.Date) {
			row.ID = id
			row.CreatedAt = existing.CreatedAt
			row.UpdatedAt = now
			r.table()[id] = *row
			return nil
		}
	}
	row.ID = r.s.id()
	row.CreatedAt = now
	row.UpdatedAt = now
	r.table()[row.ID] = *row
	return nil
}

func (r *planRepo) UpsertBatch(ctx context.Context, rows []plans.Row) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for i := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.upsertLocked(&rows[i]); err != nil {
			return err
		}
	}
	return nil
}

func matchesPeriod(date time.Time, year int, from, to time.Time) bool {
	if year != 0 {
		return date.Year() == year
	}
	if !from.IsZero() && date.Before(from) {
		return false
	}
	if !to.IsZero() && !date.Before(to) {
		return false
	}
	return true
}

func (r *planRepo) Query(ctx context.Context, f plans.Filter) ([]plans.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []plans.Row
	for _, row := range r.table() {
		if f.SubdivisionID != 0 && row.SubdivisionID != f.SubdivisionID {
			continue
		}
		if f.MaterialID != 0 && row.MaterialID != f.MaterialID {
			continue
		}
		if !matchesPeriod(row.Date, f.Year, f.From, f.To) {
			continue
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b plans.Row) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.SubdivisionID, b.SubdivisionID),
			cmp.Compare(a.MaterialID, b.MaterialID),
		)
	})
	return out, nil
}

func (r *planRepo) GetByID(_ context.Context, id int64) (*plans.Row, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.table()[id]
	if !ok {
		return nil, apperror.NewNotFound(string(r.kind)+" plan", id)
	}
	return &row, nil
}

func (r *planRepo) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.table()[id]; !ok {
		return apperror.NewNotFound(string(r.kind)+" plan", id)
	}
	delete(r.table(), id)
	return nil
}

func (r *planRepo) DeleteByKey(_ context.Context, subdivisionID, materialID int64, year int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, row := range r.table() {
		if row.SubdivisionID == subdivisionID && row.MaterialID == materialID && row.Date.Year() == year {
			delete(r.table(), id)
			n++
		}
	}
	return n, nil
}

type transferRepo struct {
	s *Store
}

func (r *transferRepo) Upsert(ctx context.Context, row *plans.TransferRow) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if err := r.checkRefs(row); err != nil {
		return err
	}
	row.Date = monthStart(row.Date)
	now := r.s.now().UTC()
	for id, existing := range r.s.st.transfers {
		if existing.SourceSubdivisionID == row.SourceSubdivisionID &&
			existing.DestinationSubdivisionID == row.DestinationSubdivisionID &&
			existing.MaterialID == row.MaterialID && existing.Date.Equal(row.Date) {
			row.ID = id
			row.CreatedAt = existing.CreatedAt
			row.UpdatedAt = now
			r.s.st.transfers[id] = *row
			return nil
		}
	}
	row.ID = r.s.id()
	row.CreatedAt, row.UpdatedAt = now, now
	r.s.st.transfers[row.ID] = *row
	return nil
}

func (r *transferRepo) checkRefs(row *plans.TransferRow) error {
	if err := r.s.checkRefs(row.SourceSubdivisionID, row.MaterialID); err != nil {
		return err
	}
	return r.s.checkRefs(row.DestinationSubdivisionID, row.MaterialID)
}

func (r *transferRepo) Query(ctx context.Context, f plans.TransferFilter) ([]plans.TransferRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	var out []plans.TransferRow
	for _, row := range r.s.st.transfers {
		if f.SourceSubdivisionID != 0 && row.SourceSubdivisionID != f.SourceSubdivisionID {
			continue
		}
		if f.DestinationSubdivisionID != 0 && row.DestinationSubdivisionID != f.DestinationSubdivisionID {
			continue
		}
		if f.MaterialID != 0 && row.MaterialID != f.MaterialID {
			continue
		}
		if !matchesPeriod(row.Date, f.Year, f.From, f.To) {
			continue
		}
		out = append(out, row)
	}
	slices.SortFunc(out, func(a, b plans.TransferRow) int {
		return cmp.Or(
			a.Date.Compare(b.Date),
			cmp.Compare(a.SourceSubdivisionID, b.SourceSubdivisionID),
			cmp.Compare(a.DestinationSubdivisionID, b.DestinationSubdivisionID),
			cmp.Compare(a.MaterialID, b.MaterialID),
		)
	})
	return out, nil
}

func (r *transferRepo) GetByID(_ context.Context, id int64) (*plans.TransferRow, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	row, ok := r.s.st.transfers[id]
	if !ok {
		return nil, apperror.NewNotFound("transfer plan", id)
	}
	return &row, nil
}

func (r *transferRepo) DeleteByID(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.st.transfers[id]; !ok {
		return apperror.NewNotFound("transfer plan", id)
	}
	delete(r.s.st.transfers, id)
	return nil
}

func (r *transferRepo) DeleteByIDs(_ context.Context, ids []int64) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for _, id := range ids {
		if _, ok := r.s.st.transfers[id]; ok {
			delete(r.s.st.transfers, id)
			n++
		}
	}
	return n, nil
}

func (r *transferRepo) InsertBatch(ctx context.Context, rows []plans.TransferRow) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	now := r.s.now().UTC()
	for i := range rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		row := &rows[i]
		if err := r.checkRefs(row); err != nil {
			return err
		}
		for _, existing := range r.s.st.transfers {
			if existing.SourceSubdivisionID == row.SourceSubdivisionID &&
				existing.DestinationSubdivisionID == row.DestinationSubdivisionID &&
				existing.MaterialID == row.MaterialID && existing.Date.Equal(monthStart(row.Date)) {
				return apperror.NewDuplicate("transfer plan", "key", period.Key(row.Date))
			}
		}
		row.Date = monthStart(row.Date)
		row.ID = r.s.id()
		row.CreatedAt, row.UpdatedAt = now, now
		r.s.st.transfers[row.ID] = *row
	}
	return nil
}

func (r *transferRepo) DeleteByKey(_ context.Context, sourceSubdivisionID, materialID int64, year int) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var n int64
	for id, row := range r.s.st.transfers {
		if row.SourceSubdivisionID == sourceSubdivisionID && row.MaterialID == materialID && row.Date.Year() == year {
			delete(r.s.st.transfers, id)
			n++
		}
	}
	return n, nil
}
