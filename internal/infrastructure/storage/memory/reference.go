package memory

import (
	"cmp"
	"context"
	"slices"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/reference"
)

// GetSubdivision implements reference.Repository.
func (s *Store) GetSubdivision(_ context.Context, id int64) (*reference.Subdivision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.st.subdivisions[id]
	if !ok {
		return nil, apperror.NewNotFound("subdivision", id)
	}
	return &sub, nil
}

// GetMaterial implements reference.Repository.
func (s *Store) GetMaterial(_ context.Context, id int64) (*reference.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.st.materials[id]
	if !ok {
		return nil, apperror.NewNotFound("material", id)
	}
	return &m, nil
}

// ListSubdivisions implements reference.Repository.
func (s *Store) ListSubdivisions(_ context.Context, subType *reference.SubdivisionType) ([]reference.Subdivision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reference.Subdivision, 0, len(s.st.subdivisions))
	for _, sub := range s.st.subdivisions {
		if subType == nil || sub.Type == *subType {
			out = append(out, sub)
		}
	}
	slices.SortFunc(out, func(a, b reference.Subdivision) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListMaterials implements reference.Repository.
func (s *Store) ListMaterials(_ context.Context, matType *reference.MaterialType) ([]reference.Material, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]reference.Material, 0, len(s.st.materials))
	for _, m := range s.st.materials {
		if matType == nil || m.Type == *matType {
			out = append(out, m)
		}
	}
	slices.SortFunc(out, func(a, b reference.Material) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListRegulations implements reference.Repository.
func (s *Store) ListRegulations(_ context.Context, f reference.RegulationFilter) ([]reference.Regulation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []reference.Regulation
	for _, r := range s.st.regulations {
		if f.SubdivisionID != 0 && r.SubdivisionID != f.SubdivisionID {
			continue
		}
		if f.MaterialID != 0 && r.MaterialID != f.MaterialID {
			continue
		}
		if f.Year != 0 && r.Date.Year() != f.Year {
			continue
		}
		out = append(out, r)
	}
	slices.SortFunc(out, func(a, b reference.Regulation) int {
		return cmp.Or(
			cmp.Compare(a.SubdivisionID, b.SubdivisionID),
			cmp.Compare(a.MaterialID, b.MaterialID),
			a.Date.Compare(b.Date),
		)
	})
	return out, nil
}

// ListTechnologicalCards implements reference.Repository.
func (s *Store) ListTechnologicalCards(_ context.Context, f reference.CardFilter) ([]reference.TechnologicalCard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []reference.TechnologicalCard
	for _, c := range s.st.cards {
		if f.SubdivisionID != 0 && c.SubdivisionID != f.SubdivisionID {
			continue
		}
		if f.RawMaterialID != 0 && c.RawMaterialID != f.RawMaterialID {
			continue
		}
		if f.FinishedProductID != 0 && c.FinishedProductID != f.FinishedProductID {
			continue
		}
		out = append(out, c)
	}
	slices.SortFunc(out, func(a, b reference.TechnologicalCard) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

// ListSupplySources implements reference.Repository.
func (s *Store) ListSupplySources(_ context.Context, year int) ([]reference.SupplySource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []reference.SupplySource
	for _, src := range s.st.sources {
		if src.Year == year {
			out = append(out, src)
		}
	}
	slices.SortFunc(out, func(a, b reference.SupplySource) int {
		return cmp.Or(
			cmp.Compare(a.DestinationSubdivisionID, b.DestinationSubdivisionID),
			cmp.Compare(a.MaterialID, b.MaterialID),
			cmp.Compare(a.Month, b.Month),
		)
	})
	return out, nil
}

// --- reference.Writer ---

// CreateSubdivision implements reference.Writer. A zero ID is assigned.
func (s *Store) CreateSubdivision(_ context.Context, sub *reference.Subdivision) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sub.ID == 0 {
		sub.ID = s.id()
	} else if sub.ID > s.st.nextID {
		s.st.nextID = sub.ID
	}
	s.st.subdivisions[sub.ID] = *sub
	return nil
}

// CreateMaterial implements reference.Writer. A zero ID is assigned.
func (s *Store) CreateMaterial(_ context.Context, m *reference.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if m.ID == 0 {
		m.ID = s.id()
	} else if m.ID > s.st.nextID {
		s.st.nextID = m.ID
	}
	s.st.materials[m.ID] = *m
	return nil
}

// UpsertRegulation implements reference.Writer, unique per key and month.
func (s *Store) UpsertRegulation(ctx context.Context, r *reference.Regulation) error {
	if err := r.Validate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(r.SubdivisionID, r.MaterialID); err != nil {
		return err
	}
	r.Date = monthStart(r.Date)
	for id, existing := range s.st.regulations {
		if existing.SubdivisionID == r.SubdivisionID && existing.MaterialID == r.MaterialID && existing.Date.Equal(r.Date) {
			r.ID = id
			s.st.regulations[id] = *r
			return nil
		}
	}
	r.ID = s.id()
	s.st.regulations[r.ID] = *r
	return nil
}

// CreateTechnologicalCard implements reference.Writer.
func (s *Store) CreateTechnologicalCard(ctx context.Context, c *reference.TechnologicalCard) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(c.SubdivisionID, c.FinishedProductID); err != nil {
		return err
	}
	if _, ok := s.st.materials[c.RawMaterialID]; !ok {
		return apperror.NewConflict("raw material does not exist").WithDetail("materialId", c.RawMaterialID)
	}
	c.ID = s.id()
	s.st.cards[c.ID] = *c
	return nil
}

// UpsertSupplySource implements reference.Writer, unique per destination, material and month.
func (s *Store) UpsertSupplySource(ctx context.Context, src *reference.SupplySource) error {
	if err := src.Validate(ctx); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkRefs(src.DestinationSubdivisionID, src.MaterialID); err != nil {
		return err
	}
	for id, existing := range s.st.sources {
		if existing.DestinationSubdivisionID == src.DestinationSubdivisionID &&
			existing.MaterialID == src.MaterialID && existing.Year == src.Year && existing.Month == src.Month {
			src.ID = id
			s.st.sources[id] = *src
			return nil
		}
	}
	src.ID = s.id()
	s.st.sources[src.ID] = *src
	return nil
}

// checkRefs mirrors the foreign keys of the SQL schema. Caller holds s.mu.
func (s *Store) checkRefs(subdivisionID, materialID int64) error {
	if _, ok := s.st.subdivisions[subdivisionID]; !ok {
		return apperror.NewConflict("subdivision does not exist").WithDetail("subdivisionId", subdivisionID)
	}
	if _, ok := s.st.materials[materialID]; !ok {
		return apperror.NewConflict("material does not exist").WithDetail("materialId", materialID)
	}
	return nil
}
