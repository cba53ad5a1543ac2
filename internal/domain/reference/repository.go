package reference

import (
	"context"
)

// RegulationFilter narrows ListRegulations. Zero values match everything.
type RegulationFilter struct {
	SubdivisionID int64
	MaterialID    int64
	Year          int
}

// CardFilter narrows ListTechnologicalCards. Zero values match everything.
type CardFilter struct {
	SubdivisionID     int64
	RawMaterialID     int64
	FinishedProductID int64
}

// Repository is the read-only view of reference data used by the engine.
// GetSubdivision and GetMaterial return apperror NOT_FOUND when absent.
type Repository interface {
	GetSubdivision(ctx context.Context, id int64) (*Subdivision, error)
	GetMaterial(ctx context.Context, id int64) (*Material, error)
	ListSubdivisions(ctx context.Context, subType *SubdivisionType) ([]Subdivision, error)
	ListMaterials(ctx context.Context, matType *MaterialType) ([]Material, error)

	ListRegulations(ctx context.Context, filter RegulationFilter) ([]Regulation, error)
	ListTechnologicalCards(ctx context.Context, filter CardFilter) ([]TechnologicalCard, error)
	ListSupplySources(ctx context.Context, year int) ([]SupplySource, error)
}

// Writer loads reference data. Only the seed tool and tests use it.
type Writer interface {
	CreateSubdivision(ctx context.Context, s *Subdivision) error
	CreateMaterial(ctx context.Context, m *Material) error
	UpsertRegulation(ctx context.Context, r *Regulation) error
	CreateTechnologicalCard(ctx context.Context, c *TechnologicalCard) error
	UpsertSupplySource(ctx context.Context, s *SupplySource) error
}
