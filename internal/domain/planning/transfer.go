package planning

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

// TransferPlan is one calculated month of goods moving from a production
// subdivision to a trading subdivision.
type TransferPlan struct {
	SourceSubdivisionID        int64     `json:"sourceSubdivisionId"`
	SourceSubdivisionName      string    `json:"sourceSubdivisionName"`
	DestinationSubdivisionID   int64     `json:"destinationSubdivisionId"`
	DestinationSubdivisionName string    `json:"destinationSubdivisionName"`
	MaterialID                 int64     `json:"materialId"`
	MaterialName               string    `json:"materialName"`
	TransferDate               time.Time `json:"transferDate"`
	Quantity                   float64   `json:"quantity"`
	SalesPlan                  float64   `json:"salesPlan"`
	CurrentInventory           float64   `json:"currentInventory"`
	NextInventory              float64   `json:"nextInventory"`
}

// TransferStatistics counts what a yearly transfer calculation covered.
type TransferStatistics struct {
	ProductionSubdivisionsCount int `json:"productionSubdivisionsCount"`
	TradingSubdivisionsCount    int `json:"tradingSubdivisionsCount"`
	FinishedProductsCount       int `json:"finishedProductsCount"`
	MonthsCalculated            int `json:"monthsCalculated"`
}

// TransferCalculation is the result of a yearly transfer calculation.
type TransferCalculation struct {
	Success         bool               `json:"success"`
	Message         string             `json:"message"`
	CalculatedPlans []TransferPlan     `json:"calculatedPlans"`
	Year            int                `json:"year"`
	PlansCount      int                `json:"plansCount"`
	Statistics      TransferStatistics `json:"statistics"`
	DeletedCount    int64              `json:"deletedCount"`
	SkippedFrozen   []string           `json:"skippedFrozen"`
	Warnings        []string           `json:"warnings,omitempty"`
}

// CalculateTransfers computes, for every assigned supply source of year,
// transfer = max(0, sales + next inventory − current inventory) of the
// destination. With persist set, all non-frozen transfer rows of the year are
// replaced by the new set inside one transaction.
func (s *Service) CalculateTransfers(ctx context.Context, year int, persist bool) (*TransferCalculation, error) {
	if err := s.validateYear(year); err != nil {
		return nil, err
	}

	ctx, span := s.startSpan(ctx, "transfer_year", attribute.Int("year", year), attribute.Bool("persist", persist))
	defer span.End()

	sources, err := s.ref.ListSupplySources(ctx, year)
	if err != nil {
		return nil, fmt.Errorf("list supply sources: %w", err)
	}
	subs, err := s.subdivisionNames(ctx)
	if err != nil {
		return nil, err
	}
	mats, err := s.ref.ListMaterials(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list materials: %w", err)
	}
	matByID := make(map[int64]reference.Material, len(mats))
	for _, m := range mats {
		matByID[m.ID] = m
	}

	res := &TransferCalculation{
		Year:            year,
		CalculatedPlans: []TransferPlan{},
		SkippedFrozen:   []string{},
	}
	folds := make(map[[2]int64]*InventoryYear)
	producers := make(map[int64]bool)
	traders := make(map[int64]bool)
	products := make(map[int64]bool)
	months := make(map[int]bool)

	for _, src := range sources {
		if src.SourceSubdivisionID == nil {
			continue
		}
		source, okSrc := subs[*src.SourceSubdivisionID]
		dest, okDst := subs[src.DestinationSubdivisionID]
		mat, okMat := matByID[src.MaterialID]
		if !okSrc || !okDst || !okMat {
			res.Warnings = append(res.Warnings, fmt.Sprintf("supply source %d references unknown data", src.ID))
			continue
		}
		if source.Type != reference.SubdivisionProduction || dest.Type != reference.SubdivisionTrading || mat.Type != reference.MaterialFinished {
			res.Warnings = append(res.Warnings, fmt.Sprintf(
				"supply source %d skipped: transfers go from Production to Trading for finished products", src.ID))
			continue
		}

		date := period.Month(year, time.Month(src.Month))
		if s.frozen.IsFrozen(source.ID, mat.ID, date) {
			res.SkippedFrozen = append(res.SkippedFrozen, fmt.Sprintf("%s@%d:%d", period.Key(date), source.ID, mat.ID))
			continue
		}

		foldKey := [2]int64{dest.ID, mat.ID}
		fold, ok := folds[foldKey]
		if !ok {
			key := planKey{sub: &dest, mat: &mat, formula: formulas[dest.Type][mat.Type]}
			fold, err = s.inventoryYear(ctx, key, year)
			if err != nil {
				return nil, err
			}
			folds[foldKey] = fold
		}

		m := fold.Months[src.Month-1]
		sales := m.BaseQuantity
		qty := math.Max(0, sales+m.NextMonthInventory-m.CurrentMonthInventory)

		res.CalculatedPlans = append(res.CalculatedPlans, TransferPlan{
			SourceSubdivisionID:        source.ID,
			SourceSubdivisionName:      source.Name,
			DestinationSubdivisionID:   dest.ID,
			DestinationSubdivisionName: dest.Name,
			MaterialID:                 mat.ID,
			MaterialName:               mat.Name,
			TransferDate:               date,
			Quantity:                   qty,
			SalesPlan:                  sales,
			CurrentInventory:           m.CurrentMonthInventory,
			NextInventory:              m.NextMonthInventory,
		})
		producers[source.ID] = true
		traders[dest.ID] = true
		products[mat.ID] = true
		months[src.Month] = true
	}

	res.PlansCount = len(res.CalculatedPlans)
	res.Statistics = TransferStatistics{
		ProductionSubdivisionsCount: len(producers),
		TradingSubdivisionsCount:    len(traders),
		FinishedProductsCount:       len(products),
		MonthsCalculated:            len(months),
	}

	if persist {
		deleted, err := s.replaceTransfers(ctx, year, res.CalculatedPlans)
		if err != nil {
			return nil, err
		}
		res.DeletedCount = deleted
		res.Message = fmt.Sprintf("%d transfer plans calculated for %d, %d previous plans replaced", res.PlansCount, year, deleted)
	} else {
		res.Message = fmt.Sprintf("%d transfer plans calculated for %d (preview, nothing saved)", res.PlansCount, year)
	}
	res.Success = true

	s.log.WithContext(ctx).Infow("transfer plans calculated",
		"year", year,
		"plans", res.PlansCount,
		"persist", persist,
		"deleted", res.DeletedCount,
		"skipped_frozen", len(res.SkippedFrozen),
		"warnings", len(res.Warnings),
	)
	return res, nil
}

// replaceTransfers deletes the year's non-frozen transfer rows and inserts
// the calculated set, all or nothing.
func (s *Service) replaceTransfers(ctx context.Context, year int, calculated []TransferPlan) (int64, error) {
	var deleted int64
	err := s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.txm.LockKey(ctx, "plan:"+string(plans.KindTransfer), int64(year)); err != nil {
			return fmt.Errorf("lock transfer year: %w", err)
		}

		existing, err := s.plans.Transfers.Query(ctx, plans.TransferFilter{Year: year})
		if err != nil {
			return err
		}
		ids := make([]int64, 0, len(existing))
		for _, r := range existing {
			if !s.frozen.IsFrozen(r.SourceSubdivisionID, r.MaterialID, r.Date) {
				ids = append(ids, r.ID)
			}
		}
		if deleted, err = s.plans.Transfers.DeleteByIDs(ctx, ids); err != nil {
			return err
		}

		rows := make([]plans.TransferRow, len(calculated))
		for i, p := range calculated {
			rows[i] = plans.TransferRow{
				SourceSubdivisionID:      p.SourceSubdivisionID,
				DestinationSubdivisionID: p.DestinationSubdivisionID,
				MaterialID:               p.MaterialID,
				Date:                     p.TransferDate,
				Quantity:                 types.RoundQuantity(p.Quantity),
				IsCalculated:             true,
			}
		}
		return s.plans.Transfers.InsertBatch(ctx, rows)
	})
	if err != nil {
		return 0, s.saveError(ctx, "replace transfer plans", err)
	}
	return deleted, nil
}

// TransferDebug lists the transfer rows behind a production plan.
type TransferDebug struct {
	SubdivisionID int64               `json:"subdivisionId"`
	MaterialID    int64               `json:"materialId"`
	Year          int                 `json:"year"`
	Transfers     []plans.TransferRow `json:"transfers"`
	MonthlyTotals map[string]float64  `json:"monthlyTotals"`
	Total         float64             `json:"total"`
}

// DebugTransfers returns the outgoing transfers of a production subdivision
// that feed its production plan for year.
func (s *Service) DebugTransfers(ctx context.Context, subdivisionID, materialID int64, year int) (*TransferDebug, error) {
	if err := validateIDs(subdivisionID, materialID); err != nil {
		return nil, err
	}
	if err := s.validateYear(year); err != nil {
		return nil, err
	}
	sub, err := s.ref.GetSubdivision(ctx, subdivisionID)
	if err != nil {
		return nil, err
	}
	if sub.Type != reference.SubdivisionProduction {
		return nil, apperror.NewValidation("transfers originate from Production subdivisions").
			WithDetail("subdivisionType", sub.Type)
	}

	rows, err := s.plans.Transfers.Query(ctx, plans.TransferFilter{
		Year:                year,
		SourceSubdivisionID: subdivisionID,
		MaterialID:          materialID,
	})
	if err != nil {
		return nil, err
	}
	res := &TransferDebug{
		SubdivisionID: subdivisionID,
		MaterialID:    materialID,
		Year:          year,
		Transfers:     rows,
		MonthlyTotals: make(map[string]float64),
	}
	for _, r := range rows {
		res.MonthlyTotals[period.Key(r.Date)] += r.Quantity
		res.Total += r.Quantity
	}
	return res, nil
}
