package planning

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
)

// Phase names of the yearly recalculation, in execution order.
const (
	PhaseTransfers         = "transfers"
	PhaseFinishedInventory = "inventory-finished"
	PhaseProduction        = "production"
	PhaseWriteOffs         = "writeoffs"
	PhaseRawInventory      = "inventory-raw"
	PhasePurchases         = "purchases"
)

// KeyFailure records a key that could not be recalculated.
type KeyFailure struct {
	SubdivisionID int64  `json:"subdivisionId"`
	MaterialID    int64  `json:"materialId"`
	Error         string `json:"error"`
}

// PhaseReport summarizes one phase.
type PhaseReport struct {
	Name     string        `json:"name"`
	Keys     int           `json:"keys"`
	Saved    int           `json:"saved"`
	Failures []KeyFailure  `json:"failures,omitempty"`
	Duration time.Duration `json:"duration"`
}

// BatchReport summarizes a yearly recalculation.
type BatchReport struct {
	Year   int           `json:"year"`
	Phases []PhaseReport `json:"phases"`
}

// Failed reports whether any key failed.
func (r *BatchReport) Failed() bool {
	for _, p := range r.Phases {
		if len(p.Failures) > 0 {
			return true
		}
	}
	return false
}

type batchKey struct {
	subdivisionID int64
	materialID    int64
}

// BatchRecalculator rebuilds every derived plan of a year. Phases run in
// dependency order so each one reads what the previous one saved; keys
// inside a phase run in parallel and each key saves in its own transaction.
type BatchRecalculator struct {
	svc         *Service
	concurrency int
}

// NewBatchRecalculator creates a recalculator running up to concurrency keys at once.
func NewBatchRecalculator(svc *Service, concurrency int) *BatchRecalculator {
	if concurrency < 1 {
		concurrency = 1
	}
	return &BatchRecalculator{svc: svc, concurrency: concurrency}
}

// RecalculateYear runs transfers, finished inventory, production,
// write-offs, raw inventory and purchases for year. A failing key is
// reported and skipped; a cancelled context stops the run.
func (b *BatchRecalculator) RecalculateYear(ctx context.Context, year int, comment string) (*BatchReport, error) {
	if err := b.svc.validateYear(year); err != nil {
		return nil, err
	}
	log := b.svc.log.WithContext(ctx).With("year", year)

	finished, raw, err := b.keys(ctx, year)
	if err != nil {
		return nil, err
	}

	report := &BatchReport{Year: year}

	started := time.Now()
	transfers, err := b.svc.CalculateTransfers(ctx, year, true)
	if err != nil {
		return report, fmt.Errorf("phase %s: %w", PhaseTransfers, err)
	}
	report.Phases = append(report.Phases, PhaseReport{
		Name:     PhaseTransfers,
		Keys:     transfers.PlansCount,
		Saved:    transfers.PlansCount,
		Duration: time.Since(started),
	})

	phases := []struct {
		name string
		keys []batchKey
		run  func(ctx context.Context, k batchKey) (int, error)
	}{
		{PhaseFinishedInventory, finished.all, func(ctx context.Context, k batchKey) (int, error) {
			return b.inventory(ctx, k, year, comment)
		}},
		{PhaseProduction, finished.production, func(ctx context.Context, k batchKey) (int, error) {
			months, err := b.svc.productionYear(ctx, k.subdivisionID, k.materialID, year)
			if err != nil {
				return 0, err
			}
			return b.save(ctx, plans.KindProduction, k, ProductionPlans(months), comment)
		}},
		{PhaseWriteOffs, raw, func(ctx context.Context, k batchKey) (int, error) {
			y, err := b.svc.CalculateWriteOffYear(ctx, k.subdivisionID, k.materialID, year)
			if err != nil {
				return 0, err
			}
			return b.save(ctx, plans.KindWriteOff, k, y.Plans(), comment)
		}},
		{PhaseRawInventory, raw, func(ctx context.Context, k batchKey) (int, error) {
			return b.inventory(ctx, k, year, comment)
		}},
		{PhasePurchases, raw, func(ctx context.Context, k batchKey) (int, error) {
			months, err := b.svc.CalculatePurchaseYear(ctx, k.subdivisionID, k.materialID, year)
			if err != nil {
				return 0, err
			}
			return b.save(ctx, plans.KindPurchase, k, PurchasePlans(months), comment)
		}},
	}

	for _, p := range phases {
		pr, err := b.runPhase(ctx, p.name, p.keys, p.run)
		report.Phases = append(report.Phases, pr)
		if err != nil {
			return report, fmt.Errorf("phase %s: %w", p.name, err)
		}
		log.Infow("recalculation phase finished",
			"phase", pr.Name,
			"keys", pr.Keys,
			"saved", pr.Saved,
			"failures", len(pr.Failures),
			"duration", pr.Duration,
		)
	}
	return report, nil
}

func (b *BatchRecalculator) inventory(ctx context.Context, k batchKey, year int, comment string) (int, error) {
	y, err := b.svc.CalculateInventoryYear(ctx, k.subdivisionID, k.materialID, year)
	if err != nil {
		return 0, err
	}
	return b.save(ctx, plans.KindInventory, k, y.Plans(), comment)
}

func (b *BatchRecalculator) save(ctx context.Context, kind plans.Kind, k batchKey, calculated []CalculatedPlan, comment string) (int, error) {
	if len(calculated) == 0 {
		return 0, nil
	}
	res, err := b.svc.SaveCalculatedPlans(ctx, SaveRequest{
		Kind:              kind,
		SubdivisionID:     k.subdivisionID,
		MaterialID:        k.materialID,
		Plans:             calculated,
		OverwriteExisting: true,
		Comment:           comment,
	})
	if err != nil {
		return 0, err
	}
	return len(res.Saved), nil
}

func (b *BatchRecalculator) runPhase(
	ctx context.Context,
	name string,
	keys []batchKey,
	run func(ctx context.Context, k batchKey) (int, error),
) (PhaseReport, error) {
	started := time.Now()
	report := PhaseReport{Name: name, Keys: len(keys)}
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.concurrency)
	for _, k := range keys {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			saved, err := run(gctx, k)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				report.Failures = append(report.Failures, KeyFailure{
					SubdivisionID: k.subdivisionID,
					MaterialID:    k.materialID,
					Error:         err.Error(),
				})
				b.svc.log.WithContext(gctx).Warnw("key recalculation failed",
					"phase", name,
					"subdivision_id", k.subdivisionID,
					"material_id", k.materialID,
					"error", err,
				)
				return nil
			}
			report.Saved += saved
			return nil
		})
	}
	err := g.Wait()
	report.Duration = time.Since(started)
	return report, err
}

type finishedKeys struct {
	all        []batchKey
	production []batchKey
}

// keys derives the recalculated keys from the year's regulations.
// Trading subdivisions never stock raw materials, so those keys are ignored.
func (b *BatchRecalculator) keys(ctx context.Context, year int) (finishedKeys, []batchKey, error) {
	regs, err := b.svc.ref.ListRegulations(ctx, reference.RegulationFilter{Year: year})
	if err != nil {
		return finishedKeys{}, nil, fmt.Errorf("list regulations: %w", err)
	}
	subs, err := b.svc.subdivisionNames(ctx)
	if err != nil {
		return finishedKeys{}, nil, err
	}
	mats, err := b.svc.ref.ListMaterials(ctx, nil)
	if err != nil {
		return finishedKeys{}, nil, fmt.Errorf("list materials: %w", err)
	}
	matTypes := make(map[int64]reference.MaterialType, len(mats))
	for _, m := range mats {
		matTypes[m.ID] = m.Type
	}

	var finished finishedKeys
	var raw []batchKey
	seen := make(map[batchKey]bool)
	for _, r := range regs {
		k := batchKey{subdivisionID: r.SubdivisionID, materialID: r.MaterialID}
		if seen[k] {
			continue
		}
		seen[k] = true

		sub, ok := subs[r.SubdivisionID]
		if !ok {
			continue
		}
		switch matTypes[r.MaterialID] {
		case reference.MaterialFinished:
			finished.all = append(finished.all, k)
			if sub.Type == reference.SubdivisionProduction {
				finished.production = append(finished.production, k)
			}
		case reference.MaterialRaw:
			if sub.Type == reference.SubdivisionProduction {
				raw = append(raw, k)
			}
		}
	}
	return finished, raw, nil
}
