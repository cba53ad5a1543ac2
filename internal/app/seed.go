package app

import (
	"context"
	"fmt"
	"time"

	"supplyplan/internal/core/period"
	"supplyplan/internal/core/types"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/domain/reference"
	"supplyplan/pkg/logger"
)

// SeedResult counts what SeedDemo wrote.
type SeedResult struct {
	Subdivisions int
	Materials    int
	Regulations  int
	Cards        int
	Sources      int
	SalesPlans   int
	Skipped      bool
}

type demoNorm struct {
	sub, mat string
	days     int
}

type demoCard struct {
	product, raw string
	ratio        string
}

var (
	demoSubdivisions = []reference.Subdivision{
		{Name: "Plant", Type: reference.SubdivisionProduction},
		{Name: "Shop North", Type: reference.SubdivisionTrading},
		{Name: "Shop South", Type: reference.SubdivisionTrading},
	}
	demoMaterials = []reference.Material{
		{Name: "Bread", Type: reference.MaterialFinished},
		{Name: "Buns", Type: reference.MaterialFinished},
		{Name: "Flour", Type: reference.MaterialRaw},
		{Name: "Yeast", Type: reference.MaterialRaw},
	}
	demoNorms = []demoNorm{
		{"Shop North", "Bread", 10}, {"Shop North", "Buns", 10},
		{"Shop South", "Bread", 10}, {"Shop South", "Buns", 10},
		{"Plant", "Bread", 5}, {"Plant", "Buns", 5},
		{"Plant", "Flour", 15}, {"Plant", "Yeast", 15},
	}
	demoCards = []demoCard{
		{"Bread", "Flour", "0.35"},
		{"Bread", "Yeast", "0.01"},
		{"Buns", "Flour", "0.25"},
		{"Buns", "Yeast", "0.02"},
	}
	// Monthly sales per shop and product.
	demoSales = map[string]map[string]float64{
		"Shop North": {"Bread": 300, "Buns": 120},
		"Shop South": {"Bread": 200, "Buns": 90},
	}
)

// SeedDemo loads a small bakery network for year: one plant supplying two
// shops. It does nothing when subdivisions already exist.
func SeedDemo(ctx context.Context, a *App, year int) (*SeedResult, error) {
	log := logger.FromContext(ctx).With("year", year)

	existing, err := a.Reference.ListSubdivisions(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("list subdivisions: %w", err)
	}
	if len(existing) > 0 {
		log.Infow("reference data present, seed skipped", "subdivisions", len(existing))
		return &SeedResult{Skipped: true}, nil
	}

	res := &SeedResult{}
	subs := make(map[string]int64, len(demoSubdivisions))
	for _, s := range demoSubdivisions {
		if err := a.Writer.CreateSubdivision(ctx, &s); err != nil {
			return nil, fmt.Errorf("create subdivision %s: %w", s.Name, err)
		}
		subs[s.Name] = s.ID
		res.Subdivisions++
	}
	mats := make(map[string]int64, len(demoMaterials))
	for _, m := range demoMaterials {
		if err := a.Writer.CreateMaterial(ctx, &m); err != nil {
			return nil, fmt.Errorf("create material %s: %w", m.Name, err)
		}
		mats[m.Name] = m.ID
		res.Materials++
	}

	months := make([]time.Time, 0, 13)
	for m := time.January; m <= time.December; m++ {
		months = append(months, period.Month(year, m))
	}
	months = append(months, period.Month(year+1, time.January))

	for _, n := range demoNorms {
		for _, date := range months {
			r := &reference.Regulation{
				SubdivisionID: subs[n.sub],
				MaterialID:    mats[n.mat],
				Date:          date,
				DaysCount:     n.days,
			}
			if err := r.Validate(ctx); err != nil {
				return nil, err
			}
			if err := a.Writer.UpsertRegulation(ctx, r); err != nil {
				return nil, fmt.Errorf("regulation %s/%s %s: %w", n.sub, n.mat, period.Key(date), err)
			}
			res.Regulations++
		}
	}

	plant := subs["Plant"]
	for _, c := range demoCards {
		card := &reference.TechnologicalCard{
			SubdivisionID:      plant,
			FinishedProductID:  mats[c.product],
			RawMaterialID:      mats[c.raw],
			RawMaterialPerUnit: types.MustRatio(c.ratio),
		}
		if err := card.Validate(ctx); err != nil {
			return nil, err
		}
		if err := a.Writer.CreateTechnologicalCard(ctx, card); err != nil {
			return nil, fmt.Errorf("card %s/%s: %w", c.product, c.raw, err)
		}
		res.Cards++
	}

	for shop, products := range demoSales {
		for product, qty := range products {
			for m := 1; m <= 12; m++ {
				src := &reference.SupplySource{
					DestinationSubdivisionID: subs[shop],
					MaterialID:               mats[product],
					Year:                     year,
					Month:                    m,
					SourceSubdivisionID:      &plant,
				}
				if err := a.Writer.UpsertSupplySource(ctx, src); err != nil {
					return nil, fmt.Errorf("supply source %s/%s: %w", shop, product, err)
				}
				res.Sources++
			}
			for _, date := range months {
				row := &plans.Row{
					SubdivisionID: subs[shop],
					MaterialID:    mats[product],
					Date:          date,
					Quantity:      qty,
					Note:          "demo",
				}
				if err := a.Plans.Save(ctx, plans.KindSales, row); err != nil {
					return nil, fmt.Errorf("sales plan %s/%s %s: %w", shop, product, period.Key(date), err)
				}
				res.SalesPlans++
			}
		}
	}

	log.Infow("demo data seeded",
		"subdivisions", res.Subdivisions,
		"materials", res.Materials,
		"regulations", res.Regulations,
		"cards", res.Cards,
		"sources", res.Sources,
		"sales_plans", res.SalesPlans,
	)
	return res, nil
}
