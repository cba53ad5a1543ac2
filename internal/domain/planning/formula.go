package planning

import (
	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/reference"
)

// StockDivisor converts days of stock to a share of monthly flow.
// Every month counts as 30 days regardless of its calendar length.
const StockDivisor = 30

// CalculationType names the inventory formula branch.
type CalculationType string

const (
	CalcTradingFinished    CalculationType = "TradingFinishedProduct"
	CalcProductionFinished CalculationType = "ProductionFinishedProduct"
	CalcProductionRaw      CalculationType = "ProductionRawMaterial"
)

func (t CalculationType) describe() string {
	switch t {
	case CalcTradingFinished:
		return "a Trading subdivision and a FinishedProduct"
	case CalcProductionFinished:
		return "a Production subdivision and a FinishedProduct"
	case CalcProductionRaw:
		return "a Production subdivision and a RawMaterial"
	}
	return string(t)
}

// Formula describes how the inventory base of a month is obtained.
type Formula struct {
	Type        CalculationType `json:"calculationType"`
	BaseName    string          `json:"baseName"`
	Description string          `json:"formula"`
}

var formulas = map[reference.SubdivisionType]map[reference.MaterialType]Formula{
	reference.SubdivisionTrading: {
		reference.MaterialFinished: {
			Type:        CalcTradingFinished,
			BaseName:    "sales plan",
			Description: "inventory = sales plan × days of stock / 30",
		},
	},
	reference.SubdivisionProduction: {
		reference.MaterialFinished: {
			Type:        CalcProductionFinished,
			BaseName:    "previous month transfers",
			Description: "inventory = Σ transfers of previous month × days of stock / 30",
		},
		reference.MaterialRaw: {
			Type:        CalcProductionRaw,
			BaseName:    "raw material consumption",
			Description: "inventory = (write-off plan or Σ production × norm) × days of stock / 30",
		},
	},
}

// SelectFormula dispatches on subdivision and material type.
// Trading subdivisions do not stock raw materials.
func SelectFormula(subType reference.SubdivisionType, matType reference.MaterialType) (Formula, error) {
	if f, ok := formulas[subType][matType]; ok {
		return f, nil
	}
	return Formula{}, apperror.NewUnsupportedCombination(string(subType), string(matType))
}

// InventoryQuantity applies the days-of-stock norm to a monthly base.
func InventoryQuantity(base float64, daysCount int) float64 {
	return base * float64(daysCount) / StockDivisor
}
