package planning

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplyplan/internal/core/apperror"
	"supplyplan/internal/domain/reference"
)

func TestCalculateInventory_TradingEndToEnd(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.row(f.repos.Sales, shop, bread, 2024, 3, 300)
	f.regulation(shop, bread, 2024, 3, 15)

	res, err := f.svc.CalculateInventory(f.ctx, shop, bread, month(2024, 3).AddDate(0, 0, 9))
	require.NoError(t, err)

	assert.Equal(t, 150.0, res.CalculatedQuantity)
	assert.Equal(t, month(2024, 3), res.Date)
	require.NotNil(t, res.SalesPlan)
	assert.Equal(t, 300.0, *res.SalesPlan)
	assert.Equal(t, 15, res.StockNorm)
	assert.Equal(t, 30, res.DaysInMonth)
	assert.Equal(t, CalcTradingFinished, res.CalculationType)
	assert.Equal(t, "Shop", res.SubdivisionName)
	assert.Nil(t, res.InventoryPlan)
	assert.Empty(t, res.Message)
}

func TestCalculateInventory_FrozenMonthRejected(t *testing.T) {
	f := newFixture(t, "2023-01")
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)

	for _, ids := range [][2]int64{{shop, bread}, {999, 998}, {1, 1}} {
		_, err := f.svc.CalculateInventory(f.ctx, ids[0], ids[1], month(2023, 1))
		require.Error(t, err)
		assert.True(t, apperror.IsFrozenPeriod(err), "ids %v: %v", ids, err)
		assert.Equal(t, 422, apperror.GetHTTPStatus(err))
	}

	_, err := f.svc.CalculateInventory(f.ctx, shop, bread, month(2023, 2))
	assert.NoError(t, err)
}

func TestCalculateInventory_Validation(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	flour := f.material("Flour", reference.MaterialRaw)

	_, err := f.svc.CalculateInventory(f.ctx, 0, flour, month(2024, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))

	_, err = f.svc.CalculateInventory(f.ctx, shop, 404, month(2024, 1))
	assert.True(t, apperror.IsNotFound(err))

	_, err = f.svc.CalculateInventory(f.ctx, shop, flour, month(2024, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeUnsupportedMix))

	_, err = f.svc.CalculateInventory(f.ctx, shop, flour, month(1999, 1))
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCalculateInventoryAs_RequiresMatchingType(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.row(f.repos.Sales, shop, bread, 2024, 5, 60)
	f.regulation(shop, bread, 2024, 5, 10)

	res, err := f.svc.CalculateInventoryAs(f.ctx, shop, bread, month(2024, 5), CalcTradingFinished)
	require.NoError(t, err)
	assert.Equal(t, 20.0, res.CalculatedQuantity)

	_, err = f.svc.CalculateInventoryAs(f.ctx, shop, bread, month(2024, 5), CalcProductionFinished)
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}

func TestCalculateInventoryYear_Continuity(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.regulationsAll(shop, bread, 2024, 15)
	f.regulation(shop, bread, 2023, 12, 30)
	for m := 1; m <= 12; m++ {
		f.row(f.repos.Sales, shop, bread, 2024, m, float64(m*30))
	}
	f.row(f.repos.Sales, shop, bread, 2025, 1, 600)
	f.row(f.repos.Sales, shop, bread, 2023, 12, 90)

	res, err := f.svc.CalculateInventoryYear(f.ctx, shop, bread, 2024)
	require.NoError(t, err)
	require.Len(t, res.Months, 12)
	assert.Zero(t, res.SoftFailures)

	for i := 0; i < 11; i++ {
		assert.Equal(t, res.Months[i+1].CurrentMonthInventory, res.Months[i].NextMonthInventory, "month %d", i+1)
		assert.Equal(t, res.Months[i].CurrentMonthInventory, res.Months[i+1].PreviousInventory, "month %d", i+2)
	}
	for i, m := range res.Months {
		assert.Equal(t, i+1, m.Month)
		assert.Equal(t, float64((i+1)*30)*15/30, m.CalculatedQuantity)
	}

	// December looks into January of the following year, January back to December.
	assert.Equal(t, 300.0, res.Months[11].NextMonthInventory)
	assert.Equal(t, 90.0, res.Months[0].PreviousInventory)
}

func TestCalculateInventoryYear_MissingRegulationDegrades(t *testing.T) {
	f := newFixture(t)
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	for m := 1; m <= 12; m++ {
		if m != 6 {
			f.regulation(shop, bread, 2024, m, 15)
		}
		f.row(f.repos.Sales, shop, bread, 2024, m, 300)
	}

	res, err := f.svc.CalculateInventoryYear(f.ctx, shop, bread, 2024)
	require.NoError(t, err)

	june := res.Months[5]
	assert.Zero(t, june.CalculatedQuantity)
	assert.NotEmpty(t, june.Note)
	assert.Contains(t, june.Note, "2024-06")
	assert.Equal(t, 1, res.SoftFailures)

	for i, m := range res.Months {
		if i == 5 {
			continue
		}
		assert.Equal(t, 150.0, m.CalculatedQuantity, "month %d", i+1)
		assert.Empty(t, m.Note, "month %d", i+1)
	}
}

func TestCalculateInventoryYear_FrozenMonthKeepsSavedValue(t *testing.T) {
	f := newFixture(t, "2023-01")
	shop := f.subdivision("Shop", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.regulationsAll(shop, bread, 2023, 15)
	for m := 1; m <= 12; m++ {
		f.row(f.repos.Sales, shop, bread, 2023, m, 300)
	}
	f.row(f.repos.Inventory, shop, bread, 2023, 1, 777)

	res, err := f.svc.CalculateInventoryYear(f.ctx, shop, bread, 2023)
	require.NoError(t, err)

	jan := res.Months[0]
	assert.True(t, jan.IsFixedPlan)
	assert.Equal(t, 777.0, jan.CalculatedQuantity)
	assert.NotEmpty(t, jan.Note)
	assert.Equal(t, 777.0, res.Months[1].PreviousInventory)
	assert.Equal(t, 150.0, res.Months[1].CalculatedQuantity)
	assert.Len(t, res.Plans(), 11)
}

func TestCalculateInventoryYear_ProductionFinishedUsesPreviousMonthTransfers(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	shopA := f.subdivision("Shop A", reference.SubdivisionTrading)
	shopB := f.subdivision("Shop B", reference.SubdivisionTrading)
	bread := f.material("Bread", reference.MaterialFinished)
	f.regulationsAll(plant, bread, 2024, 10)
	f.transfer(plant, shopA, bread, 2024, 3, 120)
	f.transfer(plant, shopB, bread, 2024, 3, 60)

	res, err := f.svc.CalculateInventoryYear(f.ctx, plant, bread, 2024)
	require.NoError(t, err)

	april := res.Months[3]
	assert.Equal(t, 180.0, april.BaseQuantity)
	assert.Equal(t, 60.0, april.CalculatedQuantity)
	assert.Zero(t, res.Months[2].CalculatedQuantity)
	assert.NotEmpty(t, res.Months[2].Note)
}

func TestCalculateInventoryYear_RawPrefersSavedWriteOff(t *testing.T) {
	f := newFixture(t)
	plant := f.subdivision("Plant", reference.SubdivisionProduction)
	bread := f.material("Bread", reference.MaterialFinished)
	flour := f.material("Flour", reference.MaterialRaw)
	f.card(plant, bread, flour, "0.5")
	f.regulationsAll(plant, flour, 2024, 30)
	f.row(f.repos.Production, plant, bread, 2024, 1, 100)
	f.row(f.repos.Production, plant, bread, 2024, 2, 100)
	f.row(f.repos.WriteOff, plant, flour, 2024, 2, 80)

	res, err := f.svc.CalculateInventoryYear(f.ctx, plant, flour, 2024)
	require.NoError(t, err)

	assert.Equal(t, 50.0, res.Months[0].CalculatedQuantity)
	assert.Equal(t, 80.0, res.Months[1].CalculatedQuantity)
	assert.Zero(t, res.Months[2].CalculatedQuantity)
	assert.NotEmpty(t, res.Months[2].Note)
}
