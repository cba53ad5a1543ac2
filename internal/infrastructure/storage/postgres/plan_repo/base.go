// Package plan_repo provides PostgreSQL implementations of the plan repositories.
package plan_repo

import (
	"time"

	"github.com/Masterminds/squirrel"

	"supplyplan/internal/core/period"
	"supplyplan/internal/domain/plans"
	"supplyplan/internal/infrastructure/storage/postgres"
)

// Tables maps each Row kind to its table.
var Tables = map[plans.Kind]string{
	plans.KindSales:      "sales_plans",
	plans.KindInventory:  "inventory_plans",
	plans.KindProduction: "production_plans",
	plans.KindWriteOff:   "writeoff_plans",
	plans.KindPurchase:   "purchase_plans",
}

// NewRepositories wires all plan tables to txManager.
func NewRepositories(txManager *postgres.TxManager) *plans.Repositories {
	return &plans.Repositories{
		Sales:      NewPlanRepo(txManager, plans.KindSales),
		Inventory:  NewPlanRepo(txManager, plans.KindInventory),
		Production: NewPlanRepo(txManager, plans.KindProduction),
		WriteOff:   NewPlanRepo(txManager, plans.KindWriteOff),
		Purchase:   NewPlanRepo(txManager, plans.KindPurchase),
		Transfers:  NewTransferRepo(txManager),
	}
}

func builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// periodWhere restricts the date column to a calendar year, or to
// [from, to) when year is zero.
func periodWhere(year int, from, to time.Time) squirrel.Sqlizer {
	if year != 0 {
		start, end := period.YearBounds(year)
		return squirrel.And{squirrel.GtOrEq{"date": start}, squirrel.Lt{"date": end}}
	}
	cond := squirrel.And{}
	if !from.IsZero() {
		cond = append(cond, squirrel.GtOrEq{"date": from})
	}
	if !to.IsZero() {
		cond = append(cond, squirrel.Lt{"date": to})
	}
	return cond
}

var noTime time.Time
