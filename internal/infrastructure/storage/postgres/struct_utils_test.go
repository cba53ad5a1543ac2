package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"supplyplan/internal/domain/plans"
)

type stamped struct {
	CreatedAt time.Time `db:"created_at"`
}

type mockRow struct {
	stamped
	ID       int64   `db:"id"`
	Quantity float64 `db:"quantity"`
	Skipped  string  `db:"-"`
	Plain    string
}

func TestExtractDBColumns(t *testing.T) {
	assert.Equal(t, []string{"created_at", "id", "quantity"}, ExtractDBColumns[mockRow]())
	assert.Equal(t,
		[]string{"id", "subdivision_id", "material_id", "date", "quantity", "is_calculated", "note", "created_at", "updated_at"},
		ExtractDBColumns[plans.Row]())
}

func TestWithoutColumns(t *testing.T) {
	cols := WithoutColumns(ExtractDBColumns[plans.Row](), "id", "created_at", "updated_at")
	assert.Equal(t, []string{"subdivision_id", "material_id", "date", "quantity", "is_calculated", "note"}, cols)
}

func TestStructToMapAndValues(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	row := mockRow{stamped: stamped{CreatedAt: now}, ID: 7, Quantity: 1.5, Skipped: "x"}

	m := StructToMap(&row)
	assert.Equal(t, map[string]any{"created_at": now, "id": int64(7), "quantity": 1.5}, m)

	assert.Equal(t, []any{1.5, nil, int64(7)}, StructValues(row, []string{"quantity", "missing", "id"}))
	assert.Nil(t, StructToMap(42))
}
