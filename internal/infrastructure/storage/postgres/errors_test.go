package postgres

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"supplyplan/internal/core/apperror"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code string
	}{
		{"not found", pgx.ErrNoRows, apperror.CodeNotFound},
		{"foreign key", &pgconn.PgError{Code: "23503", ConstraintName: "sales_plans_material_id_fkey"}, apperror.CodeConflict},
		{"unique", fmt.Errorf("wrapped: %w", &pgconn.PgError{Code: "23505"}), apperror.CodeDuplicate},
		{"check", &pgconn.PgError{Code: "23514"}, apperror.CodeValidation},
		{"statement timeout", &pgconn.PgError{Code: "57014"}, apperror.CodeTimeout},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err, "sales plan", int64(1))
			assert.True(t, apperror.HasCode(got, tt.code), "got %v", got)
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	assert.NoError(t, MapError(nil, "x", 0))
	assert.ErrorIs(t, MapError(context.DeadlineExceeded, "x", 0), context.DeadlineExceeded)

	appErr := apperror.NewValidation("bad")
	assert.Same(t, appErr, MapError(appErr, "x", 0))

	plain := errors.New("connection reset")
	got := MapError(plain, "sales plan", 0)
	assert.ErrorIs(t, got, plain)
	assert.False(t, apperror.IsAppError(got))
}
