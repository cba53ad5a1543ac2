package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgconn"

	"supplyplan/internal/core/apperror"
)

const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgQueryCanceled       = "57014"
)

// MapError converts driver errors into AppErrors. entity names the table row
// for messages. Context errors and AppErrors pass through unchanged.
func MapError(err error, entity string, id any) error {
	if err == nil {
		return nil
	}
	if apperror.IsAppError(err) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if pgxscan.NotFound(err) {
		return apperror.NewNotFound(entity, id)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgForeignKeyViolation:
			return apperror.NewConflict(fmt.Sprintf("%s references a missing subdivision or material", entity)).
				WithDetail("constraint", pgErr.ConstraintName).
				WithCause(err)
		case pgUniqueViolation:
			return apperror.NewDuplicate(entity, "key", pgErr.ConstraintName).WithCause(err)
		case pgCheckViolation:
			return apperror.NewValidation(fmt.Sprintf("%s violates %s", entity, pgErr.ConstraintName)).WithCause(err)
		case pgQueryCanceled:
			return apperror.NewTimeout(entity).WithCause(err)
		}
	}
	return fmt.Errorf("%s: %w", entity, err)
}
