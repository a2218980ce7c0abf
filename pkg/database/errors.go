package database

import (
	"database/sql"
	stderrors "errors"
	"strings"

	"github.com/lib/pq"

	"github.com/cbsistema/cbsistema-backend/pkg/errors"
)

// MapError converts a driver error from op into an AppError. Constraint
// violations become client errors; anything else is a storage failure.
// AppErrors pass through untouched.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	if mapped := MapPQError(err); mapped != nil {
		return mapped
	}
	return errors.Storage(op, err)
}

// IsNoRows reports whether err means the query matched nothing.
func IsNoRows(err error) bool {
	return stderrors.Is(err, sql.ErrNoRows)
}

// MapPQError converts a PostgreSQL error to an AppError with meaningful messages.
// Returns nil if the error is not a pq.Error.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !stderrors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	// Check constraint violation (23514)
	case "23514":
		return mapCheckConstraint(pqErr)

	// Unique constraint violation (23505)
	case "23505":
		return errors.Conflict(formatConstraintMessage(pqErr))

	// Foreign key violation (23503)
	case "23503":
		if strings.HasPrefix(pqErr.Message, "update or delete") {
			return errors.BadRequest("record is still referenced by other records")
		}
		return errors.BadRequest("referenced record does not exist")

	// Not null violation (23502)
	case "23502":
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{
			col: "must not be empty",
		})

	default:
		return nil
	}
}

// mapCheckConstraint maps specific CHECK constraint names to user-friendly messages.
func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "quantity_range"):
		return errors.Validation(map[string]string{
			"quantity": "must be between 0 and 9999",
		})

	case strings.Contains(constraint, "cost_range"):
		return errors.Validation(map[string]string{
			"cost": "must be between 0 and 999999.99",
		})

	case strings.Contains(constraint, "quantity_positive"):
		return errors.Validation(map[string]string{
			"quantity": "must be greater than 0",
		})

	case strings.Contains(constraint, "status_valid"):
		return errors.Validation(map[string]string{
			"status": "must be one of: pending, approved, rejected, in_transit, received",
		})

	case strings.Contains(constraint, "role_valid"):
		return errors.Validation(map[string]string{
			"role": "must be one of: admin, gerente, almacen, caja",
		})

	case strings.Contains(constraint, "type_valid"):
		return errors.Validation(map[string]string{
			"type": "must be one of: entrada, salida, ajuste",
		})

	default:
		return errors.BadRequest("data validation failed: " + constraint)
	}
}

// formatConstraintMessage creates a user-friendly message for unique constraint violations.
func formatConstraintMessage(pqErr *pq.Error) string {
	constraint := pqErr.Constraint

	switch {
	case strings.Contains(constraint, "usuarios_name"):
		return "a user with this name already exists"
	case strings.Contains(constraint, "categorias_name"):
		return "a category with this name already exists"
	default:
		return "a record with these values already exists"
	}
}
