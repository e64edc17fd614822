package database

import (
	"strings"

	"github.com/lib/pq"

	"github.com/quoteflow/quoteflow-backend/pkg/errors"
)

// MapPQError converts a PostgreSQL error to an AppError.
// Returns nil if err is not a *pq.Error or the code is not one we translate.
func MapPQError(err error) *errors.AppError {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return nil
	}

	switch pqErr.Code {
	case "23514": // check_violation
		return mapCheckConstraint(pqErr)
	case "23505": // unique_violation
		if strings.Contains(pqErr.Constraint, "pkey") {
			return errors.Conflict("a parsed report with this id already exists")
		}
		return errors.Conflict("a record with these values already exists")
	case "23502": // not_null_violation
		col := pqErr.Column
		if col == "" {
			col = "required field"
		}
		return errors.Validation(map[string]string{col: "must not be empty"})
	case "22P02": // invalid_text_representation, e.g. a malformed uuid
		return errors.BadRequest("malformed identifier")
	default:
		return nil
	}
}

func mapCheckConstraint(pqErr *pq.Error) *errors.AppError {
	switch {
	case strings.Contains(pqErr.Constraint, "report_type_valid"):
		return errors.Validation(map[string]string{"report_type": "must be one of: dash, mvr"})
	default:
		return errors.BadRequest("data validation failed: " + pqErr.Constraint)
	}
}
