package data

import (
	"errors"

	"github.com/jackc/pgx/v5"

	apperrors "github.com/target/bhajan-library/internal/errors"
)

// Shared sentinel errors for data-layer repositories.
var (
	ErrBhajanNotFound    = apperrors.NotFound("Bhajan not found")
	ErrTagNotFound       = apperrors.NotFound("Tag not found")
	ErrReportNotFound    = apperrors.NotFound("Report not found")
	ErrProfileNotFound   = apperrors.NotFound("Profile not found")
	ErrAccountNotFound   = apperrors.NotFound("Account not found")
	ErrResetTokenInvalid = apperrors.Validation("Password reset link is invalid or has expired")
	ErrEmailTaken        = apperrors.Conflict("An account with this email already exists")
)

// mapErr maps pgx.ErrNoRows to notFound and classifies everything else with MapDBError.
func mapErr(err error, notFound error) error {
	if err == nil {
		return nil
	}
	if notFound != nil && errors.Is(err, pgx.ErrNoRows) {
		return notFound
	}
	return apperrors.MapDBError(err)
}
