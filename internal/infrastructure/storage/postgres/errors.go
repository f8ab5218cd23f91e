package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"receiptflow/internal/core/apperror"
)

// PostgreSQL error codes the driver reacts to.
const (
	codeUniqueViolation      = "23505"
	codeForeignKeyViolation  = "23503"
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeLockNotAvailable     = "55P03"
)

func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// IsRetryable reports whether err is a serialization failure or deadlock.
func IsRetryable(err error) bool {
	switch pgErrorCode(err) {
	case codeSerializationFailure, codeDeadlockDetected, codeLockNotAvailable:
		return true
	}
	return false
}

// IsUniqueViolation reports a unique constraint violation.
func IsUniqueViolation(err error) bool {
	return pgErrorCode(err) == codeUniqueViolation
}

// translateError turns lock conflicts into CONCURRENT_MODIFICATION and
// dangling references into VALIDATION_ERROR. Anything else is returned as is
// and reported by the engine as a storage failure.
func translateError(err error, entity string, entityID any) error {
	if err == nil || apperror.IsAppError(err) {
		return err
	}
	switch {
	case IsRetryable(err):
		return apperror.NewConcurrentModification(entity, entityID).WithCause(err)
	case pgErrorCode(err) == codeForeignKeyViolation:
		var pgErr *pgconn.PgError
		errors.As(err, &pgErr)
		return apperror.NewValidation("referenced record does not exist").
			WithDetail("constraint", pgErr.ConstraintName).
			WithCause(err)
	}
	return err
}
