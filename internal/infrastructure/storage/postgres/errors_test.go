package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"receiptflow/internal/core/apperror"
)

func TestTranslateError(t *testing.T) {
	wrapped := func(code string) error {
		return fmt.Errorf("update receipt: %w", &pgconn.PgError{Code: code, ConstraintName: "doc_goods_receipts_supplier_id_fkey"})
	}

	tests := []struct {
		name string
		err  error
		code string
	}{
		{"serialization failure", wrapped(codeSerializationFailure), apperror.CodeConcurrentModification},
		{"deadlock", wrapped(codeDeadlockDetected), apperror.CodeConcurrentModification},
		{"lock timeout", wrapped(codeLockNotAvailable), apperror.CodeConcurrentModification},
		{"foreign key", wrapped(codeForeignKeyViolation), apperror.CodeValidation},
		{"app error kept", apperror.NewInvalidState("no"), apperror.CodeInvalidState},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, apperror.HasCode(translateError(tt.err, "transaction", nil), tt.code))
		})
	}

	plain := errors.New("connection reset")
	assert.Same(t, plain, translateError(plain, "transaction", nil))
	assert.True(t, IsUniqueViolation(wrapped(codeUniqueViolation)))
}
