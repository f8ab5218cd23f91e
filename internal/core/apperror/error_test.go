package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFactories_HTTPStatus(t *testing.T) {
	tests := []struct {
		name   string
		err    *AppError
		code   string
		status int
	}{
		{"forbidden", NewForbidden("no"), CodeForbidden, http.StatusForbidden},
		{"invalid state", NewInvalidState("wrong status"), CodeInvalidState, http.StatusConflict},
		{"conflict", NewConcurrentModification("goods_receipt", "x"), CodeConcurrentModification, http.StatusConflict},
		{"dependency", NewDependency("stock register", errors.New("boom")), CodeDependency, http.StatusServiceUnavailable},
		{"validation", NewValidation("bad"), CodeValidation, http.StatusBadRequest},
		{"not found", NewNotFound("goods_receipt", "x"), CodeNotFound, http.StatusNotFound},
		{"unauthorized", NewUnauthorized("no token"), CodeUnauthorized, http.StatusUnauthorized},
		{"internal", NewInternal(errors.New("x")), CodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, GetHTTPStatus(tt.err))
		})
	}
}

func TestAsAppError_Wrapped(t *testing.T) {
	base := NewInvalidState("document is completed").WithDetail("status", "Completed")
	wrapped := fmt.Errorf("apply: %w", base)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, "Completed", appErr.Details["status"])
	assert.True(t, IsInvalidState(wrapped))
	assert.False(t, IsForbidden(wrapped))
}

func TestDependency_Unwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewDependency("database", cause)

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestGetHTTPStatus_PlainError(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(errors.New("plain")))
}
