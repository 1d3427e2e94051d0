package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		wantCode int
		wantKind ErrorKind
	}{
		{"bad request", NewBadRequestError("bad input", nil), http.StatusBadRequest, KindValidation},
		{"not found", NewNotFoundError("missing", nil), http.StatusNotFound, KindNotFound},
		{"conflict", NewConflictError("taken"), http.StatusConflict, KindConflict},
		{"dispatch frozen", NewDispatchFrozenError("frozen"), http.StatusConflict, KindDispatchFrozen},
		{"constraint violation", NewConstraintViolationError("over capacity"), http.StatusUnprocessableEntity, KindConstraintViolation},
		{"unimplemented", NewUnimplementedError("not yet"), http.StatusNotImplemented, KindUnimplemented},
		{"internal", NewInternalServerError("boom"), http.StatusInternalServerError, KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCode, tt.err.Code)
			assert.Equal(t, tt.wantKind, tt.err.Kind)
		})
	}
}

// frozen and conflict share a 409 but stay distinguishable by kind
func TestFrozenAndConflictAreDistinct(t *testing.T) {
	frozen := NewDispatchFrozenError("frozen")
	conflict := NewConflictError("taken")
	assert.Equal(t, frozen.Code, conflict.Code)
	assert.NotEqual(t, frozen.Kind, conflict.Kind)
}

func TestAsAppError(t *testing.T) {
	inner := NewNotFoundError("missing", errors.New("no rows"))
	wrapped := fmt.Errorf("loading booking: %w", inner)

	appErr, ok := AsAppError(wrapped)
	require.True(t, ok)
	assert.Equal(t, KindNotFound, appErr.Kind)
	assert.Equal(t, "missing", appErr.Message)

	_, ok = AsAppError(errors.New("plain"))
	assert.False(t, ok)
}
