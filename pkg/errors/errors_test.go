package errors

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name   string
		err    *APIError
		code   ErrorCode
		status int
	}{
		{"unauthorized", Unauthorized("authentication required"), ErrCodeUnauthorized, http.StatusUnauthorized},
		{"not found", NotFound("lot"), ErrCodeNotFound, http.StatusNotFound},
		{"duplicate entry", DuplicateEntry("email already registered"), ErrCodeDuplicateEntry, http.StatusConflict},
		{"internal", Internal("internal server error"), ErrCodeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
			assert.Equal(t, tt.status, tt.err.StatusCode)
		})
	}
}

func TestNotFoundNamesResource(t *testing.T) {
	assert.Equal(t, "lot not found", NotFound("lot").Message)
	assert.Equal(t, "user not found", NotFound("user").Message)
}

func TestStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, New(ErrCodeQuoteMissing, "no quote").StatusCode)
	assert.Equal(t, http.StatusUnprocessableEntity, New(ErrCodeInsufficientQuantity, "not enough shares").StatusCode)
	assert.Equal(t, http.StatusBadRequest, New(ErrCodeInvalidProfile, "rate out of range").StatusCode)
	assert.Equal(t, http.StatusInternalServerError, New(ErrorCode("UNMAPPED"), "x").StatusCode)
}
