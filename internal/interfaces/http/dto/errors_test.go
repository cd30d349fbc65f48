package dto

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetHTTPStatus(t *testing.T) {
	tests := []struct {
		code     string
		expected int
	}{
		{ErrCodeUnknown, http.StatusInternalServerError},
		{ErrCodeInternal, http.StatusInternalServerError},
		{ErrCodeValidation, http.StatusBadRequest},
		{ErrCodeValidationRequired, http.StatusBadRequest},
		{ErrCodeNotFound, http.StatusNotFound},
		{ErrCodeAlreadyExists, http.StatusConflict},
		{ErrCodeConcurrencyConflict, http.StatusConflict},
		{ErrCodeInvalidState, http.StatusUnprocessableEntity},
		{ErrCodeNoDiscrepancies, http.StatusUnprocessableEntity},
		{ErrCodeIntegrity, http.StatusUnprocessableEntity},
		{ErrCodeBadRequest, http.StatusBadRequest},
		{ErrCodeInvalidInput, http.StatusBadRequest},
		// Unknown code should return 500
		{"UNKNOWN_CODE", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.expected, GetHTTPStatus(tt.code))
		})
	}
}

func TestNormalizeErrorCode(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		// Domain codes should be normalized
		{"NOT_FOUND", ErrCodeNotFound},
		{"ALREADY_EXISTS", ErrCodeAlreadyExists},
		{"INVALID_INPUT", ErrCodeInvalidInput},
		{"INVALID_STATE", ErrCodeInvalidState},
		{"CONCURRENCY_CONFLICT", ErrCodeConcurrencyConflict},
		{"NO_DISCREPANCIES", ErrCodeNoDiscrepancies},
		{"INTEGRITY_ERROR", ErrCodeIntegrity},
		{"VALIDATION_ERROR", ErrCodeValidation},
		{"BAD_REQUEST", ErrCodeBadRequest},
		{"INTERNAL_ERROR", ErrCodeInternal},
		// Transport codes should pass through unchanged
		{ErrCodeNotFound, ErrCodeNotFound},
		{ErrCodeValidation, ErrCodeValidation},
		// Unknown codes should pass through unchanged
		{"CUSTOM_ERROR", "CUSTOM_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeErrorCode(tt.input))
		})
	}
}

func TestErrorCodeConstantsHaveStatus(t *testing.T) {
	allCodes := []string{
		ErrCodeUnknown,
		ErrCodeInternal,
		ErrCodeValidation,
		ErrCodeValidationRequired,
		ErrCodeValidationFormat,
		ErrCodeValidationRange,
		ErrCodeNotFound,
		ErrCodeAlreadyExists,
		ErrCodeConcurrencyConflict,
		ErrCodeInvalidState,
		ErrCodeNoDiscrepancies,
		ErrCodeIntegrity,
		ErrCodeBadRequest,
		ErrCodeInvalidInput,
		ErrCodeInvalidJSON,
	}

	for _, code := range allCodes {
		_, ok := ErrorCodeHTTPStatus[code]
		assert.True(t, ok, "error code %s missing from ErrorCodeHTTPStatus", code)
	}
}

func TestNewResponses(t *testing.T) {
	t.Run("success response", func(t *testing.T) {
		resp := NewSuccessResponse(map[string]string{"id": "1"})
		assert.True(t, resp.Success)
		assert.Nil(t, resp.Error)
		assert.NotNil(t, resp.Data)
	})

	t.Run("success response with meta rounds pages up", func(t *testing.T) {
		resp := NewSuccessResponseWithMeta([]int{1, 2, 3}, 21, 1, 10)
		assert.True(t, resp.Success)
		assert.NotNil(t, resp.Meta)
		assert.Equal(t, 3, resp.Meta.TotalPages)
	})

	t.Run("error response", func(t *testing.T) {
		resp := NewErrorResponse(ErrCodeNotFound, "purchase order not found")
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
		assert.Equal(t, "purchase order not found", resp.Error.Message)
		assert.NotZero(t, resp.Error.Timestamp)
	})

	t.Run("error response with request id", func(t *testing.T) {
		resp := NewErrorResponseWithRequestID(ErrCodeConcurrencyConflict, "order was modified", "req-123")
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeConcurrencyConflict, resp.Error.Code)
		assert.Equal(t, "req-123", resp.Error.RequestID)
	})

	t.Run("validation error response", func(t *testing.T) {
		details := []ValidationDetail{
			{Field: "supplier_id", Message: "This field is required"},
			{Field: "items", Message: "Must be at least 1"},
		}
		resp := NewValidationErrorResponse("Request validation failed", "req-456", details)
		assert.False(t, resp.Success)
		assert.Equal(t, ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, "req-456", resp.Error.RequestID)
		assert.Len(t, resp.Error.Details, 2)
		assert.Equal(t, "supplier_id", resp.Error.Details[0].Field)
	})
}
