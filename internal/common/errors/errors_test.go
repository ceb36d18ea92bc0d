package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errSentinel = stderrors.New("NOT_FOUND")

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", NewValidationFailedError([]string{"a"}), http.StatusBadRequest},
		{"invalid status", NewInvalidStatusError("consultancy", "approved", nil), http.StatusBadRequest},
		{"not found", NewApplicationNotFoundError(nil), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("lookup: %w", NewApplicationNotFoundError(nil)), http.StatusNotFound},
		{"source blocked", NewSourceBlockedError("partner", "consultancy"), http.StatusForbidden},
		{"unauthorized", NewUnauthorizedError("missing token"), http.StatusUnauthorized},
		{"insert failure", NewDatabaseInsertFailedError(stderrors.New("boom")), http.StatusInternalServerError},
		{"plain error", stderrors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestStandardError_UnwrapReachesCause(t *testing.T) {
	err := NewApplicationNotFoundError(fmt.Errorf("%w: id LN-1", errSentinel))

	assert.True(t, stderrors.Is(err, errSentinel))
	assert.True(t, HasCode(err, ErrCodeApplicationNotFound))
	assert.False(t, HasCode(err, ErrCodeInvalidStatus))
}

func TestNewValidationFailedError_CopiesViolations(t *testing.T) {
	violations := []string{"mobileNumber must be exactly 10 digits"}
	err := NewValidationFailedError(violations)
	violations[0] = "mutated"

	assert.Equal(t, []string{"mobileNumber must be exactly 10 digits"}, err.Violations)
	assert.False(t, err.Retryable)
	assert.Contains(t, err.Error(), "VALIDATION_FAILED")
}

func TestConvertToBPMNError(t *testing.T) {
	bpmn := ConvertToBPMNError(NewDatabaseInsertFailedError(stderrors.New("conn reset")))
	assert.Equal(t, "DATABASE_INSERT_FAILED", bpmn.Code)
	assert.Equal(t, 3, bpmn.Retries)
	assert.True(t, bpmn.Retryable)

	bpmn = ConvertToBPMNError(NewValidationFailedError([]string{"x"}))
	assert.Equal(t, "LEAD_VALIDATION_FAILED", bpmn.Code)
	assert.Equal(t, 0, bpmn.Retries)
	assert.Equal(t, []string{"x"}, bpmn.ToErrorVariables()["violations"])

	bpmn = ConvertToBPMNError(NewUnauthorizedError("x"))
	assert.Equal(t, "UNAUTHORIZED", bpmn.Code)
}

func TestNormalize(t *testing.T) {
	stdErr := Normalize(stderrors.New("plain"))
	require.NotNil(t, stdErr)
	assert.Equal(t, ErrCodeInternal, stdErr.Code)

	original := NewInvalidStatusError("loan", "quote-sent", nil)
	assert.Same(t, original, Normalize(fmt.Errorf("wrapped: %w", original)))
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeDatabaseInsertFailed))
	assert.Equal(t, "NOTIFICATION", GetErrorCategory(ErrCodeNotificationSendFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidStatus))
	assert.Equal(t, "LOOKUP", GetErrorCategory(ErrCodeApplicationNotFound))
	assert.Equal(t, "ACCESS", GetErrorCategory(ErrCodeSourceBlocked))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeSearchIndexFailed))
	assert.True(t, IsRetryableErrorCode(ErrCodeNotificationSendFailed))
	assert.False(t, IsRetryableErrorCode(ErrCodeValidationFailed))
}
