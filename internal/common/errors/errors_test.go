package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name            string
		err             *StandardError
		expectedCode    string
		expectedRetries int
	}{
		{
			name:            "retryable staffing load",
			err:             NewStaffingLoadFailedError("p-1", fmt.Errorf("connection reset")),
			expectedCode:    "STAFFING_LOAD_FAILED",
			expectedRetries: 3,
		},
		{
			name:            "business error is not retried",
			err:             NewProjectNotFoundError("p-404"),
			expectedCode:    "PROJECT_NOT_FOUND",
			expectedRetries: 0,
		},
		{
			name:            "timeout gets partial retries",
			err:             NewSearchTimeoutError("senior"),
			expectedCode:    "SEARCH_TIMEOUT",
			expectedRetries: 2,
		},
		{
			name: "retryable flag off wins over code",
			err: &StandardError{
				Code:      ErrCodeNotificationSendFailed,
				Message:   "no contact",
				Retryable: false,
			},
			expectedCode:    "NOTIFICATION_SEND_FAILED",
			expectedRetries: 0,
		},
		{
			name:            "unmapped code falls back to itself",
			err:             NewBusinessRuleError("rule", "details"),
			expectedCode:    "BUSINESS_RULE_VIOLATION",
			expectedRetries: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bpmnErr := ConvertToBPMNError(tt.err)

			assert.Equal(t, tt.expectedCode, bpmnErr.Code)
			assert.Equal(t, tt.expectedRetries, bpmnErr.Retries)

			vars := bpmnErr.ToErrorVariables()
			assert.Equal(t, tt.expectedCode, vars["errorCode"])
			assert.Equal(t, string(tt.err.Code), vars["originalErrorCode"])
		})
	}
}

func TestNormalize(t *testing.T) {
	wrapped := fmt.Errorf("loading: %w", NewProjectNotFoundError("p-1"))
	stdErr := Normalize(wrapped)
	assert.Equal(t, ErrCodeProjectNotFound, stdErr.Code)

	plain := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, plain.Code)
	assert.Equal(t, "boom", plain.Details)
	assert.False(t, plain.Retryable)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeInvalidStaffingInput:     "STAFFING",
		ErrCodeProjectNotFound:          "STAFFING",
		ErrCodeQueryTimeout:             "DATABASE",
		ErrCodeDatabaseConnectionFailed: "DATABASE",
		ErrCodeCandidateSearchFailed:    "SEARCH",
		ErrCodeIndexNotFound:            "SEARCH",
		ErrCodeNotificationSendFailed:   "NOTIFICATION",
		ErrCodeInvalidQueryType:         "DATABASE",
		ErrCodeAuthentication:           "OTHER",
	}

	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}

func TestStandardError_Error(t *testing.T) {
	err := NewInvalidStaffingInputError("requirements[0].count must be an integer")
	require.Error(t, err)
	assert.Equal(t, "StandardError[INVALID_STAFFING_INPUT]: Invalid staffing input", err.Error())
	assert.False(t, IsRetryableErrorCode(err.Code))
	assert.True(t, IsRetryableErrorCode(ErrCodeCandidateSearchFailed))
}
