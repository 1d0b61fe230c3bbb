package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	errTemplateNotFound  = stderrors.New("TEMPLATE_NOT_FOUND")
	errCompletionTimeout = stderrors.New("COMPLETION_TIMEOUT")
	errCompletionFailed  = stderrors.New("COMPLETION_FAILED")
)

func jobWithRetries(retries int32) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: "generate-funnel-copy", Retries: retries}}
}

// ==========================
// Normalization
// ==========================

func TestFromError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      ErrorCode
		retryable bool
	}{
		{"bare sentinel", errTemplateNotFound, ErrCodeTemplateNotFound, false},
		{"wrapped sentinel", fmt.Errorf("%w: gateway 503", errCompletionFailed), ErrCodeCompletionFailed, true},
		{"double wrapped", fmt.Errorf("execute: %w", fmt.Errorf("%w", errCompletionTimeout)), ErrCodeCompletionTimeout, true},
		{"unknown error", stderrors.New("boom"), ErrCodeInternal, false},
		{"standard error", NewInputValidationError("prompt is required"), ErrCodeInputValidationFailed, false},
		{"wrapped standard error", fmt.Errorf("parse: %w", New(ErrCodeCatalogQueryFailed, "x")), ErrCodeCatalogQueryFailed, true},
		{"joined sentinel", stderrors.Join(stderrors.New("CATALOG_QUERY_FAILED"), stderrors.New("connection refused")), ErrCodeCatalogQueryFailed, true},
		{"joined after unknown", stderrors.Join(stderrors.New("boom"), fmt.Errorf("lookup: %w", errTemplateNotFound)), ErrCodeTemplateNotFound, false},
		{"multiple %w", fmt.Errorf("%w / %w", errCompletionTimeout, stderrors.New("deadline")), ErrCodeCompletionTimeout, true},
		{"joined unknowns", stderrors.Join(stderrors.New("a"), stderrors.New("b")), ErrCodeInternal, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdErr := FromError(tt.err)
			require.NotNil(t, stdErr)
			assert.Equal(t, tt.code, stdErr.Code)
			assert.Equal(t, tt.retryable, stdErr.Retryable)
		})
	}

	assert.Nil(t, FromError(nil))
}

func TestFromError_KeepsFullDetails(t *testing.T) {
	stdErr := FromError(fmt.Errorf("%w: status 502", errCompletionFailed))
	assert.Equal(t, "COMPLETION_FAILED: status 502", stdErr.Details)
	assert.Equal(t, "Copy generation failed", stdErr.Message)
}

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code     ErrorCode
		expected int
	}{
		{ErrCodeCatalogQueryFailed, 3},
		{ErrCodeCompletionFailed, 3},
		{ErrCodeNotificationSendFailed, 3},
		{ErrCodeCacheUnavailable, 2},
		{ErrCodeCompletionTimeout, 1},
		{ErrCodeTemplateNotFound, 0},
		{ErrCodeInputValidationFailed, 0},
		{ErrorCode("SOMETHING_ELSE"), 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.expected, GetRetryCount(tt.code))
			assert.Equal(t, tt.expected > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestConvertToBPMNError(t *testing.T) {
	bpmnErr := ConvertToBPMNError(New(ErrCodeCompletionFailed, "status 500"))
	assert.Equal(t, "COMPLETION_FAILED", bpmnErr.Code)
	assert.Equal(t, 3, bpmnErr.Retries)
	assert.True(t, bpmnErr.Retryable)

	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "COMPLETION_FAILED", vars["errorCode"])
	assert.Equal(t, "status 500", vars["errorDetails"])
	assert.Equal(t, "COMPLETION_FAILED", vars["originalErrorCode"])
	assert.Contains(t, vars, "timestamp")
}

func TestConvertToBPMNError_NonRetryableOverride(t *testing.T) {
	stdErr := New(ErrCodeCompletionFailed, "x")
	stdErr.Retryable = false
	assert.Equal(t, 0, ConvertToBPMNError(stdErr).Retries)

	custom := &StandardError{Code: "CUSTOM_CODE", Message: "custom"}
	assert.Equal(t, "CUSTOM_CODE", ConvertToBPMNError(custom).Code)
}

func TestGetErrorCategory(t *testing.T) {
	tests := map[ErrorCode]string{
		ErrCodeTemplateNotFound:         "CATALOG",
		ErrCodeTemplateValidationFailed: "CATALOG",
		ErrCodeCatalogQueryFailed:       "CATALOG",
		ErrCodeCacheUnavailable:         "STORAGE",
		ErrCodeDatabaseConnectionFailed: "STORAGE",
		ErrCodeSearchQueryFailed:        "SEARCH",
		ErrCodeCompletionTimeout:        "AI",
		ErrCodeNotificationSendFailed:   "NOTIFICATION",
		ErrCodeBrokerUnavailable:        "BROKER",
		ErrCodePromptAnalysisFailed:     "RULES",
		ErrCodeInputValidationFailed:    "VALIDATION",
		ErrCodeInternal:                 "OTHER",
	}
	for code, expected := range tests {
		assert.Equal(t, expected, GetErrorCategory(code), string(code))
	}
}

// ==========================
// Retry decisions
// ==========================

func TestDecide(t *testing.T) {
	tests := []struct {
		name        string
		job         entities.Job
		err         error
		expectRetry bool
		retries     int32
		code        string
	}{
		{"retryable with budget", jobWithRetries(5), fmt.Errorf("%w: x", errCompletionFailed), true, 3, "COMPLETION_FAILED"},
		{"capped by remaining retries", jobWithRetries(2), errCompletionFailed, true, 1, "COMPLETION_FAILED"},
		{"last attempt throws", jobWithRetries(1), errCompletionFailed, false, 0, "COMPLETION_FAILED"},
		{"business error throws", jobWithRetries(3), errTemplateNotFound, false, 0, "TEMPLATE_NOT_FOUND"},
		{"timeout retried once", jobWithRetries(3), errCompletionTimeout, true, 1, "COMPLETION_TIMEOUT"},
		{"unknown error throws", jobWithRetries(3), stderrors.New("boom"), false, 0, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.job, tt.err)
			assert.Equal(t, tt.expectRetry, d.Retry)
			assert.Equal(t, tt.retries, d.Retries)
			assert.Equal(t, tt.code, d.Error.Code)
		})
	}
}
