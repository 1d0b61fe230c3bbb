package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInputValidationFailed ErrorCode = "INPUT_VALIDATION_FAILED"
	ErrCodePromptAnalysisFailed  ErrorCode = "PROMPT_ANALYSIS_FAILED"
	ErrCodeInvalidLexicon        ErrorCode = "INVALID_LEXICON"

	ErrCodeTemplateNotFound         ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateValidationFailed ErrorCode = "TEMPLATE_VALIDATION_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeCatalogQueryFailed       ErrorCode = "CATALOG_QUERY_FAILED"
	ErrCodeCacheUnavailable         ErrorCode = "CACHE_UNAVAILABLE"

	ErrCodeSearchQueryFailed ErrorCode = "SEARCH_QUERY_FAILED"

	ErrCodeCompletionTimeout ErrorCode = "COMPLETION_TIMEOUT"
	ErrCodeCompletionFailed  ErrorCode = "COMPLETION_FAILED"

	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// messages holds the operator-facing message for each known code.
var messages = map[ErrorCode]string{
	ErrCodeInputValidationFailed:    "Job input failed validation",
	ErrCodePromptAnalysisFailed:     "Prompt could not be analyzed",
	ErrCodeInvalidLexicon:           "Keyword lexicon is invalid",
	ErrCodeTemplateNotFound:         "No section template found",
	ErrCodeTemplateValidationFailed: "Section template failed validation",
	ErrCodeDatabaseConnectionFailed: "Database connection error",
	ErrCodeCatalogQueryFailed:       "Section catalog query failed",
	ErrCodeCacheUnavailable:         "Cache backend unavailable",
	ErrCodeSearchQueryFailed:        "Elasticsearch query error",
	ErrCodeCompletionTimeout:        "Copy generation timed out",
	ErrCodeCompletionFailed:         "Copy generation failed",
	ErrCodeNotificationSendFailed:   "Notification delivery failed",
	ErrCodeBrokerUnavailable:        "Zeebe gateway unavailable",
	ErrCodeInternal:                 "Unexpected error",
}

// New builds a StandardError for a known code. Retryability follows GetRetryCount.
func New(code ErrorCode, details string) *StandardError {
	message, ok := messages[code]
	if !ok {
		message = string(code)
	}
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: GetRetryCount(code) > 0,
		Timestamp: time.Now().UTC(),
	}
}

func NewInputValidationError(details string) *StandardError {
	return New(ErrCodeInputValidationFailed, details)
}

func NewTemplateNotFoundError(sectionTypes []string) *StandardError {
	return New(ErrCodeTemplateNotFound, fmt.Sprintf("sectionTypes: %s", strings.Join(sectionTypes, ",")))
}

func NewNotificationSendFailedError(channel string, err error) *StandardError {
	return New(ErrCodeNotificationSendFailed, fmt.Sprintf("channel: %s, error: %s", channel, err.Error()))
}

// FromError normalizes err. A *StandardError anywhere in the chain is returned
// as is; otherwise the first wrapped sentinel whose text is a known code
// decides the code. Anything else becomes INTERNAL_ERROR.
func FromError(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if code, ok := knownCode(err); ok {
		return New(code, err.Error())
	}
	return New(ErrCodeInternal, err.Error())
}

// knownCode walks the error tree depth first, including errors.Join and
// multi-%w branches.
func knownCode(err error) (ErrorCode, bool) {
	if err == nil {
		return "", false
	}
	code := ErrorCode(err.Error())
	if _, known := BPMNErrorMapping[code]; known {
		return code, true
	}
	switch e := err.(type) {
	case interface{ Unwrap() error }:
		return knownCode(e.Unwrap())
	case interface{ Unwrap() []error }:
		for _, inner := range e.Unwrap() {
			if code, ok := knownCode(inner); ok {
				return code, true
			}
		}
	}
	return "", false
}

var BPMNErrorMapping = map[ErrorCode]string{
	ErrCodeInputValidationFailed:    "INPUT_VALIDATION_FAILED",
	ErrCodePromptAnalysisFailed:     "PROMPT_ANALYSIS_FAILED",
	ErrCodeInvalidLexicon:           "INVALID_LEXICON",
	ErrCodeTemplateNotFound:         "TEMPLATE_NOT_FOUND",
	ErrCodeTemplateValidationFailed: "TEMPLATE_VALIDATION_FAILED",
	ErrCodeDatabaseConnectionFailed: "DATABASE_CONNECTION_FAILED",
	ErrCodeCatalogQueryFailed:       "CATALOG_QUERY_FAILED",
	ErrCodeCacheUnavailable:         "CACHE_UNAVAILABLE",
	ErrCodeSearchQueryFailed:        "SEARCH_QUERY_FAILED",
	ErrCodeCompletionTimeout:        "COMPLETION_TIMEOUT",
	ErrCodeCompletionFailed:         "COMPLETION_FAILED",
	ErrCodeNotificationSendFailed:   "NOTIFICATION_SEND_FAILED",
	ErrCodeBrokerUnavailable:        "BROKER_UNAVAILABLE",
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeDatabaseConnectionFailed,
		ErrCodeCatalogQueryFailed,
		ErrCodeSearchQueryFailed,
		ErrCodeCompletionFailed,
		ErrCodeNotificationSendFailed,
		ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeCacheUnavailable:
		return 2

	case ErrCodeCompletionTimeout:
		return 1

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	bpmnCode, exists := BPMNErrorMapping[stdErr.Code]
	if !exists {
		bpmnCode = string(stdErr.Code)
	}

	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      bpmnCode,
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "TEMPLATE") || strings.Contains(codeStr, "CATALOG"):
		return "CATALOG"
	case strings.Contains(codeStr, "DATABASE") || strings.Contains(codeStr, "CACHE"):
		return "STORAGE"
	case strings.Contains(codeStr, "SEARCH"):
		return "SEARCH"
	case strings.Contains(codeStr, "COMPLETION"):
		return "AI"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "PROMPT") || strings.Contains(codeStr, "LEXICON"):
		return "RULES"
	case strings.Contains(codeStr, "VALIDATION"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
