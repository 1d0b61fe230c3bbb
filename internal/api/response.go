package api

import (
	"net/http"

	apperrors "funnel-workers/internal/common/errors"

	"github.com/gin-gonic/gin"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError writes err as an error envelope. The status follows the
// error code; unknown errors are 500.
func RespondError(c *gin.Context, err error) {
	stdErr := apperrors.FromError(err)
	msg := stdErr.Message
	if stdErr.Details != "" {
		msg = msg + ": " + stdErr.Details
	}
	c.AbortWithStatusJSON(statusFor(stdErr.Code), ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    string(stdErr.Code),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func statusFor(code apperrors.ErrorCode) int {
	switch code {
	case apperrors.ErrCodeInputValidationFailed, apperrors.ErrCodeTemplateValidationFailed:
		return http.StatusBadRequest
	case apperrors.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case apperrors.ErrCodeDatabaseConnectionFailed,
		apperrors.ErrCodeCatalogQueryFailed,
		apperrors.ErrCodeSearchQueryFailed,
		apperrors.ErrCodeCacheUnavailable,
		apperrors.ErrCodeBrokerUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.ErrCodeCompletionTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
