package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "lead-intake/internal/common/errors"
	"lead-intake/internal/common/logger"
	"lead-intake/internal/schema"
	"lead-intake/internal/workflow"
)

const msgNotFound = "application not found"

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   string   `json:"error,omitempty"`
	Errors  []string `json:"errors,omitempty"`
}

// ErrorHandler renders the last error a handler attached with c.Error.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	log = log.WithFields(map[string]interface{}{"component": "http"})
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		stdErr := standardize(c.Errors.Last().Err)
		status := apperrors.HTTPStatus(stdErr)
		resp := ErrorResponse{Success: false}

		switch {
		case stdErr.Code == apperrors.ErrCodeValidationFailed:
			resp.Errors = stdErr.Violations
		case stdErr.Code == apperrors.ErrCodeApplicationNotFound:
			resp.Error = msgNotFound
		case status >= http.StatusInternalServerError:
			log.Error("request error", map[string]interface{}{
				"path":      c.Request.URL.Path,
				"errorCode": string(stdErr.Code),
				"error":     stdErr.Error(),
				"requestId": c.GetString(ctxKeyRequestID),
			})
			resp.Error = "internal error"
		default:
			resp.Error = stdErr.Message
			if stdErr.Details != "" {
				resp.Error = stdErr.Details
			}
		}

		c.JSON(status, resp)
	}
}

// standardize maps domain sentinels onto the shared error taxonomy.
func standardize(err error) *apperrors.StandardError {
	if stdErr, ok := apperrors.AsStandard(err); ok {
		return stdErr
	}
	switch {
	case errors.Is(err, workflow.ErrNotFound):
		return apperrors.NewApplicationNotFoundError(err)
	case errors.Is(err, workflow.ErrInvalidStatus):
		return apperrors.NewInvalidRequestError(err.Error(), err)
	case errors.Is(err, schema.ErrUnknownVariant):
		return apperrors.NewUnknownVariantError(err.Error(), err)
	default:
		return apperrors.NewInternalError(err)
	}
}
