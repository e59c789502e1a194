package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/platformbuilds/lineboard/internal/models"
	"github.com/platformbuilds/lineboard/internal/storage/sqlstore"
	"github.com/platformbuilds/lineboard/pkg/logger"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorHandler renders errors attached with c.Error as ErrorResponse.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, code := Classify(err)
		resp := ErrorResponse{Error: err.Error(), Code: code}

		var verr *models.ValidationError
		if errors.As(err, &verr) && verr.Field != "" {
			resp.Details = gin.H{"field": verr.Field}
		}
		if status >= 500 {
			// Internals stay in the log.
			resp.Error = http.StatusText(status)
		}

		logError(log, status, err, c)
		c.JSON(status, resp)
	}
}

// Classify maps an error to its HTTP status and machine-readable code.
func Classify(err error) (int, string) {
	var verr *models.ValidationError
	switch {
	case err == nil:
		return http.StatusOK, ""
	case errors.As(err, &verr):
		return http.StatusBadRequest, "INVALID_REQUEST"
	case errors.Is(err, sqlstore.ErrSourceUnavailable):
		return http.StatusServiceUnavailable, "SOURCE_UNAVAILABLE"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "TIMEOUT"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}

func logError(log logger.Logger, statusCode int, err error, c *gin.Context) {
	fields := []interface{}{
		"status", statusCode,
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"client_ip", c.ClientIP(),
		"error", err.Error(),
	}
	if requestID := c.GetString(requestIDKey); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}

	if statusCode >= 500 {
		log.Error("HTTP Error", fields...)
	} else {
		log.Warn("HTTP Error", fields...)
	}
}
