package middleware

import (
	"errors"
	"log/slog"

	"github.com/gin-gonic/gin"

	"taskmaster/internal/apperr"
)

// ErrorHandler renders the last error a handler attached with c.Error as
// {"error": message}, using the status apperr maps it to. Validation
// errors also carry their per-field messages.
func ErrorHandler(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status := apperr.HTTPStatus(err)
		if status >= 500 {
			logger.ErrorContext(c.Request.Context(), "request failed",
				"method", c.Request.Method, "path", c.FullPath(), "status", status, "error", err)
		}

		body := gin.H{"error": apperr.PublicMessage(err)}
		var vErr *apperr.ValidationError
		if errors.As(err, &vErr) {
			body["fields"] = vErr.Fields
		}
		c.JSON(status, body)
	}
}
