package middleware

import (
	"errors"
	"fmt"

	"github.com/gin-gonic/gin"

	apperrors "dompet/internal/errors"
	"dompet/internal/logger"
)

func abortWithError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// ErrorHandler returns a Gin middleware that converts errors set on the Gin
// context, and panics raised by later handlers, into consistent JSON error
// responses. AppErrors are returned with their code and message; anything
// else is logged and returns a generic internal error.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				logger.Get().Errorw("panic recovered",
					"panic", fmt.Sprint(r),
					"path", c.Request.URL.Path,
					"method", c.Request.Method,
					"request_id", RequestID(c),
				)
				abortWithError(c, apperrors.ErrInternalServer.StatusCode, apperrors.ErrInternalServer.Code, apperrors.ErrInternalServer.Message)
			}
		}()

		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		// Process the last error (most relevant in a middleware chain)
		err := c.Errors.Last().Err

		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			if appErr.Internal != nil {
				logger.Get().Errorw("app error",
					"code", appErr.Code,
					"message", appErr.Message,
					"internal", appErr.Internal.Error(),
					"path", c.Request.URL.Path,
					"request_id", RequestID(c),
				)
			}
			abortWithError(c, appErr.StatusCode, appErr.Code, appErr.Message)
			return
		}

		logger.Get().Errorw("unexpected error",
			"error", err.Error(),
			"path", c.Request.URL.Path,
			"method", c.Request.Method,
			"request_id", RequestID(c),
		)
		abortWithError(c, apperrors.ErrInternalServer.StatusCode, apperrors.ErrInternalServer.Code, apperrors.ErrInternalServer.Message)
	}
}

// NotFound renders unknown routes with the standard error body.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		abortWithError(c, apperrors.ErrNotFound.StatusCode, apperrors.ErrNotFound.Code, "Route not found")
	}
}
