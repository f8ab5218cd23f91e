// Package middleware provides HTTP middleware components.
package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"

	"receiptflow/internal/core/apperror"
	"receiptflow/internal/infrastructure/http/v1/dto"
	"receiptflow/pkg/logger"
)

// retryAfterSeconds is advertised when a dependency is unavailable.
const retryAfterSeconds = "5"

// ErrorHandler renders the last error recorded on the context.
// It is the only place where error codes become HTTP statuses.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}

		appErr, ok := apperror.AsAppError(c.Errors.Last().Err)
		if !ok {
			appErr = apperror.NewInternal(c.Errors.Last().Err)
		}
		writeError(c, appErr)
	}
}

// Recovery turns a panic into an INTERNAL_ERROR response.
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			logger.Error(c.Request.Context(), "panic recovered",
				"error", rec,
				"path", c.Request.URL.Path,
				"stack", string(debug.Stack()),
			)
			if !c.Writer.Written() {
				writeError(c, apperror.NewInternal(fmt.Errorf("panic: %v", rec)))
			}
			c.Abort()
		}()
		c.Next()
	}
}

func writeError(c *gin.Context, appErr *apperror.AppError) {
	ctx := c.Request.Context()
	resp := dto.ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}

	switch {
	case appErr.HTTPStatus == http.StatusServiceUnavailable:
		logger.Warn(ctx, "dependency unavailable", "code", appErr.Code, "details", appErr.Details, "cause", appErr.Err)
		c.Header("Retry-After", retryAfterSeconds)
	case appErr.HTTPStatus >= http.StatusInternalServerError:
		logger.Error(ctx, "request failed", "code", appErr.Code, "cause", appErr.Err)
		// Internal causes stay in the log.
		resp.Details = map[string]any{"request_id": c.GetString("request_id")}
	}

	c.AbortWithStatusJSON(appErr.HTTPStatus, resp)
}
