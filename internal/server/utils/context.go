package utils

import (
	"context"

	"github.com/gin-gonic/gin"
)

const (
	SpanContextKey = "span_context"
	RequestIDKey   = "request_id"
)

// GetContextFromGinContext returns the traced context stored by the telemetry
// middleware, or the request context when tracing did not run.
func GetContextFromGinContext(c *gin.Context) context.Context {
	if spanCtx, exists := c.Get(SpanContextKey); exists {
		if ctx, ok := spanCtx.(context.Context); ok {
			return ctx
		}
	}
	return c.Request.Context()
}

func GetRequestIDFromGinContext(c *gin.Context) string {
	return c.GetString(RequestIDKey)
}
