package middleware

import (
	"context"

	"github.com/Rmontilla83/saldobirras-pro/internal/infrastructure/telemetry"
	"github.com/gin-gonic/gin"
)

// Profiling attaches pyroscope labels (route, method, tenant) to the
// goroutine serving the request. Requests without a matched route are
// served unlabeled.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}

	return func(c *gin.Context) {
		labels := extractProfilingLabels(c)
		if len(labels) == 0 {
			c.Next()
			return
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}

func extractProfilingLabels(c *gin.Context) map[string]string {
	route := c.FullPath()
	if route == "" {
		return nil
	}
	labels := map[string]string{
		telemetry.ProfilingLabelRoute:  route,
		telemetry.ProfilingLabelMethod: c.Request.Method,
	}
	if tenantID := c.GetString(TenantIDKey); tenantID != "" {
		labels[telemetry.ProfilingLabelTenantID] = tenantID
	}
	return labels
}
