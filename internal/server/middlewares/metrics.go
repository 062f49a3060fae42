package middlewares

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/vzahanych/weather-cli/internal/metrics"
)

// MetricsMiddleware counts requests by matched route so unbounded paths
// do not blow up label cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.RecordHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
