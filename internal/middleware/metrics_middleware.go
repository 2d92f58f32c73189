package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GTDGit/storefront_api/internal/metrics"
)

// MetricsMiddleware records request counts and latency by route template,
// so token and id path segments do not explode label cardinality.
func MetricsMiddleware(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveHTTP(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
