package middleware

import (
	"strconv"
	"time"

	"github.com/campusmarket/campusmarket-backend/pkg/metrics"
	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request count and latency per route template.
// Unmatched paths are grouped under "unmatched" to keep label cardinality bounded.
func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		metrics.RequestInFlight.Inc()
		defer metrics.RequestInFlight.Dec()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveRequest(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), start)
	}
}
