package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/parkcare/care-api/pkg/metrics"
)

// Metrics records request counts and latency per route. Uses the route
// template, not the raw path, so UUIDs do not explode label cardinality.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		m.HTTPRequests.WithLabelValues(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
		).Inc()
		m.HTTPDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
