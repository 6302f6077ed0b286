package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// HTTPMetricsMiddleware creates a Gin middleware that records HTTP metrics
func HTTPMetricsMiddleware(m Recorder) gin.HandlerFunc {
	// Type assert to concrete Metrics for Prometheus access; anything else
	// (including NoopMetrics) gets a pass-through middleware
	metrics, ok := m.(*Metrics)
	if !ok {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	return func(c *gin.Context) {
		// Skip metrics endpoint to avoid self-recording
		if c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()

		metrics.HTTPRequestsInFlight.Inc()
		defer metrics.HTTPRequestsInFlight.Dec()

		c.Next()

		duration := time.Since(start).Seconds()
		method := c.Request.Method
		path := normalizePath(c.FullPath()) // route pattern, not actual path
		status := strconv.Itoa(c.Writer.Status())

		metrics.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
	}
}

// normalizePath converts the actual request path to route pattern
func normalizePath(fullPath string) string {
	if fullPath == "" {
		return "unknown"
	}
	return fullPath
}
