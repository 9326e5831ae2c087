package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/bidworks/collab-api/internal/service"
)

// Metrics returns middleware that captures request metrics using the provided
// service. Scrapes and health probes are not observed.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		switch c.Request.URL.Path {
		case "/metrics", "/health", "/ready":
			c.Next()
			return
		}
		start := time.Now()
		c.Next()
		duration := time.Since(start)
		status := c.Writer.Status()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, path, status, duration)
	}
}
