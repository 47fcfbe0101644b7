package middleware

import (
	"strconv"
	"time"

	"myfridge-api/internal/infrastructure/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics 記錄每個路由的請求數與耗時
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 未匹配的路由統一歸類，避免標籤爆量
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}
