package middleware

import (
	"net/http"
	"strconv"
	"time"

	"Rewards/dao/cache"
	"Rewards/pkg/log"
	"Rewards/pkg/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ScanRateLimit 公开扫码接口按客户端 IP 固定窗口限流。
// 超限请求不会进入核销逻辑，也不记录扫码日志；Redis 故障时放行。
func ScanRateLimit(limiter *cache.RateLimiter, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		ok, count, err := limiter.Allow(c.Request.Context(), "scan", ip, limit, window)
		if err != nil {
			log.L.Warn("scan rate limiter unavailable", zap.Error(err))
			c.Next()
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		if !ok {
			log.L.Debug("scan rate limited", zap.String("ip", ip), zap.Int64("count", count))
			c.Header("Retry-After", strconv.Itoa(int(window.Seconds())))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   response.KindRateLimited,
				"message": "Too many scan attempts, please try again later",
			})
			return
		}
		c.Next()
	}
}
