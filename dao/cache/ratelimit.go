package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RateLimiter 固定窗口计数，窗口内第一次访问时设置过期
type RateLimiter struct {
	redis *redis.Client
}

func NewRateLimiter(redis *redis.Client) *RateLimiter {
	return &RateLimiter{redis: redis}
}

// Allow 返回本次是否放行以及窗口内的累计次数
// @params scope  限流场景
// @params id     限流主体，如客户端 IP
func (r *RateLimiter) Allow(ctx context.Context, scope, id string, limit int, window time.Duration) (bool, int64, error) {
	key := r.key(scope, id)

	count, err := r.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, 0, err
	}
	if count == 1 {
		if err := r.redis.Expire(ctx, key, window).Err(); err != nil {
			return false, 0, err
		}
	}
	return count <= int64(limit), count, nil
}

func (r *RateLimiter) key(scope, id string) string {
	return fmt.Sprintf("rewards:ratelimit:%s:%s", scope, id)
}
