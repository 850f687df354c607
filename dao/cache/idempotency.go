package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	idempotencyPending = "__pending__"
	// 请求处理中的占位时长，进程崩溃后占位自动释放
	idempotencyLockTTL = 30 * time.Second
	IdempotencyTTL     = 24 * time.Hour
)

var ErrRequestInFlight = errors.New("request with the same idempotency key is in progress")

// IdempotencyStore 以 租户+接口+Idempotency-Key 记录首个成功响应，同一个 key 在不同接口上互不影响
type IdempotencyStore struct {
	redis *redis.Client
}

func NewIdempotencyStore(redis *redis.Client) *IdempotencyStore {
	return &IdempotencyStore{redis: redis}
}

// Begin 占位。返回已保存的响应时调用方直接回放；占位成功返回 nil, nil
func (s *IdempotencyStore) Begin(ctx context.Context, tenantID int64, scope, key string) ([]byte, error) {
	k := s.key(tenantID, scope, key)
	ok, err := s.redis.SetNX(ctx, k, idempotencyPending, idempotencyLockTTL).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return nil, nil
	}

	val, err := s.redis.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		// 占位恰好过期，重新抢一次
		return s.Begin(ctx, tenantID, scope, key)
	}
	if err != nil {
		return nil, err
	}
	if string(val) == idempotencyPending {
		return nil, ErrRequestInFlight
	}
	return val, nil
}

// Complete 保存成功响应
func (s *IdempotencyStore) Complete(ctx context.Context, tenantID int64, scope, key string, body []byte) error {
	return s.redis.Set(ctx, s.key(tenantID, scope, key), body, IdempotencyTTL).Err()
}

// Abort 请求失败时释放占位，允许客户端用同一个 key 重试
func (s *IdempotencyStore) Abort(ctx context.Context, tenantID int64, scope, key string) error {
	return s.redis.Del(ctx, s.key(tenantID, scope, key)).Err()
}

func (s *IdempotencyStore) key(tenantID int64, scope, key string) string {
	return fmt.Sprintf("rewards:idempotency:%d:%s:%s", tenantID, scope, key)
}
