package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"botonic-backend/internal/models"
)

const quotaKeyTTL = 48 * time.Hour

// consumeScript checks and increments in one server-side step.
// KEYS[1] counter key; ARGV[1] limit; ARGV[2] "1" to enforce; ARGV[3] ttl seconds.
var consumeScript = redis.NewScript(`
local n = tonumber(redis.call('GET', KEYS[1]) or '0')
if ARGV[2] == '1' and n >= tonumber(ARGV[1]) then
	return {n, 0}
end
n = redis.call('INCR', KEYS[1])
if n == 1 then
	redis.call('EXPIRE', KEYS[1], ARGV[3])
end
return {n, 1}
`)

// RedisQuotaStore shares counters between instances. Keys expire after two days.
type RedisQuotaStore struct {
	redis  *redis.Client
	prefix string
}

func NewRedisQuotaStore(redisClient *redis.Client) *RedisQuotaStore {
	return &RedisQuotaStore{redis: redisClient, prefix: "quota"}
}

func (s *RedisQuotaStore) key(k models.QuotaKey) string {
	return fmt.Sprintf("%s:%s:%s", s.prefix, k.Day, k.Identity)
}

func (s *RedisQuotaStore) Consume(ctx context.Context, key models.QuotaKey, limit int, enforce bool) (int, bool, error) {
	enforceArg := "0"
	if enforce {
		enforceArg = "1"
	}

	res, err := consumeScript.Run(ctx, s.redis, []string{s.key(key)},
		limit, enforceArg, int(quotaKeyTTL.Seconds())).Int64Slice()
	if err != nil {
		return 0, false, fmt.Errorf("redis quota script: %w", err)
	}
	if len(res) != 2 {
		return 0, false, fmt.Errorf("redis quota script: unexpected reply %v", res)
	}
	return int(res[0]), res[1] == 1, nil
}

func (s *RedisQuotaStore) Count(ctx context.Context, key models.QuotaKey) (int, error) {
	n, err := s.redis.Get(ctx, s.key(key)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis quota get: %w", err)
	}
	return n, nil
}
