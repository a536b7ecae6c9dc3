package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// recordScript prunes, counts and conditionally records in one round trip.
// Scores are unix milliseconds; members are random so equal timestamps from
// concurrent callers do not collapse into one entry.
var recordScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local allowed = 0
if count < limit then
  redis.call("ZADD", key, now, ARGV[4])
  redis.call("PEXPIRE", key, window)
  count = count + 1
  allowed = 1
end

local oldest = -1
local first = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if first[2] then
  oldest = tonumber(first[2])
end
return {allowed, count, oldest}
`)

var countScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

redis.call("ZREMRANGEBYSCORE", key, "-inf", now - window)
local count = redis.call("ZCARD", key)
local oldest = -1
local first = redis.call("ZRANGE", key, 0, 0, "WITHSCORES")
if first[2] then
  oldest = tonumber(first[2])
end
return {count, oldest}
`)

// RedisStore implements SlidingWindowStore on a Redis sorted set per key, so
// several processes share one limit.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore returns a store writing keys under prefix.
func NewRedisStore(client redis.UniversalClient, prefix string) *RedisStore {
	prefix = strings.TrimSuffix(strings.TrimSpace(prefix), ":")
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}
}

// RecordIfAllowed implements SlidingWindowStore.
func (s *RedisStore) RecordIfAllowed(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, int64, time.Time, error) {
	raw, err := recordScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(), window.Milliseconds(), limit, uuid.NewString(),
	).Result()
	if err != nil {
		return false, 0, time.Time{}, fmt.Errorf("ratelimit: redis record: %w", err)
	}

	values, err := int64Reply(raw, 3)
	if err != nil {
		return false, 0, time.Time{}, err
	}

	return values[0] == 1, values[1], fromMillis(values[2]), nil
}

// Count implements SlidingWindowStore.
func (s *RedisStore) Count(ctx context.Context, key string, now time.Time, window time.Duration) (int64, time.Time, error) {
	raw, err := countScript.Run(ctx, s.client, []string{s.key(key)},
		now.UnixMilli(), window.Milliseconds(),
	).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("ratelimit: redis count: %w", err)
	}

	values, err := int64Reply(raw, 2)
	if err != nil {
		return 0, time.Time{}, err
	}

	return values[0], fromMillis(values[1]), nil
}

// Delete implements SlidingWindowStore.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("ratelimit: redis delete: %w", err)
	}
	return nil
}

func (s *RedisStore) key(key string) string {
	return s.prefix + ":" + key
}

func int64Reply(raw any, n int) ([]int64, error) {
	values, ok := raw.([]any)
	if !ok || len(values) != n {
		return nil, fmt.Errorf("%w: %T", ErrUnexpectedReply, raw)
	}

	out := make([]int64, n)
	for i, v := range values {
		iv, ok := v.(int64)
		if !ok {
			return nil, fmt.Errorf("%w: element %d is %T", ErrUnexpectedReply, i, v)
		}
		out[i] = iv
	}
	return out, nil
}

func fromMillis(ms int64) time.Time {
	if ms < 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
