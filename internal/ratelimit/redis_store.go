package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
)

// takeScript trims the window, checks the count and records the request as
// one server-side step. Scores are unix milliseconds.
//
// KEYS[1] window key
// ARGV[1] exclusive lower score bound, ARGV[2] now, ARGV[3] limit,
// ARGV[4] member, ARGV[5] ttl in milliseconds
var takeScript = goredis.NewScript(`
redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', ARGV[1])
if redis.call('ZCARD', KEYS[1]) >= tonumber(ARGV[3]) then
	local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
	return {0, oldest[2]}
end
redis.call('ZADD', KEYS[1], ARGV[2], ARGV[4])
redis.call('PEXPIRE', KEYS[1], ARGV[5])
return {1}
`)

// RedisStore keeps each window as a sorted set scored by unix milliseconds.
type RedisStore struct {
	c goredis.Scripter
}

func NewRedisStore(c goredis.Scripter) *RedisStore {
	return &RedisStore{c: c}
}

func (s *RedisStore) Take(ctx context.Context, key string, now time.Time, window time.Duration, limit int) (bool, time.Time, error) {
	nowMs := now.UnixMilli()
	res, err := takeScript.Run(ctx, s.c, []string{key},
		"("+strconv.FormatInt(nowMs-window.Milliseconds(), 10),
		strconv.FormatInt(nowMs, 10),
		limit,
		// Members must be unique; two requests can share a timestamp.
		uuid.NewString(),
		window.Milliseconds(),
	).Slice()
	if err != nil {
		return false, time.Time{}, err
	}
	if len(res) == 0 {
		return false, time.Time{}, errors.New("rate limit script: empty reply")
	}

	if allowed, _ := res[0].(int64); allowed == 1 {
		return true, time.Time{}, nil
	}

	var oldest time.Time
	if len(res) > 1 {
		if raw, ok := res[1].(string); ok {
			ms, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return false, time.Time{}, fmt.Errorf("rate limit script: oldest score %q: %w", raw, err)
			}
			oldest = time.UnixMilli(int64(ms))
		}
	}
	return false, oldest, nil
}
