package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// windowScript counts against a rule atomically. Only allowed requests
// increment; the window starts at the first counted request.
// Returns {allowed, count, ttl_ms}.
var windowScript = redis.NewScript(`
local limit = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local ttl = redis.call('PTTL', KEYS[1])
local count = 0
if ttl > 0 then
  count = tonumber(redis.call('GET', KEYS[1]) or '0')
else
  ttl = window
end
if count < limit then
  if count == 0 then
    redis.call('SET', KEYS[1], 1, 'PX', window)
  else
    redis.call('INCR', KEYS[1])
  end
  return {1, count + 1, ttl}
end
return {0, count, ttl}
`)

// RedisLimiter shares counters across instances through Redis.
type RedisLimiter struct {
	rdb    redis.UniversalClient
	routes *Routes
	prefix string
	logger *slog.Logger
}

func NewRedisLimiter(rdb redis.UniversalClient, routes *Routes, logger *slog.Logger) *RedisLimiter {
	return &RedisLimiter{rdb: rdb, routes: routes, prefix: "gogo:rl:", logger: logger}
}

func (r *RedisLimiter) banKey(ip string) string   { return r.prefix + "ban:" + ip }
func (r *RedisLimiter) abuseKey(ip string) string { return r.prefix + "abuse:" + ip }

func (r *RedisLimiter) Check(ctx context.Context, ip, route string) (Decision, error) {
	banTTL, err := r.rdb.PTTL(ctx, r.banKey(ip)).Result()
	if err != nil {
		return Decision{}, fmt.Errorf("check ban: %w", err)
	}
	if banTTL > 0 {
		return Decision{Allowed: false, Remaining: 0, ResetIn: banTTL, Banned: true}, nil
	}

	rule := r.routes.Match(route)
	res, err := windowScript.Run(ctx, r.rdb,
		[]string{r.prefix + rateKey(ip, route)},
		rule.Limit, rule.Window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return Decision{}, fmt.Errorf("count request: %w", err)
	}
	if len(res) != 3 {
		return Decision{}, fmt.Errorf("count request: unexpected reply %v", res)
	}

	allowed := res[0] == 1
	count := int(res[1])
	resetIn := time.Duration(res[2]) * time.Millisecond

	if !allowed {
		if err := r.recordFailure(ctx, ip); err != nil {
			return Decision{}, err
		}
	}

	return Decision{
		Allowed:   allowed,
		Remaining: max(0, rule.Limit-count),
		ResetIn:   resetIn,
	}, nil
}

func (r *RedisLimiter) recordFailure(ctx context.Context, ip string) error {
	var failures *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		failures = pipe.Incr(ctx, r.abuseKey(ip))
		pipe.PExpire(ctx, r.abuseKey(ip), abuseCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("record abuse: %w", err)
	}
	if failures.Val() >= AbuseThreshold {
		if err := r.rdb.Set(ctx, r.banKey(ip), failures.Val(), BanDuration).Err(); err != nil {
			return fmt.Errorf("ban ip: %w", err)
		}
		r.logger.Warn("ip banned for abuse", "ip", ip, "failures", failures.Val())
	}
	return nil
}
