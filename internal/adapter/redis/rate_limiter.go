package redis

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/veritas/internal/adapter/metrics"
	"github.com/pscheid92/veritas/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

// tokenBucketScript refills the bucket for the elapsed time, then tries to
// take one token. The key expires once a full refill would have happened.
// ARGV: [1]=now_ms, [2]=capacity, [3]=tokens per minute
var tokenBucketScript = goredis.NewScript(`
local now = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local rate = tonumber(ARGV[3])
local tokens = tonumber(redis.call('HGET', KEYS[1], 'tokens'))
local last = tonumber(redis.call('HGET', KEYS[1], 'last_refill'))
if tokens == nil or last == nil then
  tokens = capacity
  last = now
end
tokens = math.min(capacity, tokens + math.max(0, now - last) * rate / 60000)
local allowed = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
end
redis.call('HSET', KEYS[1], 'tokens', tostring(tokens), 'last_refill', ARGV[1])
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity * 60000 / rate) + 1000)
return allowed
`)

// ActionRateLimiter is a per-user, per-action token bucket shared by all
// instances. It implements domain.ActionRateLimiter.
type ActionRateLimiter struct {
	rdb      *goredis.Client
	clock    clockwork.Clock
	capacity int
	rate     int // tokens per minute
	m        *metrics.RedisMetrics
}

var _ domain.ActionRateLimiter = (*ActionRateLimiter)(nil)

// NewActionRateLimiter creates a limiter with the given burst capacity and
// sustained rate in tokens per minute. m may be nil.
func NewActionRateLimiter(rdb *goredis.Client, clock clockwork.Clock, capacity, ratePerMinute int, m *metrics.RedisMetrics) *ActionRateLimiter {
	return &ActionRateLimiter{
		rdb:      rdb,
		clock:    clock,
		capacity: capacity,
		rate:     ratePerMinute,
		m:        m,
	}
}

func rateLimitKey(userID uuid.UUID, action domain.Action) string {
	return fmt.Sprintf("rate_limit:%s:%s", action, userID)
}

func (l *ActionRateLimiter) Allow(ctx context.Context, userID uuid.UUID, action domain.Action) (bool, error) {
	allowed, err := tokenBucketScript.Run(ctx, l.rdb, []string{rateLimitKey(userID, action)},
		l.clock.Now().UnixMilli(),
		l.capacity,
		l.rate,
	).Int()
	if err != nil {
		l.observe(action, "error")
		return false, fmt.Errorf("rate limit check failed: %w", err)
	}

	if allowed == 1 {
		l.observe(action, "allowed")
		return true, nil
	}
	l.observe(action, "limited")
	return false, nil
}

func (l *ActionRateLimiter) observe(action domain.Action, result string) {
	if l.m != nil {
		l.m.RateLimitDecisions.WithLabelValues(string(action), result).Inc()
	}
}
