package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/iliyamo/room-reservation/internal/config"
)

// bucketScript refills KEYS[1] by whole intervals, then takes one token.
// Returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill = tonumber(ARGV[3])
local interval_ms = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])

local state = redis.call('HMGET', key, 'tokens', 'last_ms')
local tokens = tonumber(state[1])
local last = tonumber(state[2])
if tokens == nil or last == nil then
  tokens = capacity
  last = now_ms
end

local steps = math.floor(math.max(0, now_ms - last) / interval_ms)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  last = last + steps * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, interval_ms - (now_ms - last))
end

redis.call('HSET', key, 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', key, ttl)
return {allowed, tokens, retry_ms}
`)

// RateLimiter is a token bucket keyed per caller.  With a Redis client the
// bucket lives in Redis and is shared by every instance; without one, or
// when Redis errors, an in-process limiter with the same shape is used.
type RateLimiter struct {
	cfg   config.RateLimitConfig
	rdb   *redis.Client
	log   *zap.Logger
	now   func() time.Time
	mu    sync.Mutex
	local map[string]*localBucket
	swept time.Time
}

// localBucket is an in-process bucket and the last time it was used.
// Buckets idle for longer than cfg.TTL are dropped, like their Redis keys.
type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// NewRateLimiter returns a limiter; rdb may be nil.
func NewRateLimiter(cfg config.RateLimitConfig, rdb *redis.Client, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	return &RateLimiter{cfg: cfg, rdb: rdb, log: log, now: time.Now, local: map[string]*localBucket{}}
}

// Middleware enforces the bucket and answers 429 with Retry-After when it
// is empty.
func (rl *RateLimiter) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !rl.cfg.Enabled {
			return next
		}
		return func(c echo.Context) error {
			key := rl.key(c)
			allowed, remaining, retry := rl.take(c, key)

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
			if !allowed {
				secs := int(math.Ceil(retry.Seconds()))
				h.Set("Retry-After", strconv.Itoa(secs))
				rl.log.Debug("rate limited", zap.String("key", key))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

func (rl *RateLimiter) take(c echo.Context, key string) (bool, int64, time.Duration) {
	if rl.rdb != nil {
		vals, err := bucketScript.Run(c.Request().Context(), rl.rdb, []string{key},
			rl.now().UnixMilli(),
			rl.cfg.Capacity,
			rl.cfg.RefillTokens,
			rl.cfg.RefillInterval.Milliseconds(),
			int64(rl.cfg.TTL/time.Second),
		).Int64Slice()
		if err == nil && len(vals) == 3 {
			return vals[0] == 1, vals[1], time.Duration(vals[2]) * time.Millisecond
		}
		rl.log.Warn("rate limit: redis unavailable, using local bucket", zap.Error(err))
	}
	lim := rl.localLimiter(key)
	r := lim.ReserveN(rl.now(), 1)
	if delay := r.DelayFrom(rl.now()); delay > 0 {
		r.CancelAt(rl.now())
		return false, 0, delay
	}
	return true, int64(lim.TokensAt(rl.now())), 0
}

func (rl *RateLimiter) localLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := rl.now()
	rl.sweep(now)
	b, ok := rl.local[key]
	if !ok {
		every := rl.cfg.RefillInterval / time.Duration(rl.cfg.RefillTokens)
		b = &localBucket{lim: rate.NewLimiter(rate.Every(every), rl.cfg.Capacity)}
		rl.local[key] = b
	}
	b.seen = now
	return b.lim
}

// sweep drops idle buckets at most once per TTL.  Callers hold rl.mu.
func (rl *RateLimiter) sweep(now time.Time) {
	ttl := rl.cfg.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	if now.Sub(rl.swept) < ttl {
		return
	}
	for k, b := range rl.local {
		if now.Sub(b.seen) >= ttl {
			delete(rl.local, k)
		}
	}
	rl.swept = now
}

func (rl *RateLimiter) key(c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	user := Owner(c)
	route := c.Request().Method + " " + c.Path()

	parts := []string{rl.cfg.Prefix}
	switch strings.ToLower(rl.cfg.KeyStrategy) {
	case "ip":
		parts = append(parts, "ip", ip)
	case "user":
		parts = append(parts, "user", user)
	case "ip_user":
		parts = append(parts, "ip", ip, "user", user)
	case "user_route":
		parts = append(parts, "user", user, "route", route)
	default:
		parts = append(parts, "ip", ip, "user", user, "route", route)
	}
	return strings.Join(parts, ":")
}
