package redis

import (
	"context"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter bump and window start have to be one round trip, otherwise a crash
// between INCR and EXPIRE leaves a key that never resets.
const allowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type evaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// OTPRateLimiter caps how often a single email address may request a recovery
// code. Redis being unreachable fails open: recovery must stay available even
// when the limiter backend is down.
type OTPRateLimiter struct {
	client evaler
	window time.Duration
	max    int
	prefix string
}

func NewOTPRateLimiter(client *redis.Client, window time.Duration, max int) *OTPRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &OTPRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "pwreset:rl:",
	}
}

func (l *OTPRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalized := strings.ToLower(strings.TrimSpace(key))
	if normalized == "" {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}
	count, err := l.client.Eval(ctx, allowScript, []string{l.prefix + normalized}, seconds).Int()
	if err != nil {
		return true
	}
	return count <= l.max
}
