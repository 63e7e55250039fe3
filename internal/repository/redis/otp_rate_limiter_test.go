package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

type mockEvaler struct {
	lastKeys []string
	lastArgs []interface{}
	result   int64
	err      error
}

func (m *mockEvaler) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	m.lastKeys = keys
	m.lastArgs = args
	cmd := redis.NewCmd(ctx)
	if m.err != nil {
		cmd.SetErr(m.err)
		return cmd
	}
	cmd.SetVal(m.result)
	return cmd
}

func TestOTPRateLimiterAllow(t *testing.T) {
	t.Run("nil limiter fails open", func(t *testing.T) {
		var l *OTPRateLimiter
		if !l.Allow("user@example.com") {
			t.Fatal("expected nil limiter to allow")
		}
	})

	t.Run("blank key rejected", func(t *testing.T) {
		l := &OTPRateLimiter{client: &mockEvaler{result: 1}, window: time.Minute, max: 3, prefix: "pwreset:rl:"}
		if l.Allow("   ") {
			t.Fatal("expected blank key to be rejected")
		}
	})

	t.Run("count within max allows", func(t *testing.T) {
		mock := &mockEvaler{result: 3}
		l := &OTPRateLimiter{client: mock, window: time.Minute, max: 3, prefix: "pwreset:rl:"}
		if !l.Allow("User@Example.com") {
			t.Fatal("expected request within window to be allowed")
		}
		if len(mock.lastKeys) != 1 || mock.lastKeys[0] != "pwreset:rl:user@example.com" {
			t.Fatalf("expected normalized key, got %v", mock.lastKeys)
		}
	})

	t.Run("count above max denies", func(t *testing.T) {
		l := &OTPRateLimiter{client: &mockEvaler{result: 4}, window: time.Minute, max: 3, prefix: "pwreset:rl:"}
		if l.Allow("user@example.com") {
			t.Fatal("expected request over the limit to be denied")
		}
	})

	t.Run("redis error fails open", func(t *testing.T) {
		l := &OTPRateLimiter{client: &mockEvaler{err: errors.New("redis down")}, window: time.Minute, max: 1, prefix: "pwreset:rl:"}
		if !l.Allow("user@example.com") {
			t.Fatal("expected limiter to fail open on backend error")
		}
	})
}
