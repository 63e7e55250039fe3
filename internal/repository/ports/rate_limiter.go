package ports

// OTPRateLimiter throttles recovery-code requests per destination address.
// Implementations should fail open: an unreachable backend must not lock
// every user out of password recovery.
type OTPRateLimiter interface {
	Allow(key string) bool
}
