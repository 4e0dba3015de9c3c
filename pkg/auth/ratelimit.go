package auth

import (
	"sync"
	"time"
)

// LoginLimiter is a simple sliding-window rate limiter that tracks login
// attempts per username in memory. It bounds online password guessing;
// token verification itself is never rate limited.
type LoginLimiter struct {
	maxPerMinute int
	mu           sync.Mutex
	counters     map[string]*counter
	now          func() time.Time
}

type counter struct {
	count    int
	windowAt time.Time
}

// NewLoginLimiter creates a limiter allowing maxPerMinute attempts per
// username per minute. A non-positive limit disables limiting.
func NewLoginLimiter(maxPerMinute int) *LoginLimiter {
	return &LoginLimiter{
		maxPerMinute: maxPerMinute,
		counters:     make(map[string]*counter),
		now:          time.Now,
	}
}

// Allow checks if another attempt for the username is within the limit.
func (l *LoginLimiter) Allow(username string) error {
	if l.maxPerMinute <= 0 {
		return nil // no limit
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.counters[username]
	if !ok || now.Sub(c.windowAt) >= time.Minute {
		// New window.
		l.counters[username] = &counter{count: 1, windowAt: now}
		return nil
	}

	c.count++
	if c.count > l.maxPerMinute {
		return ErrTooManyRequests
	}

	return nil
}
