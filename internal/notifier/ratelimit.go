package notifier

import (
	"sync"
	"time"
)

// RateLimitConfig holds rate limiter configuration.
type RateLimitConfig struct {
	MaxPerWindow int           // default 10
	Window       time.Duration // default 1 minute
	Enabled      bool
}

// DefaultRateLimitConfig returns default rate limit settings.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxPerWindow: 10,
		Window:       time.Minute,
		Enabled:      true,
	}
}

// RateLimitStats contains rate limiter statistics.
type RateLimitStats struct {
	Dropped      int64
	CurrentCount int
	MaxPerWindow int
	Window       time.Duration
	Enabled      bool
}

// RateLimiter caps notifications over a sliding window, so a client
// uploading a whole album does not flood the designer's inbox.
type RateLimiter struct {
	mu      sync.Mutex
	cfg     RateLimitConfig
	sent    []time.Time
	dropped int64
	now     func() time.Time
}

// NewRateLimiter creates a rate limiter. Non-positive limits fall back to
// the defaults.
func NewRateLimiter(config RateLimitConfig) *RateLimiter {
	def := DefaultRateLimitConfig()
	if config.MaxPerWindow <= 0 {
		config.MaxPerWindow = def.MaxPerWindow
	}
	if config.Window <= 0 {
		config.Window = def.Window
	}
	return &RateLimiter{
		cfg:  config,
		sent: make([]time.Time, 0, config.MaxPerWindow),
		now:  time.Now,
	}
}

// Allow consumes a slot if one is free in the current window.
func (r *RateLimiter) Allow() bool {
	if !r.cfg.Enabled {
		return true
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	r.expire(now.Add(-r.cfg.Window))

	if len(r.sent) >= r.cfg.MaxPerWindow {
		r.dropped++
		return false
	}
	r.sent = append(r.sent, now)
	return true
}

// Release refunds the most recently consumed slot.
func (r *RateLimiter) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n := len(r.sent); n > 0 {
		r.sent = r.sent[:n-1]
	}
}

// expire drops timestamps before cutoff. Caller holds mu.
func (r *RateLimiter) expire(cutoff time.Time) {
	i := 0
	for i < len(r.sent) && r.sent[i].Before(cutoff) {
		i++
	}
	if i > 0 {
		r.sent = append(r.sent[:0], r.sent[i:]...)
	}
}

// Dropped returns the number of notifications refused so far.
func (r *RateLimiter) Dropped() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}

// Stats returns rate limiter statistics.
func (r *RateLimiter) Stats() RateLimitStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return RateLimitStats{
		Dropped:      r.dropped,
		CurrentCount: len(r.sent),
		MaxPerWindow: r.cfg.MaxPerWindow,
		Window:       r.cfg.Window,
		Enabled:      r.cfg.Enabled,
	}
}
