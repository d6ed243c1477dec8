package auth

import (
	"context"
	"sync"
	"time"
)

// lockoutEntry tracks failed login attempts for one email.
type lockoutEntry struct {
	failures  int
	lockedAt  time.Time
	expiresAt time.Time
}

func (e *lockoutEntry) locked(now time.Time) bool {
	return !e.lockedAt.IsZero() && now.Before(e.expiresAt)
}

// LockoutTracker tracks failed login attempts and temporary lockouts.
//
// State lives in memory only and is lost on restart.
type LockoutTracker struct {
	mu              sync.RWMutex
	entries         map[string]*lockoutEntry // keyed by normalized email
	threshold       int
	lockoutDuration time.Duration
	now             func() time.Time
}

// NewLockoutTracker creates a new lockout tracker. Call Run to start
// periodic cleanup of stale entries.
func NewLockoutTracker(threshold int, duration time.Duration) *LockoutTracker {
	if threshold <= 0 {
		threshold = 5
	}
	return &LockoutTracker{
		entries:         make(map[string]*lockoutEntry),
		threshold:       threshold,
		lockoutDuration: duration,
		now:             time.Now,
	}
}

// RecordFailure records a failed login attempt.
// Returns true if the key is now locked.
func (t *LockoutTracker) RecordFailure(key string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	entry, exists := t.entries[key]
	if !exists {
		entry = &lockoutEntry{}
		t.entries[key] = entry
	}

	if entry.locked(now) {
		return true
	}

	// Lockout expired: start over.
	if !entry.lockedAt.IsZero() {
		*entry = lockoutEntry{}
	}

	entry.failures++
	if entry.failures >= t.threshold {
		entry.lockedAt = now
		entry.expiresAt = now.Add(t.lockoutDuration)
		return true
	}
	return false
}

// IsLocked returns true if the key is currently locked.
func (t *LockoutTracker) IsLocked(key string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, exists := t.entries[key]
	return exists && entry.locked(t.now())
}

// RemainingLockoutTime returns how long until the lockout expires.
func (t *LockoutTracker) RemainingLockoutTime(key string) time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()

	entry, exists := t.entries[key]
	if !exists || !entry.locked(t.now()) {
		return 0
	}
	return entry.expiresAt.Sub(t.now())
}

// ClearFailures clears failed attempts on successful login.
func (t *LockoutTracker) ClearFailures(key string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.entries, key)
}

// Run removes expired entries every interval until ctx is done.
func (t *LockoutTracker) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			t.cleanup()
		}
	}
}

func (t *LockoutTracker) cleanup() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for key, entry := range t.entries {
		if entry.failures == 0 || (!entry.lockedAt.IsZero() && !entry.locked(now)) {
			delete(t.entries, key)
		}
	}
}
