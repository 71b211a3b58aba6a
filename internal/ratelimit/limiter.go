// Package ratelimit provides fixed-window request counters keyed by scope
package ratelimit

import (
	"sync"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/interfaces"
)

// Scope keys used by the analysis pipeline
const (
	GlobalScope  = "global"
	clientPrefix = "client:"
)

// ClientScope returns the counter key for a client identifier (usually an IP)
func ClientScope(clientID string) string {
	return clientPrefix + clientID
}

// counter tracks one scope's window. removed is set when Sweep drops the
// counter from the map so that late holders re-resolve it.
type counter struct {
	mu          sync.Mutex
	count       int
	windowStart time.Time
	window      time.Duration
	removed     bool
}

// Limiter holds one fixed-window counter per scope key.
// Map access is guarded by mu, each counter by its own mutex.
type Limiter struct {
	mu       sync.RWMutex
	counters map[string]*counter
	now      func() time.Time
}

// NewLimiter creates an empty limiter
func NewLimiter() *Limiter {
	return &Limiter{
		counters: make(map[string]*counter),
		now:      time.Now,
	}
}

func (l *Limiter) counterFor(key string) *counter {
	l.mu.RLock()
	c, ok := l.counters[key]
	l.mu.RUnlock()
	if ok {
		return c
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if c, ok = l.counters[key]; !ok {
		c = &counter{}
		l.counters[key] = c
	}
	return c
}

// Allow counts a request against scopeKey. The counter restarts when window
// has elapsed since its window start. Returns false without counting when the
// count already reached limit.
func (l *Limiter) Allow(scopeKey string, limit int, window time.Duration) bool {
	for {
		c := l.counterFor(scopeKey)
		c.mu.Lock()
		if c.removed {
			c.mu.Unlock()
			continue
		}

		now := l.now()
		if c.windowStart.IsZero() || now.Sub(c.windowStart) >= window {
			c.windowStart = now
			c.count = 0
		}
		c.window = window

		allowed := c.count < limit
		if allowed {
			c.count++
		}
		c.mu.Unlock()
		return allowed
	}
}

// Status reports the current count for scopeKey and when its window resets.
// ok is false when the scope has no live window.
func (l *Limiter) Status(scopeKey string) (count int, resetAt time.Time, ok bool) {
	l.mu.RLock()
	c, exists := l.counters[scopeKey]
	l.mu.RUnlock()
	if !exists {
		return 0, time.Time{}, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	resetAt = c.windowStart.Add(c.window)
	if c.removed || !l.now().Before(resetAt) {
		return 0, time.Time{}, false
	}
	return c.count, resetAt, true
}

// Sweep removes counters whose window has elapsed and returns how many were dropped
func (l *Limiter) Sweep() int {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	removed := 0
	for key, c := range l.counters {
		c.mu.Lock()
		if now.Sub(c.windowStart) >= c.window {
			c.removed = true
			delete(l.counters, key)
			removed++
		}
		c.mu.Unlock()
	}
	return removed
}

// Len returns the number of tracked scopes
func (l *Limiter) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.counters)
}

// Ensure Limiter implements RateLimiter
var _ interfaces.RateLimiter = (*Limiter)(nil)
