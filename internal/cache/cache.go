// Package cache provides the short-lived in-memory analysis cache
package cache

import (
	"sync"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/models"
)

// DefaultTTL is how long a computed analysis is served from cache
const DefaultTTL = time.Hour

// entry is immutable once stored; Put replaces the whole value
type entry struct {
	response   *models.AnalysisResponse
	insertedAt time.Time
	ttl        time.Duration
}

func (e entry) live(now time.Time) bool {
	return now.Sub(e.insertedAt) < e.ttl
}

// ResponseCache maps symbols to their most recent analysis.
// Expired entries are treated as absent and only removed by Sweep.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[models.Symbol]entry
	now     func() time.Time
}

// NewResponseCache creates an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{
		entries: make(map[models.Symbol]entry),
		now:     time.Now,
	}
}

// SetClock replaces the time source used for expiry
func (c *ResponseCache) SetClock(now func() time.Time) {
	c.now = now
}

// Get returns the cached analysis for symbol while its entry is live
func (c *ResponseCache) Get(symbol models.Symbol) (*models.AnalysisResponse, bool) {
	c.mu.RLock()
	e, ok := c.entries[symbol]
	c.mu.RUnlock()

	if !ok || !e.live(c.now()) {
		return nil, false
	}
	return e.response, true
}

// Put stores response for symbol with the given ttl (DefaultTTL when ttl <= 0)
func (c *ResponseCache) Put(symbol models.Symbol, response *models.AnalysisResponse, ttl time.Duration) {
	if response == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	e := entry{response: response, insertedAt: c.now(), ttl: ttl}

	c.mu.Lock()
	c.entries[symbol] = e
	c.mu.Unlock()
}

// Sweep evicts expired entries and returns how many were removed
func (c *ResponseCache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for symbol, e := range c.entries {
		if !e.live(now) {
			delete(c.entries, symbol)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Ensure ResponseCache implements interfaces.ResponseCache
var _ interfaces.ResponseCache = (*ResponseCache)(nil)
