package analysis

import (
	"context"
	"time"

	"github.com/bobmcallan/stockmatrix/internal/common"
	"github.com/bobmcallan/stockmatrix/internal/interfaces"
	"github.com/bobmcallan/stockmatrix/internal/metrics"
	"github.com/bobmcallan/stockmatrix/internal/ratelimit"
)

// Stage runs before the cache lookup and may reject a request
type Stage func(ctx context.Context, req Request) error

// RateLimits configures the per-client and global request counters
type RateLimits struct {
	ClientLimit int
	GlobalLimit int
	Window      time.Duration
}

// DefaultRateLimits are 30 per client and 100 overall per minute
var DefaultRateLimits = RateLimits{ClientLimit: 30, GlobalLimit: 100, Window: time.Minute}

// RateLimitStage checks the client scope and then the global scope. Both must
// pass; a rejection returns a *common.RateLimitError before any upstream work.
func RateLimitStage(limiter interfaces.RateLimiter, limits RateLimits, m *metrics.Metrics) Stage {
	if limits.Window <= 0 {
		limits.Window = DefaultRateLimits.Window
	}
	return func(_ context.Context, req Request) error {
		if !limiter.Allow(ratelimit.ClientScope(req.ClientID), limits.ClientLimit, limits.Window) {
			m.RateLimited("client")
			return &common.RateLimitError{Scope: "client", Limit: limits.ClientLimit}
		}
		if !limiter.Allow(ratelimit.GlobalScope, limits.GlobalLimit, limits.Window) {
			m.RateLimited("global")
			return &common.RateLimitError{Scope: "global", Limit: limits.GlobalLimit}
		}
		return nil
	}
}
