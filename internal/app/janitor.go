package app

import (
	"fmt"

	"github.com/robfig/cron/v3"
)

// StartJanitor schedules the background sweeps that drop expired cache
// entries and elapsed rate-limit counters. Calling it twice is a no-op.
func (a *App) StartJanitor() error {
	if a.janitor != nil {
		return nil
	}

	c := cron.New()
	if _, err := c.AddFunc(a.Config.Cache.SweepSpec, a.sweepCache); err != nil {
		return fmt.Errorf("invalid cache sweep spec %q: %w", a.Config.Cache.SweepSpec, err)
	}
	if _, err := c.AddFunc(a.Config.Limits.SweepSpec, a.sweepLimiter); err != nil {
		return fmt.Errorf("invalid limits sweep spec %q: %w", a.Config.Limits.SweepSpec, err)
	}

	c.Start()
	a.janitor = c

	a.Logger.Info().
		Str("cache_spec", a.Config.Cache.SweepSpec).
		Str("limits_spec", a.Config.Limits.SweepSpec).
		Msg("Janitor: started")
	return nil
}

func (a *App) sweepCache() {
	n := a.Cache.Sweep()
	a.Metrics.Swept("cache", n)
	if n > 0 {
		a.Logger.Debug().Int("removed", n).Int("remaining", a.Cache.Len()).Msg("Janitor: cache swept")
	}
}

func (a *App) sweepLimiter() {
	n := a.Limiter.Sweep()
	a.Metrics.Swept("limits", n)
	if n > 0 {
		a.Logger.Debug().Int("removed", n).Int("remaining", a.Limiter.Len()).Msg("Janitor: counters swept")
	}
}
