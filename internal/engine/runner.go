// internal/engine/runner.go
package engine

import (
	"context"
	"time"
)

// Run polls on the configured fixed interval until ctx is cancelled. One
// cycle runs immediately so collaborators have data before the first tick.
// A running cycle is never cancelled mid-flight; cancellation takes effect
// between cycles. Refresh logs its own failures, so errors are not
// re-reported here.
func (c *Coordinator) Run(ctx context.Context) {
	_, _ = c.Refresh()

	ticker := time.NewTicker(c.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, _ = c.Refresh()
		}
	}
}
