// Package scheduler provides the coalescing interval triggers that drive
// the reconcilers.
package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Trigger fires a named job on a fixed interval. At most one run is in
// flight per trigger: a firing that would overlap the previous run is
// dropped outright, never queued. Run failures are logged and swallowed so
// one bad cycle cannot stop the schedule.
type Trigger struct {
	name     string
	interval time.Duration
	run      func(context.Context) error

	mu sync.Mutex
}

// NewTrigger creates a trigger that invokes run every interval.
func NewTrigger(name string, interval time.Duration, run func(context.Context) error) *Trigger {
	return &Trigger{
		name:     name,
		interval: interval,
		run:      run,
	}
}

// Start runs the trigger loop until ctx is canceled. Call it in its own
// goroutine; firings run detached from the loop so a slow job never blocks
// the ticker.
func (t *Trigger) Start(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	slog.Info("Trigger started", "job", t.name, "interval", t.interval)
	for {
		select {
		case <-ctx.Done():
			slog.Info("Trigger stopped", "job", t.name)
			return
		case <-ticker.C:
			go t.fire(ctx)
		}
	}
}

// fire runs the job unless the previous firing is still going.
func (t *Trigger) fire(ctx context.Context) {
	if !t.mu.TryLock() {
		slog.Debug("Previous run still in flight, skipping firing", "job", t.name)
		return
	}
	defer t.mu.Unlock()

	started := time.Now()
	if err := t.run(ctx); err != nil {
		slog.Error("Scheduled run failed", "job", t.name, "error", err, "duration", time.Since(started))
		return
	}
	slog.Debug("Scheduled run completed", "job", t.name, "duration", time.Since(started))
}
