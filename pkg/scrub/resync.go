package scrub

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Resyncer forces full reloads of the rule directory on a cron schedule.
// It covers changes the watcher cannot see, such as files replaced on
// network mounts.
type Resyncer struct {
	schedule string
	resync   func()
	cron     *cron.Cron
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
	entry   cron.EntryID
	stopped chan struct{}
}

// NewResyncer validates schedule and creates a resyncer calling resync.
//
// Common schedules:
//   - "*/5 * * * *" - Every 5 minutes
//   - "0 * * * *"   - Hourly
//   - "@every 30s"  - Every 30 seconds
func NewResyncer(schedule string, resync func(), logger *slog.Logger) (*Resyncer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", schedule, err)
	}

	return &Resyncer{
		schedule: schedule,
		resync:   resync,
		cron:     cron.New(),
		logger:   logger,
	}, nil
}

// Start schedules the resync job. The scheduler stops when ctx is
// cancelled or Stop is called.
func (r *Resyncer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.running {
		return fmt.Errorf("resyncer already running")
	}

	entry, err := r.cron.AddFunc(r.schedule, r.run)
	if err != nil {
		return fmt.Errorf("failed to schedule resync: %w", err)
	}

	r.cron.Start()
	r.running = true
	r.entry = entry
	r.stopped = make(chan struct{})

	r.logger.Info("Rule resync scheduled", "schedule", r.schedule)

	stopped := r.stopped
	go func() {
		select {
		case <-ctx.Done():
			r.mu.Lock()
			defer r.mu.Unlock()
			// Only stop the run this goroutine was started for.
			if r.stopped == stopped {
				r.stopLocked()
			}
		case <-stopped:
		}
	}()

	return nil
}

func (r *Resyncer) run() {
	r.logger.Debug("Starting scheduled rule resync")
	r.resync()
}

// Stop stops the scheduler and waits for a running resync to finish.
func (r *Resyncer) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
}

func (r *Resyncer) stopLocked() {
	if !r.running {
		return
	}
	<-r.cron.Stop().Done()
	r.cron.Remove(r.entry)
	close(r.stopped)
	r.running = false
	r.logger.Info("Rule resync stopped")
}

// NextRun returns the next scheduled resync time.
func (r *Resyncer) NextRun() (time.Time, bool) {
	entries := r.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}, false
	}
	return entries[0].Next, true
}
