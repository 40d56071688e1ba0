// Package janitor runs periodic housekeeping.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/satnyp/spolek-rodicu/internal/storage"
)

// DefaultSchedule purges expired OAuth states every 15 minutes.
const DefaultSchedule = "@every 15m"

// Janitor purges expired OAuth states on a cron schedule.
type Janitor struct {
	states storage.StateStore
	cron   *cron.Cron
	now    func() time.Time
}

// New schedules the purge. An empty schedule uses DefaultSchedule.
func New(states storage.StateStore, schedule string) (*Janitor, error) {
	if schedule == "" {
		schedule = DefaultSchedule
	}
	j := &Janitor{
		states: states,
		cron:   cron.New(),
		now:    time.Now,
	}
	if _, err := j.cron.AddFunc(schedule, func() { j.PurgeOAuthStates(context.Background()) }); err != nil {
		return nil, fmt.Errorf("invalid janitor schedule %q: %w", schedule, err)
	}
	return j, nil
}

// PurgeOAuthStates deletes expired states and returns how many were removed.
func (j *Janitor) PurgeOAuthStates(ctx context.Context) int64 {
	n, err := j.states.PurgeExpiredOAuthStates(ctx, j.now().UTC())
	if err != nil {
		slog.Error("Failed to purge expired oauth states", "error", err)
		return n
	}
	if n > 0 {
		slog.Info("Purged expired oauth states", "count", n)
	}
	return n
}

// Run starts the scheduler and blocks until ctx is done.
func (j *Janitor) Run(ctx context.Context) error {
	j.cron.Start()
	slog.Info("Janitor started", "entries", len(j.cron.Entries()))
	<-ctx.Done()
	<-j.cron.Stop().Done()
	return nil
}
