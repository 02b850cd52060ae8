package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// RefreshFunc re-reads the store and rebuilds the registry.
type RefreshFunc func(ctx context.Context) error

// Refresher triggers a full rebuild on a cron schedule, so edits made
// directly in the store are picked up without a chat command.
type Refresher struct {
	schedule cron.Schedule
	loc      *time.Location
	refresh  RefreshFunc
	logger   *slog.Logger
}

func NewRefresher(spec string, loc *time.Location, refresh RefreshFunc, logger *slog.Logger) (*Refresher, error) {
	sched, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("parse refresh schedule %q: %w", spec, err)
	}
	if loc == nil {
		loc = time.Local
	}
	return &Refresher{
		schedule: sched,
		loc:      loc,
		refresh:  refresh,
		logger:   logger.With("component", "refresher"),
	}, nil
}

// Next returns the first refresh time after t.
func (r *Refresher) Next(t time.Time) time.Time {
	return r.schedule.Next(t.In(r.loc))
}

// Start blocks until ctx is cancelled.
func (r *Refresher) Start(ctx context.Context) {
	c := cron.New(cron.WithLocation(r.loc))
	c.Schedule(r.schedule, cron.FuncJob(func() { r.run(ctx) }))
	c.Start()

	r.logger.Info("refresher started", "next", r.Next(time.Now()))

	<-ctx.Done()
	<-c.Stop().Done()
	r.logger.Info("refresher shut down")
}

func (r *Refresher) run(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if err := r.refresh(ctx); err != nil {
		r.logger.Error("periodic refresh", "error", err)
	}
}
