package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/clock"
	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	ctxlog "github.com/ErlanBelekov/boss-notifier/internal/log"
	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
	"github.com/ErlanBelekov/boss-notifier/internal/repository"
	"github.com/ErlanBelekov/boss-notifier/internal/scheduler"
)

const (
	TestBossName     = "Test Boss"
	TestBossLocation = "Test Location"
	// TestSpawnIn is how far ahead the synthetic test spawn is placed.
	TestSpawnIn = 2 * time.Hour
	// ReminderIn is when a personal reminder fires after it is requested.
	ReminderIn = 2 * time.Hour

	testKey        = "test"
	reminderPrefix = "reminder:"
)

var (
	ErrNoRecipient = errors.New("no recipient for reminder")
	// ErrRescheduleFailed means the store write went through but the
	// rebuild after it did not.
	ErrRescheduleFailed = errors.New("spawn saved, reschedule failed")
)

// Scheduler is the timer registry the use case drives.
type Scheduler interface {
	Rebuild(snapshot []domain.Entity, lead time.Duration, now time.Time) scheduler.RebuildResult
	ScheduleSingle(n scheduler.Notice, now time.Time, lead time.Duration) (scheduler.PendingTimer, bool)
	Pending() []scheduler.PendingTimer
}

type SpawnUsecase struct {
	repo     repository.EntityRepository
	sched    Scheduler
	notifier scheduler.Notifier
	clock    clock.Clock
	lead     time.Duration
	logger   *slog.Logger

	// refreshMu is held across fetch and rebuild; a refresh never rebuilds
	// from a snapshot older than the previous one's.
	refreshMu sync.Mutex
}

func NewSpawnUsecase(
	repo repository.EntityRepository,
	sched Scheduler,
	notifier scheduler.Notifier,
	c clock.Clock,
	lead time.Duration,
	logger *slog.Logger,
) *SpawnUsecase {
	return &SpawnUsecase{
		repo:     repo,
		sched:    sched,
		notifier: notifier,
		clock:    c,
		lead:     lead,
		logger:   logger.With("component", "spawn_usecase"),
	}
}

// Refresh reads a fresh snapshot and rebuilds every timer from it. trigger
// labels the caller in logs and metrics.
func (u *SpawnUsecase) Refresh(ctx context.Context, trigger string) (scheduler.RebuildResult, error) {
	u.refreshMu.Lock()
	defer u.refreshMu.Unlock()

	ctx = ctxlog.With(ctx, slog.String("trigger", trigger))
	start := time.Now()
	defer func() { metrics.RebuildDuration.Observe(time.Since(start).Seconds()) }()

	snapshot, err := u.repo.List(ctx)
	if err != nil {
		metrics.RebuildsTotal.WithLabelValues(trigger, "failed").Inc()
		return scheduler.RebuildResult{}, fmt.Errorf("fetch snapshot: %w", err)
	}

	res := u.sched.Rebuild(snapshot, u.lead, u.clock.Now())
	metrics.RebuildsTotal.WithLabelValues(trigger, "ok").Inc()
	u.logger.InfoContext(ctx, "schedule refreshed", "installed", res.Installed, "skipped", res.Skipped)
	return res, nil
}

// UpdateSpawn writes a new spawn time to the store and rebuilds. Nothing is
// rebuilt when the write fails; a failed rebuild after a successful write
// returns ErrRescheduleFailed.
func (u *SpawnUsecase) UpdateSpawn(ctx context.Context, name string, at time.Time) (scheduler.RebuildResult, error) {
	if err := u.repo.UpdateSpawn(ctx, name, at); err != nil {
		return scheduler.RebuildResult{}, fmt.Errorf("update spawn: %w", err)
	}
	res, err := u.Refresh(ctx, "update")
	if err != nil {
		return scheduler.RebuildResult{}, fmt.Errorf("%w: %w", ErrRescheduleFailed, err)
	}
	return res, nil
}

// SendTest pushes one notification for a synthetic boss right away and arms
// a delayed one for the same boss. The delayed timer is not armed when the
// immediate push fails.
func (u *SpawnUsecase) SendTest(ctx context.Context) (scheduler.PendingTimer, bool, error) {
	now := u.clock.Now()
	n := scheduler.Notice{
		Key:      testKey,
		Name:     TestBossName,
		Location: TestBossLocation,
		SpawnAt:  now.Add(TestSpawnIn),
	}

	if err := u.notifier.Notify(ctx, n); err != nil {
		return scheduler.PendingTimer{}, false, fmt.Errorf("send test notification: %w", err)
	}

	pt, armed := u.sched.ScheduleSingle(n, now, u.lead)
	u.logger.InfoContext(ctx, "test notification sent", "armed", armed, "fire_at", pt.FireAt)
	return pt, armed, nil
}

// RemindMe arms a personal reminder for recipient that fires ReminderIn from
// now. It does not touch the store and survives refreshes. A second request
// from the same recipient replaces the first.
func (u *SpawnUsecase) RemindMe(ctx context.Context, recipient string) (scheduler.PendingTimer, error) {
	if recipient == "" {
		return scheduler.PendingTimer{}, ErrNoRecipient
	}

	now := u.clock.Now()
	n := scheduler.Notice{
		Key:        reminderPrefix + recipient,
		Name:       "Boss",
		SpawnAt:    now.Add(ReminderIn + u.lead),
		Recipients: []string{recipient},
		Detached:   true,
	}
	pt, armed := u.sched.ScheduleSingle(n, now, u.lead)
	if !armed {
		return scheduler.PendingTimer{}, fmt.Errorf("reminder for %s not armed", recipient)
	}
	u.logger.InfoContext(ctx, "reminder armed", "recipient", recipient, "fire_at", pt.FireAt)
	return pt, nil
}

func (u *SpawnUsecase) Pending() []scheduler.PendingTimer {
	return u.sched.Pending()
}
