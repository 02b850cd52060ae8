package scheduler

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ErlanBelekov/boss-notifier/internal/clock"
	"github.com/ErlanBelekov/boss-notifier/internal/domain"
	"github.com/ErlanBelekov/boss-notifier/internal/metrics"
)

// Notice is the data a timer delivers when it fires. It is captured when the
// timer is armed and never re-read from the store.
type Notice struct {
	Name     string
	Location string
	SpawnAt  time.Time
	// Recipients overrides the notifier's default targets when non-empty.
	Recipients []string
	// Key is the registry slot; empty means Name. Personal reminders use
	// their own key so they never collide with store entities.
	Key string
	// Detached timers are not part of the store schedule. Rebuild leaves
	// them armed; CancelAll still clears them.
	Detached bool
}

func (n Notice) key() string {
	if n.Key != "" {
		return n.Key
	}
	return n.Name
}

// Notifier is the outbound delivery channel invoked on fire.
type Notifier interface {
	Notify(ctx context.Context, n Notice) error
}

type RebuildResult struct {
	Installed  int `json:"installed"`
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
	Total      int `json:"total"`
}

// PendingTimer describes an armed timer.
type PendingTimer struct {
	Key      string    `json:"key"`
	Name     string    `json:"name"`
	Location string    `json:"location"`
	SpawnAt  time.Time `json:"spawn_at"`
	FireAt   time.Time `json:"fire_at"`
}

type entry struct {
	notice Notice
	fireAt time.Time
	timer  clock.Timer
	gen    uint64
}

// Core owns the registry of one-shot notification timers, at most one per
// key. All registry mutation happens under mu; delivery does not.
type Core struct {
	mu     sync.Mutex
	timers map[string]*entry
	gen    uint64

	clock    clock.Clock
	notifier Notifier
	logger   *slog.Logger
}

func NewCore(c clock.Clock, notifier Notifier, logger *slog.Logger) *Core {
	return &Core{
		timers:   make(map[string]*entry),
		clock:    c,
		notifier: notifier,
		logger:   logger.With("component", "scheduler"),
	}
}

// Rebuild replaces every armed timer, detached ones excepted, with timers
// derived from snapshot. An entity is armed only if spawn-lead is strictly
// after now. When a name appears more than once the last occurrence wins.
func (c *Core) Rebuild(snapshot []domain.Entity, lead time.Duration, now time.Time) RebuildResult {
	c.mu.Lock()
	defer c.mu.Unlock()

	cancelled := c.cancelLocked(false)

	last := make(map[string]int, len(snapshot))
	for i, e := range snapshot {
		last[e.Name] = i
	}

	res := RebuildResult{Total: len(snapshot)}
	for i, e := range snapshot {
		if last[e.Name] != i {
			res.Duplicates++
			c.logger.Warn("duplicate entity in snapshot, later row wins", "name", e.Name)
			continue
		}
		n := Notice{Name: e.Name, Location: e.Location, SpawnAt: e.NextSpawnAt}
		c.removeLocked(n.key())
		if _, ok := c.installLocked(n, lead, now); ok {
			res.Installed++
		} else {
			res.Skipped++
		}
	}

	metrics.PendingTimers.Set(float64(len(c.timers)))
	c.logger.Info("schedule rebuilt",
		"cancelled", cancelled,
		"installed", res.Installed,
		"skipped", res.Skipped,
		"duplicates", res.Duplicates,
		"total", res.Total,
		"lead", lead,
	)
	return res
}

// ScheduleSingle arms one timer for n, replacing any timer already held under
// n's key. It reports false and arms nothing when the fire time is not in the future.
func (c *Core) ScheduleSingle(n Notice, now time.Time, lead time.Duration) (PendingTimer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.removeLocked(n.key())
	pt, ok := c.installLocked(n, lead, now)
	metrics.PendingTimers.Set(float64(len(c.timers)))
	return pt, ok
}

// CancelAll stops every armed timer and empties the registry. It returns the
// number of timers cancelled.
func (c *Core) CancelAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.cancelLocked(true)
	metrics.PendingTimers.Set(0)
	return n
}

// Pending lists armed timers ordered by fire time.
func (c *Core) Pending() []PendingTimer {
	c.mu.Lock()
	out := make([]PendingTimer, 0, len(c.timers))
	for _, e := range c.timers {
		out = append(out, pendingOf(e))
	}
	c.mu.Unlock()

	sortPending(out)
	return out
}

func (c *Core) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Plan reports the timers Rebuild would arm for snapshot at now, ordered
// like Pending, without touching any registry.
func Plan(snapshot []domain.Entity, lead time.Duration, now time.Time) ([]PendingTimer, RebuildResult) {
	last := make(map[string]int, len(snapshot))
	for i, e := range snapshot {
		last[e.Name] = i
	}

	res := RebuildResult{Total: len(snapshot)}
	out := make([]PendingTimer, 0, len(last))
	for i, e := range snapshot {
		if last[e.Name] != i {
			res.Duplicates++
			continue
		}
		fireAt := e.NextSpawnAt.Add(-lead)
		if !fireAt.After(now) {
			res.Skipped++
			continue
		}
		res.Installed++
		out = append(out, PendingTimer{
			Key:      e.Name,
			Name:     e.Name,
			Location: e.Location,
			SpawnAt:  e.NextSpawnAt,
			FireAt:   fireAt,
		})
	}
	sortPending(out)
	return out, res
}

func sortPending(p []PendingTimer) {
	sort.Slice(p, func(i, j int) bool {
		if p[i].FireAt.Equal(p[j].FireAt) {
			return p[i].Key < p[j].Key
		}
		return p[i].FireAt.Before(p[j].FireAt)
	})
}

func (c *Core) cancelLocked(detached bool) int {
	n := 0
	for key, e := range c.timers {
		if e.notice.Detached && !detached {
			continue
		}
		e.timer.Stop()
		delete(c.timers, key)
		n++
	}
	return n
}

func (c *Core) removeLocked(key string) {
	if e, ok := c.timers[key]; ok {
		e.timer.Stop()
		delete(c.timers, key)
		c.logger.Debug("replaced existing timer", "key", key, "fire_at", e.fireAt)
	}
}

func (c *Core) installLocked(n Notice, lead time.Duration, now time.Time) (PendingTimer, bool) {
	fireAt := n.SpawnAt.Add(-lead)
	if !fireAt.After(now) {
		metrics.TimersSkippedTotal.Inc()
		c.logger.Info("skipped, fire time already passed",
			"name", n.Name,
			"spawn_at", n.SpawnAt,
			"fire_at", fireAt,
		)
		return PendingTimer{}, false
	}

	c.gen++
	gen := c.gen
	name := n.key()
	e := &entry{notice: n, fireAt: fireAt, gen: gen}
	e.timer = c.clock.AfterFunc(fireAt.Sub(now), func() { c.fire(name, gen) })
	c.timers[name] = e

	metrics.TimersInstalledTotal.Inc()
	c.logger.Debug("timer armed", "name", name, "spawn_at", n.SpawnAt, "fire_at", fireAt)
	return pendingOf(e), true
}

// fire removes the entry and then delivers outside the lock. A callback whose
// entry was cancelled or replaced after the runtime started it is a no-op.
func (c *Core) fire(name string, gen uint64) {
	c.mu.Lock()
	e, ok := c.timers[name]
	if !ok || e.gen != gen {
		c.mu.Unlock()
		return
	}
	delete(c.timers, name)
	metrics.PendingTimers.Set(float64(len(c.timers)))
	c.mu.Unlock()

	metrics.TimersFiredTotal.Inc()
	c.logger.Info("timer fired", "name", name, "spawn_at", e.notice.SpawnAt)

	if err := c.notifier.Notify(context.Background(), e.notice); err != nil {
		c.logger.Error("notification failed, not retrying", "name", name, "error", err)
		return
	}
	c.logger.Info("notification delivered", "name", name)
}

func pendingOf(e *entry) PendingTimer {
	return PendingTimer{
		Key:      e.notice.key(),
		Name:     e.notice.Name,
		Location: e.notice.Location,
		SpawnAt:  e.notice.SpawnAt,
		FireAt:   e.fireAt,
	}
}
