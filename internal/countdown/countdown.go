// Package countdown drives per-user session windows, e.g. a ten-minute
// reading timer. Remaining time is persisted every tick so a window
// survives reconnects within the same day, and reinitializes when the
// day rolls over.
//
// The timer counts active time only: callers tick it while their view
// is visible, and time elapsed while not ticking is never back-filled.
// It is a soft usage nudge, not a deadline enforcement mechanism.
package countdown

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/storage"
	"github.com/rs/zerolog"
)

// ExpireFunc is called once per window when its remaining time first
// reaches zero. Implementations must be fast; the call is made with the
// timer lock held.
type ExpireFunc func(userKey, featureKey string)

// Timer manages countdown windows.
type Timer struct {
	store    storage.TimerStore
	days     *clock.DayKeeper
	onExpire ExpireFunc
	logger   zerolog.Logger

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	userKey     string
	featureKey  string
	day         string
	remaining   int
	duration    int
	expireFired bool
}

// New creates a countdown timer.
func New(store storage.TimerStore, days *clock.DayKeeper, logger zerolog.Logger) *Timer {
	return &Timer{
		store:   store,
		days:    days,
		logger:  logger.With().Str("component", "countdown").Logger(),
		windows: make(map[string]*window),
	}
}

// OnExpire registers the one-time expiry callback.
func (t *Timer) OnExpire(fn ExpireFunc) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onExpire = fn
}

// Start opens (or resumes) the window for the user/feature pair and
// returns the initial remaining seconds. Same-day persisted state is
// resumed; anything else reinitializes to durationSeconds.
func (t *Timer) Start(ctx context.Context, userKey, featureKey string, durationSeconds int) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}
	today := t.days.TodayKey().String()

	remaining := durationSeconds
	if stored, err := t.store.Get(ctx, key); err == nil && stored.Day == today {
		remaining = stored.TimeLeft
	} else if err != nil && !errors.Is(err, storage.ErrNotFound) {
		t.logger.Warn().Err(err).Stringer("key", key).Msg("Timer read failed, starting fresh window")
	}

	w := &window{
		userKey:    userKey,
		featureKey: featureKey,
		day:        today,
		remaining:  remaining,
		duration:   durationSeconds,
		// A window resumed at zero already expired; do not re-signal.
		expireFired: remaining == 0,
	}
	t.windows[key.Encode()] = w
	t.persist(ctx, w)

	t.logger.Debug().
		Stringer("key", key).
		Int("remaining", remaining).
		Msg("Countdown window started")

	return remaining
}

// Tick decrements the window by one second, floored at zero, persists
// the new value and returns it. Callers invoke it at most once per
// elapsed second while their view is active. If the day rolled over
// since the last tick the window reinitializes to its full duration
// first.
func (t *Timer) Tick(ctx context.Context, userKey, featureKey string) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}
	w, ok := t.windows[key.Encode()]
	if !ok {
		return 0, fmt.Errorf("countdown: no window for %s", key)
	}

	today := t.days.TodayKey().String()
	if w.day != today {
		w.day = today
		w.remaining = w.duration
		w.expireFired = false
	}

	if w.remaining > 0 {
		w.remaining--
	}
	t.persist(ctx, w)

	if w.remaining == 0 && !w.expireFired {
		w.expireFired = true
		metrics.TimersExpired.WithLabelValues(featureKey).Inc()
		t.logger.Info().Stringer("key", key).Msg("Countdown window expired")
		if t.onExpire != nil {
			t.onExpire(userKey, featureKey)
		}
	}

	return w.remaining, nil
}

// Remaining returns the current remaining seconds without ticking.
func (t *Timer) Remaining(userKey, featureKey string) (int, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	w, ok := t.windows[storage.Key{UserKey: userKey, FeatureKey: featureKey}.Encode()]
	if !ok {
		return 0, false
	}
	return w.remaining, true
}

// Stop drops the in-memory window when the owning view goes away. The
// persisted state stays, so a Start later the same day resumes it.
func (t *Timer) Stop(userKey, featureKey string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.windows, storage.Key{UserKey: userKey, FeatureKey: featureKey}.Encode())
}

func (t *Timer) persist(ctx context.Context, w *window) {
	state := storage.TimerState{
		UserKey:    w.userKey,
		FeatureKey: w.featureKey,
		Day:        w.day,
		TimeLeft:   w.remaining,
		Duration:   w.duration,
	}
	if err := t.store.Put(ctx, state); err != nil {
		t.logger.Warn().Err(err).Str("user", w.userKey).Str("feature", w.featureKey).Msg("Timer state not persisted")
	}
}
