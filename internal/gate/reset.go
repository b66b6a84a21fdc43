package gate

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/notify"
	"github.com/lingora/lingora/internal/storage"
)

// RolloverScheduler wakes at each daily reset boundary, publishes a
// rollover notification so connected clients refresh, and prunes
// records older than the retention window. Correctness does not depend
// on it: stale records reset lazily on next access.
type RolloverScheduler struct {
	store         storage.Store
	days          *clock.DayKeeper
	notifier      notify.Notifier
	retentionDays int
	logger        zerolog.Logger
	stopChan      chan struct{}
}

// NewRolloverScheduler creates a scheduler over the given store. A
// retentionDays of zero or less disables pruning.
func NewRolloverScheduler(store storage.Store, days *clock.DayKeeper, notifier notify.Notifier, retentionDays int, logger zerolog.Logger) *RolloverScheduler {
	return &RolloverScheduler{
		store:         store,
		days:          days,
		notifier:      notifier,
		retentionDays: retentionDays,
		logger:        logger.With().Str("component", "rollover-scheduler").Logger(),
		stopChan:      make(chan struct{}),
	}
}

// Start begins the scheduler loop.
func (rs *RolloverScheduler) Start() {
	go rs.run()
	rs.logger.Info().
		Time("next_rollover", rs.days.NextRollover()).
		Msg("Daily rollover scheduler started")
}

// Stop stops the scheduler loop.
func (rs *RolloverScheduler) Stop() {
	close(rs.stopChan)
	rs.logger.Info().Msg("Daily rollover scheduler stopped")
}

func (rs *RolloverScheduler) run() {
	for {
		next := rs.days.NextRollover()
		wait := time.Until(next)

		rs.logger.Info().
			Time("next_rollover", next).
			Dur("wait_duration", wait).
			Msg("Scheduled next daily rollover")

		select {
		case <-time.After(wait):
			rs.performRollover()
		case <-rs.stopChan:
			return
		}
	}
}

// performRollover announces the new day and prunes expired records.
func (rs *RolloverScheduler) performRollover() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	day := rs.days.TodayKey().String()
	rs.logger.Info().Str("day", day).Msg("Daily rollover")

	if rs.notifier != nil {
		change := notify.Change{Kind: notify.KindRollover, Day: day}
		if err := rs.notifier.Publish(ctx, change); err != nil {
			rs.logger.Warn().Err(err).Msg("Failed to publish rollover notification")
		}
	}

	if rs.retentionDays <= 0 {
		return
	}
	cutoff := time.Now().AddDate(0, 0, -rs.retentionDays).Format("2006-01-02")
	rs.prune(ctx, "counter", cutoff, rs.store.Counters().DeleteDaysBefore)
	rs.prune(ctx, "flag", cutoff, rs.store.Flags().DeleteDaysBefore)
	rs.prune(ctx, "timer", cutoff, rs.store.Timers().DeleteDaysBefore)
}

func (rs *RolloverScheduler) prune(ctx context.Context, kind, cutoff string, del func(context.Context, string) (int, error)) {
	deleted, err := del(ctx, cutoff)
	if err != nil {
		rs.logger.Error().Err(err).Str("kind", kind).Msg("Failed to prune old records")
		return
	}
	if deleted > 0 {
		metrics.RecordsPruned.WithLabelValues(kind).Add(float64(deleted))
		rs.logger.Info().
			Int("deleted", deleted).
			Str("kind", kind).
			Str("cutoff_day", cutoff).
			Msg("Pruned old records")
	}
}
