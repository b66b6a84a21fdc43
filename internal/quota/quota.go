// Package quota tracks how many times a rate-limited action has been
// performed today, per user and per feature. Rollover is lazy: a
// counter stored under a previous day reads as zero and is reset on the
// next access, with no background sweep required for correctness.
package quota

import (
	"context"
	"errors"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/storage"
	"github.com/rs/zerolog"
)

// Service reads and mutates daily usage counters.
//
// All operations fail open: a missing, corrupted or unreachable record
// is treated as "never used today". Exhaustion is a decision for the
// caller, never an error from this package.
type Service struct {
	counters storage.CounterStore
	days     *clock.DayKeeper
	logger   zerolog.Logger
}

// NewService creates a quota service.
func NewService(counters storage.CounterStore, days *clock.DayKeeper, logger zerolog.Logger) *Service {
	return &Service{
		counters: counters,
		days:     days,
		logger:   logger.With().Str("component", "quota").Logger(),
	}
}

// GetCount returns today's usage count for the user/feature pair. A
// record stored under a previous day counts as zero and is reset in
// storage as a side effect, so later readers see a current record.
func (s *Service) GetCount(ctx context.Context, userKey, featureKey string) int64 {
	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}
	today := s.days.TodayKey().String()

	counter, err := s.counters.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Stringer("key", key).Msg("Counter read failed, treating as unused")
		}
		return 0
	}

	if counter.Day != today {
		// Lazy rollover: persist the reset so the stale record does
		// not linger. Failure to persist is tolerable; the next
		// Increment rolls over atomically anyway.
		reset := storage.UsageCounter{UserKey: userKey, FeatureKey: featureKey, Day: today}
		if err := s.counters.Put(ctx, reset); err != nil {
			s.logger.Warn().Err(err).Stringer("key", key).Msg("Failed to persist counter rollover")
		}
		s.logger.Debug().
			Stringer("key", key).
			Str("stale_day", counter.Day).
			Str("today", today).
			Msg("Counter rolled over")
		return 0
	}

	return counter.Count
}

// Increment records one chargeable action and returns the new count.
// The rollover check and the increment are one atomic backend
// operation. If the backend is unavailable the increment is still
// reflected in the returned count, it just may not survive a restart.
func (s *Service) Increment(ctx context.Context, userKey, featureKey string) int64 {
	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}
	today := s.days.TodayKey().String()

	count, err := s.counters.Increment(ctx, key, today)
	if err != nil {
		s.logger.Warn().Err(err).Stringer("key", key).Msg("Counter increment not persisted")
		return s.GetCount(ctx, userKey, featureKey) + 1
	}

	metrics.QuotaIncrements.WithLabelValues(featureKey).Inc()

	s.logger.Debug().
		Stringer("key", key).
		Str("day", today).
		Int64("count", count).
		Msg("Recorded chargeable action")

	return count
}

// IsExceeded reports whether today's count has reached max.
func (s *Service) IsExceeded(ctx context.Context, userKey, featureKey string, max int64) bool {
	return s.GetCount(ctx, userKey, featureKey) >= max
}
