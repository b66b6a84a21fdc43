// Package completion records that a user has satisfied a feature's
// daily "done" condition, gating repeat access until the next day. It
// shares the quota package's lazy rollover: a DONE flag from a previous
// day reads as NONE.
package completion

import (
	"context"
	"errors"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/notify"
	"github.com/lingora/lingora/internal/storage"
	"github.com/rs/zerolog"
)

// Service reads and mutates daily completion flags.
type Service struct {
	flags    storage.FlagStore
	days     *clock.DayKeeper
	notifier notify.Notifier
	logger   zerolog.Logger
}

// NewService creates a completion service. The notifier may be nil.
func NewService(flags storage.FlagStore, days *clock.DayKeeper, notifier notify.Notifier, logger zerolog.Logger) *Service {
	return &Service{
		flags:    flags,
		days:     days,
		notifier: notifier,
		logger:   logger.With().Str("component", "completion").Logger(),
	}
}

// GetStatus returns the completion status for today. A DONE flag stored
// under a previous day is reported as NONE; storage problems fail open
// to NONE.
func (s *Service) GetStatus(ctx context.Context, userKey, featureKey string) storage.FlagStatus {
	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}

	flag, err := s.flags.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Warn().Err(err).Stringer("key", key).Msg("Flag read failed, treating as not completed")
		}
		return storage.StatusNone
	}

	if flag.Day != s.days.TodayKey().String() {
		return storage.StatusNone
	}
	return flag.Status
}

// MarkDone records completion for today. Calling it again in the same
// day has no additional effect.
func (s *Service) MarkDone(ctx context.Context, userKey, featureKey string) error {
	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}
	today := s.days.TodayKey().String()

	if s.GetStatus(ctx, userKey, featureKey) == storage.StatusDone {
		return nil
	}

	flag := storage.CompletionFlag{
		UserKey:    userKey,
		FeatureKey: featureKey,
		Day:        today,
		Status:     storage.StatusDone,
	}
	if err := s.flags.Put(ctx, flag); err != nil {
		s.logger.Warn().Err(err).Stringer("key", key).Msg("Completion flag not persisted")
		return err
	}

	metrics.CompletionsMarked.WithLabelValues(featureKey).Inc()
	s.publish(ctx, notify.Change{Kind: notify.KindFlag, UserKey: userKey, FeatureKey: featureKey, Day: today})

	s.logger.Info().
		Stringer("key", key).
		Str("day", today).
		Msg("Feature completed for the day")

	return nil
}

// Clear removes the persisted flag so in-memory views can reset without
// waiting for the next read. Missing flags are fine.
func (s *Service) Clear(ctx context.Context, userKey, featureKey string) error {
	key := storage.Key{UserKey: userKey, FeatureKey: featureKey}

	if err := s.flags.Delete(ctx, key); err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	s.publish(ctx, notify.Change{
		Kind:       notify.KindFlag,
		UserKey:    userKey,
		FeatureKey: featureKey,
		Day:        s.days.TodayKey().String(),
	})
	return nil
}

func (s *Service) publish(ctx context.Context, change notify.Change) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Publish(ctx, change); err != nil {
		s.logger.Warn().Err(err).Msg("Change notification not delivered")
	}
}
