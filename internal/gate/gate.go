// Package gate decides whether a user may consume a daily-limited
// feature. A single check combines the completion flag and the usage
// counter so callers get one answer and the counter moves at most once.
package gate

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/lingora/lingora/internal/clock"
	"github.com/lingora/lingora/internal/completion"
	"github.com/lingora/lingora/internal/metrics"
	"github.com/lingora/lingora/internal/notify"
	"github.com/lingora/lingora/internal/quota"
	"github.com/lingora/lingora/internal/storage"
)

// Decision is the outcome of a gate check.
type Decision string

const (
	// Allowed means the feature may be used; the quota was consumed.
	Allowed Decision = "allowed"
	// DeniedCompleted means today's work for the feature is already done.
	DeniedCompleted Decision = "denied_completed"
	// DeniedQuota means the daily usage limit is reached.
	DeniedQuota Decision = "denied_quota"
)

// Consumed reports whether the decision consumed a quota unit.
func (d Decision) Consumed() bool { return d == Allowed }

// Gate arbitrates access to daily-limited features.
type Gate struct {
	quota      *quota.Service
	completion *completion.Service
	days       *clock.DayKeeper
	notifier   notify.Notifier
	logger     zerolog.Logger

	mu sync.Mutex
}

// New creates a Gate over the given quota and completion services. The
// notifier may be nil when change fan-out is not wanted.
func New(q *quota.Service, c *completion.Service, days *clock.DayKeeper, notifier notify.Notifier, logger zerolog.Logger) *Gate {
	return &Gate{
		quota:      q,
		completion: c,
		days:       days,
		notifier:   notifier,
		logger:     logger.With().Str("component", "gate").Logger(),
	}
}

// Check reports what a CheckAndConsume call would decide without
// consuming anything. The completion flag wins over the quota when both
// would deny.
func (g *Gate) Check(ctx context.Context, userKey, featureKey string, max int64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.evaluate(ctx, userKey, featureKey, max)
}

// CheckAndConsume evaluates the completion flag first, then the usage
// counter, and consumes one quota unit only when both allow it. It
// never fails for normal exhaustion; storage trouble is treated as
// allowed so the feature stays usable.
func (g *Gate) CheckAndConsume(ctx context.Context, userKey, featureKey string, max int64) Decision {
	g.mu.Lock()
	defer g.mu.Unlock()

	decision := g.evaluate(ctx, userKey, featureKey, max)
	if decision != Allowed {
		g.record(userKey, featureKey, decision)
		return decision
	}

	count := g.quota.Increment(ctx, userKey, featureKey)
	g.record(userKey, featureKey, decision)
	g.logger.Debug().
		Str("user", userKey).
		Str("feature", featureKey).
		Int64("count", count).
		Int64("max", max).
		Msg("Quota unit consumed")

	if g.notifier != nil {
		change := notify.Change{
			Kind:       notify.KindCounter,
			UserKey:    userKey,
			FeatureKey: featureKey,
			Day:        g.days.TodayKey().String(),
		}
		if err := g.notifier.Publish(ctx, change); err != nil {
			g.logger.Warn().Err(err).Msg("Failed to publish counter change")
		}
	}
	return Allowed
}

// Remaining returns how many quota units are left today, floored at
// zero. A set completion flag means zero regardless of the counter.
func (g *Gate) Remaining(ctx context.Context, userKey, featureKey string, max int64) int64 {
	if g.completion.GetStatus(ctx, userKey, featureKey) == storage.StatusDone {
		return 0
	}
	left := max - g.quota.GetCount(ctx, userKey, featureKey)
	if left < 0 {
		return 0
	}
	return left
}

func (g *Gate) evaluate(ctx context.Context, userKey, featureKey string, max int64) Decision {
	if g.completion.GetStatus(ctx, userKey, featureKey) == storage.StatusDone {
		return DeniedCompleted
	}
	if g.quota.IsExceeded(ctx, userKey, featureKey, max) {
		return DeniedQuota
	}
	return Allowed
}

func (g *Gate) record(userKey, featureKey string, decision Decision) {
	metrics.GateDecisions.WithLabelValues(featureKey, string(decision)).Inc()
	if decision != Allowed {
		g.logger.Info().
			Str("user", userKey).
			Str("feature", featureKey).
			Str("decision", string(decision)).
			Msg("Feature access denied")
	}
}
