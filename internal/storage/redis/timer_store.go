package redis

import (
	"context"

	"github.com/lingora/lingora/internal/storage"
	"github.com/redis/go-redis/v9"
)

type timerStore struct {
	client *redis.Client
}

// Get retrieves countdown state by key
func (s *timerStore) Get(ctx context.Context, key storage.Key) (*storage.TimerState, error) {
	data, err := s.client.HGetAll(ctx, timerKey(key)).Result()
	if err != nil {
		return nil, err
	}
	return parseTimerState(data)
}

// Put stores countdown state
func (s *timerStore) Put(ctx context.Context, state storage.TimerState) error {
	key := timerKey(state.Key())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"user_key", state.UserKey,
		"feature_key", state.FeatureKey,
		"day", state.Day,
		"time_left", state.TimeLeft,
		"duration", state.Duration,
	)
	pipe.Expire(ctx, key, recordTTL())
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes countdown state
func (s *timerStore) Delete(ctx context.Context, key storage.Key) error {
	deleted, err := s.client.Del(ctx, timerKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDaysBefore removes timer state older than the cutoff day
func (s *timerStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return scanDeleteDaysBefore(ctx, s.client, "lingora:timer:*", cutoffDay)
}
