package redis

import (
	"context"

	"github.com/lingora/lingora/internal/storage"
	"github.com/redis/go-redis/v9"
)

type counterStore struct {
	client *redis.Client
}

// Get retrieves a counter by key
func (s *counterStore) Get(ctx context.Context, key storage.Key) (*storage.UsageCounter, error) {
	data, err := s.client.HGetAll(ctx, counterKey(key)).Result()
	if err != nil {
		return nil, err
	}
	return parseUsageCounter(data)
}

// Put stores a counter, replacing any previous record
func (s *counterStore) Put(ctx context.Context, counter storage.UsageCounter) error {
	key := counterKey(counter.Key())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"user_key", counter.UserKey,
		"feature_key", counter.FeatureKey,
		"day", counter.Day,
		"count", counter.Count,
	)
	pipe.Expire(ctx, key, recordTTL())
	_, err := pipe.Exec(ctx)
	return err
}

// Increment atomically rolls the counter over to day and increments it
func (s *counterStore) Increment(ctx context.Context, key storage.Key, day string) (int64, error) {
	script := redis.NewScript(incrementCounterScript)

	keys := []string{counterKey(key)}
	args := []interface{}{key.UserKey, key.FeatureKey, day, recordTTLSeconds}

	count, err := script.Run(ctx, s.client, keys, args...).Int64()
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Delete removes a counter
func (s *counterStore) Delete(ctx context.Context, key storage.Key) error {
	deleted, err := s.client.Del(ctx, counterKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDaysBefore scans counters and removes records older than the
// cutoff day. TTL already bounds stale records; this is for eager
// cleanup at the daily rollover.
func (s *counterStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return scanDeleteDaysBefore(ctx, s.client, "lingora:counter:*", cutoffDay)
}
