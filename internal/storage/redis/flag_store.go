package redis

import (
	"context"

	"github.com/lingora/lingora/internal/storage"
	"github.com/redis/go-redis/v9"
)

type flagStore struct {
	client *redis.Client
}

// Get retrieves a completion flag by key
func (s *flagStore) Get(ctx context.Context, key storage.Key) (*storage.CompletionFlag, error) {
	data, err := s.client.HGetAll(ctx, flagKey(key)).Result()
	if err != nil {
		return nil, err
	}
	return parseCompletionFlag(data)
}

// Put stores a completion flag
func (s *flagStore) Put(ctx context.Context, flag storage.CompletionFlag) error {
	key := flagKey(flag.Key())
	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key,
		"user_key", flag.UserKey,
		"feature_key", flag.FeatureKey,
		"day", flag.Day,
		"status", string(flag.Status),
	)
	pipe.Expire(ctx, key, recordTTL())
	_, err := pipe.Exec(ctx)
	return err
}

// Delete removes a completion flag
func (s *flagStore) Delete(ctx context.Context, key storage.Key) error {
	deleted, err := s.client.Del(ctx, flagKey(key)).Result()
	if err != nil {
		return err
	}
	if deleted == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteDaysBefore removes flags older than the cutoff day
func (s *flagStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return scanDeleteDaysBefore(ctx, s.client, "lingora:flag:*", cutoffDay)
}
