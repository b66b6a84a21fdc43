package bolt

import (
	"context"
	"fmt"

	"github.com/lingora/lingora/internal/storage"
	"go.etcd.io/bbolt"
)

type counterStore struct {
	db *bbolt.DB
}

func (s *counterStore) Get(ctx context.Context, key storage.Key) (*storage.UsageCounter, error) {
	return getBucketValue[storage.UsageCounter](ctx, s.db, bucketCounters, key.Encode())
}

func (s *counterStore) Put(ctx context.Context, counter storage.UsageCounter) error {
	return putBucketValue(ctx, s.db, bucketCounters, counter.Key().Encode(), counter)
}

func (s *counterStore) Increment(ctx context.Context, key storage.Key, day string) (int64, error) {
	var count int64
	err := s.db.Update(func(tx *bbolt.Tx) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		b := tx.Bucket([]byte(bucketCounters))
		if b == nil {
			return fmt.Errorf("counter bucket missing")
		}

		counter := storage.UsageCounter{
			UserKey:    key.UserKey,
			FeatureKey: key.FeatureKey,
			Day:        day,
		}
		if existing := b.Get([]byte(key.Encode())); existing != nil {
			var stored storage.UsageCounter
			// A value that fails to decode is treated as absent.
			if err := unmarshal(existing, &stored); err == nil && stored.Day == day {
				counter.Count = stored.Count
			}
		}
		counter.Count++
		count = counter.Count

		data, err := marshal(counter)
		if err != nil {
			return err
		}
		return b.Put([]byte(key.Encode()), data)
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *counterStore) Delete(ctx context.Context, key storage.Key) error {
	return deleteBucketValue(ctx, s.db, bucketCounters, key.Encode())
}

func (s *counterStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return deleteDaysBefore(ctx, s.db, bucketCounters, cutoffDay, func(c storage.UsageCounter) string {
		return c.Day
	})
}
