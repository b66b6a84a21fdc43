package bolt

import (
	"context"

	"github.com/lingora/lingora/internal/storage"
	"go.etcd.io/bbolt"
)

type timerStore struct {
	db *bbolt.DB
}

func (s *timerStore) Get(ctx context.Context, key storage.Key) (*storage.TimerState, error) {
	return getBucketValue[storage.TimerState](ctx, s.db, bucketTimers, key.Encode())
}

func (s *timerStore) Put(ctx context.Context, state storage.TimerState) error {
	return putBucketValue(ctx, s.db, bucketTimers, state.Key().Encode(), state)
}

func (s *timerStore) Delete(ctx context.Context, key storage.Key) error {
	return deleteBucketValue(ctx, s.db, bucketTimers, key.Encode())
}

func (s *timerStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return deleteDaysBefore(ctx, s.db, bucketTimers, cutoffDay, func(t storage.TimerState) string {
		return t.Day
	})
}
