package bolt

import (
	"context"

	"github.com/lingora/lingora/internal/storage"
	"go.etcd.io/bbolt"
)

type flagStore struct {
	db *bbolt.DB
}

func (s *flagStore) Get(ctx context.Context, key storage.Key) (*storage.CompletionFlag, error) {
	return getBucketValue[storage.CompletionFlag](ctx, s.db, bucketFlags, key.Encode())
}

func (s *flagStore) Put(ctx context.Context, flag storage.CompletionFlag) error {
	return putBucketValue(ctx, s.db, bucketFlags, flag.Key().Encode(), flag)
}

func (s *flagStore) Delete(ctx context.Context, key storage.Key) error {
	return deleteBucketValue(ctx, s.db, bucketFlags, key.Encode())
}

func (s *flagStore) DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error) {
	return deleteDaysBefore(ctx, s.db, bucketFlags, cutoffDay, func(f storage.CompletionFlag) string {
		return f.Day
	})
}
