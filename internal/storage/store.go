package storage

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a record is missing from storage.
var ErrNotFound = errors.New("storage: record not found")

// Store represents the root storage interface.
type Store interface {
	Close() error
	Counters() CounterStore
	Flags() FlagStore
	Timers() TimerStore
}

// CounterStore persists per-user per-feature daily usage counters.
//
// Increment performs the daily rollover and the increment as one atomic
// operation against the backend: if the stored day differs from the
// given day the counter restarts at 1 for that day, otherwise it is
// incremented. It returns the new count.
type CounterStore interface {
	Get(ctx context.Context, key Key) (*UsageCounter, error)
	Put(ctx context.Context, counter UsageCounter) error
	Increment(ctx context.Context, key Key, day string) (int64, error)
	Delete(ctx context.Context, key Key) error
	DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error)
}

// FlagStore persists per-user per-feature daily completion flags.
type FlagStore interface {
	Get(ctx context.Context, key Key) (*CompletionFlag, error)
	Put(ctx context.Context, flag CompletionFlag) error
	Delete(ctx context.Context, key Key) error
	DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error)
}

// TimerStore persists per-user per-feature countdown state.
type TimerStore interface {
	Get(ctx context.Context, key Key) (*TimerState, error)
	Put(ctx context.Context, state TimerState) error
	Delete(ctx context.Context, key Key) error
	DeleteDaysBefore(ctx context.Context, cutoffDay string) (int, error)
}
