package memory

import (
	"context"
	"sync"

	"github.com/lingora/lingora/internal/storage"
)

// Store is an in-process storage.Store. It backs tests and serves as
// the fail-open fallback when the configured backend cannot be opened:
// state does not survive a restart, matching the best-effort contract.
type Store struct {
	mu       sync.RWMutex
	counters map[string]storage.UsageCounter
	flags    map[string]storage.CompletionFlag
	timers   map[string]storage.TimerState
}

// Open creates an empty in-memory store.
func Open() *Store {
	return &Store{
		counters: make(map[string]storage.UsageCounter),
		flags:    make(map[string]storage.CompletionFlag),
		timers:   make(map[string]storage.TimerState),
	}
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error { return nil }

// Counters returns the usage counter store.
func (s *Store) Counters() storage.CounterStore { return &counterStore{s} }

// Flags returns the completion flag store.
func (s *Store) Flags() storage.FlagStore { return &flagStore{s} }

// Timers returns the countdown timer store.
func (s *Store) Timers() storage.TimerStore { return &timerStore{s} }

type counterStore struct{ s *Store }

func (c *counterStore) Get(_ context.Context, key storage.Key) (*storage.UsageCounter, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	counter, ok := c.s.counters[key.Encode()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &counter, nil
}

func (c *counterStore) Put(_ context.Context, counter storage.UsageCounter) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	c.s.counters[counter.Key().Encode()] = counter
	return nil
}

func (c *counterStore) Increment(_ context.Context, key storage.Key, day string) (int64, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	counter, ok := c.s.counters[key.Encode()]
	if !ok || counter.Day != day {
		counter = storage.UsageCounter{
			UserKey:    key.UserKey,
			FeatureKey: key.FeatureKey,
			Day:        day,
		}
	}
	counter.Count++
	c.s.counters[key.Encode()] = counter
	return counter.Count, nil
}

func (c *counterStore) Delete(_ context.Context, key storage.Key) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if _, ok := c.s.counters[key.Encode()]; !ok {
		return storage.ErrNotFound
	}
	delete(c.s.counters, key.Encode())
	return nil
}

func (c *counterStore) DeleteDaysBefore(_ context.Context, cutoffDay string) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	deleted := 0
	for k, counter := range c.s.counters {
		if counter.Day < cutoffDay {
			delete(c.s.counters, k)
			deleted++
		}
	}
	return deleted, nil
}

type flagStore struct{ s *Store }

func (f *flagStore) Get(_ context.Context, key storage.Key) (*storage.CompletionFlag, error) {
	f.s.mu.RLock()
	defer f.s.mu.RUnlock()
	flag, ok := f.s.flags[key.Encode()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &flag, nil
}

func (f *flagStore) Put(_ context.Context, flag storage.CompletionFlag) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	f.s.flags[flag.Key().Encode()] = flag
	return nil
}

func (f *flagStore) Delete(_ context.Context, key storage.Key) error {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	if _, ok := f.s.flags[key.Encode()]; !ok {
		return storage.ErrNotFound
	}
	delete(f.s.flags, key.Encode())
	return nil
}

func (f *flagStore) DeleteDaysBefore(_ context.Context, cutoffDay string) (int, error) {
	f.s.mu.Lock()
	defer f.s.mu.Unlock()
	deleted := 0
	for k, flag := range f.s.flags {
		if flag.Day < cutoffDay {
			delete(f.s.flags, k)
			deleted++
		}
	}
	return deleted, nil
}

type timerStore struct{ s *Store }

func (t *timerStore) Get(_ context.Context, key storage.Key) (*storage.TimerState, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	state, ok := t.s.timers[key.Encode()]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return &state, nil
}

func (t *timerStore) Put(_ context.Context, state storage.TimerState) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	t.s.timers[state.Key().Encode()] = state
	return nil
}

func (t *timerStore) Delete(_ context.Context, key storage.Key) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.timers[key.Encode()]; !ok {
		return storage.ErrNotFound
	}
	delete(t.s.timers, key.Encode())
	return nil
}

func (t *timerStore) DeleteDaysBefore(_ context.Context, cutoffDay string) (int, error) {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	deleted := 0
	for k, state := range t.s.timers {
		if state.Day < cutoffDay {
			delete(t.s.timers, k)
			deleted++
		}
	}
	return deleted, nil
}
