package bolt

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/lingora/lingora/internal/storage"
)

func TestCounterStoreIncrementRollover(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	counters := store.Counters()
	key := storage.Key{UserKey: "user-a", FeatureKey: "definition-lookup"}

	for i := int64(1); i <= 3; i++ {
		count, err := counters.Increment(context.Background(), key, "2024-01-01")
		if err != nil {
			t.Fatalf("increment: %v", err)
		}
		if count != i {
			t.Fatalf("expected count %d, got %d", i, count)
		}
	}

	// A new day restarts the counter at 1.
	count, err := counters.Increment(context.Background(), key, "2024-01-02")
	if err != nil {
		t.Fatalf("increment after rollover: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected count 1 after rollover, got %d", count)
	}

	stored, err := counters.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get counter: %v", err)
	}
	if stored.Day != "2024-01-02" || stored.Count != 1 {
		t.Fatalf("unexpected stored counter: %+v", stored)
	}
}

func TestCounterStoreGetMissing(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	_, err := store.Counters().Get(context.Background(), storage.Key{UserKey: "nobody", FeatureKey: "definition-lookup"})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFlagStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	flags := store.Flags()
	flag := storage.CompletionFlag{
		UserKey:    "user-a",
		FeatureKey: "writing-review",
		Day:        "2024-01-01",
		Status:     storage.StatusDone,
	}

	if err := flags.Put(context.Background(), flag); err != nil {
		t.Fatalf("put flag: %v", err)
	}

	stored, err := flags.Get(context.Background(), flag.Key())
	if err != nil {
		t.Fatalf("get flag: %v", err)
	}
	if stored.Status != storage.StatusDone {
		t.Fatalf("expected DONE, got %s", stored.Status)
	}

	if err := flags.Delete(context.Background(), flag.Key()); err != nil {
		t.Fatalf("delete flag: %v", err)
	}
	if _, err := flags.Get(context.Background(), flag.Key()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTimerStoreRoundTrip(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	timers := store.Timers()
	state := storage.TimerState{
		UserKey:    "user-a",
		FeatureKey: "reading-session",
		Day:        "2024-01-01",
		TimeLeft:   540,
		Duration:   600,
	}

	if err := timers.Put(context.Background(), state); err != nil {
		t.Fatalf("put timer: %v", err)
	}

	stored, err := timers.Get(context.Background(), state.Key())
	if err != nil {
		t.Fatalf("get timer: %v", err)
	}
	if stored.TimeLeft != 540 || stored.Duration != 600 {
		t.Fatalf("unexpected timer state: %+v", stored)
	}
}

func TestDeleteDaysBefore(t *testing.T) {
	store := openTestStore(t)
	defer func() { _ = store.Close() }()

	counters := store.Counters()
	old := storage.UsageCounter{UserKey: "user-a", FeatureKey: "definition-lookup", Day: "2023-12-01", Count: 12}
	current := storage.UsageCounter{UserKey: "user-b", FeatureKey: "definition-lookup", Day: "2024-01-05", Count: 3}

	if err := counters.Put(context.Background(), old); err != nil {
		t.Fatalf("put old counter: %v", err)
	}
	if err := counters.Put(context.Background(), current); err != nil {
		t.Fatalf("put current counter: %v", err)
	}

	deleted, err := counters.DeleteDaysBefore(context.Background(), "2024-01-01")
	if err != nil {
		t.Fatalf("delete days before: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 deleted counter, got %d", deleted)
	}

	if _, err := counters.Get(context.Background(), old.Key()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected old counter gone, got %v", err)
	}
	if _, err := counters.Get(context.Background(), current.Key()); err != nil {
		t.Fatalf("expected current counter kept: %v", err)
	}
}

func openTestStore(t *testing.T) *Store {
	t.Helper()

	path := filepath.Join(t.TempDir(), "lingora.bolt")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return store
}
