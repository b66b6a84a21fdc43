package notify

import (
	"context"
	"testing"
)

func TestLocalFanOut(t *testing.T) {
	n := NewLocal()
	defer func() { _ = n.Close() }()

	var got []Change
	unsubscribe := n.Subscribe(func(c Change) {
		got = append(got, c)
	})

	change := Change{Kind: KindFlag, UserKey: "user-a", FeatureKey: "writing-review", Day: "2024-01-01"}
	if err := n.Publish(context.Background(), change); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if len(got) != 1 || got[0] != change {
		t.Fatalf("expected one delivered change, got %+v", got)
	}

	unsubscribe()
	if err := n.Publish(context.Background(), change); err != nil {
		t.Fatalf("publish after unsubscribe: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected no delivery after unsubscribe, got %d", len(got))
	}
}

func TestLocalMultipleSubscribers(t *testing.T) {
	n := NewLocal()
	defer func() { _ = n.Close() }()

	first, second := 0, 0
	n.Subscribe(func(Change) { first++ })
	n.Subscribe(func(Change) { second++ })

	if err := n.Publish(context.Background(), Change{Kind: KindRollover, Day: "2024-01-02"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	if first != 1 || second != 1 {
		t.Fatalf("expected both subscribers notified, got %d and %d", first, second)
	}
}
