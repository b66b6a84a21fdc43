// Package notify carries storage-change events to connected clients so
// they can refresh displayed quota and completion state. Notifications
// are display-only: they provide no ordering or serialization guarantee
// between writers, which remain last-write-wins.
package notify

import (
	"context"
	"sync"
)

// ChangeKind identifies which record class changed.
type ChangeKind string

const (
	KindCounter  ChangeKind = "counter"
	KindFlag     ChangeKind = "flag"
	KindTimer    ChangeKind = "timer"
	KindRollover ChangeKind = "rollover"
)

// Change describes one storage mutation or a day rollover. For a
// rollover the user and feature fields are empty and Day is the new
// day key.
type Change struct {
	Kind       ChangeKind `json:"kind"`
	UserKey    string     `json:"user_key,omitempty"`
	FeatureKey string     `json:"feature_key,omitempty"`
	Day        string     `json:"day"`
}

// Handler receives change events. Handlers must not block.
type Handler func(Change)

// Notifier publishes change events and fans them out to subscribers.
type Notifier interface {
	Publish(ctx context.Context, change Change) error
	Subscribe(handler Handler) (unsubscribe func())
	Close() error
}

// Local is an in-process Notifier.
type Local struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[int]Handler
}

// NewLocal creates an in-process notifier.
func NewLocal() *Local {
	return &Local{handlers: make(map[int]Handler)}
}

// Publish delivers the change to all current subscribers.
func (l *Local) Publish(_ context.Context, change Change) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, handler := range l.handlers {
		handler(change)
	}
	return nil
}

// Subscribe registers a handler and returns its unsubscribe function.
func (l *Local) Subscribe(handler Handler) func() {
	l.mu.Lock()
	id := l.nextID
	l.nextID++
	l.handlers[id] = handler
	l.mu.Unlock()

	return func() {
		l.mu.Lock()
		delete(l.handlers, id)
		l.mu.Unlock()
	}
}

// Close releases all subscriptions.
func (l *Local) Close() error {
	l.mu.Lock()
	l.handlers = make(map[int]Handler)
	l.mu.Unlock()
	return nil
}
