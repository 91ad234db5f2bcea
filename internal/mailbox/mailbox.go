package mailbox

import (
	"context"
	"sync"
)

// Mailbox is a single-slot buffer where the latest value wins.
// It is not a queue: Put overwrites whatever is pending.
type Mailbox[T any] struct {
	mu     sync.Mutex
	value  *T
	notify chan struct{}
}

func New[T any]() *Mailbox[T] {
	return &Mailbox[T]{notify: make(chan struct{}, 1)}
}

// Put stores v, replacing any pending value. It never blocks.
func (m *Mailbox[T]) Put(v T) {
	m.mu.Lock()
	m.value = &v
	m.mu.Unlock()

	select {
	case m.notify <- struct{}{}:
	default:
	}
}

// Take blocks until a value is available or ctx is done.
func (m *Mailbox[T]) Take(ctx context.Context) (T, bool) {
	for {
		if v, ok := m.TryTake(); ok {
			return v, true
		}
		select {
		case <-m.notify:
		case <-ctx.Done():
			var zero T
			return zero, false
		}
	}
}

// TryTake returns the pending value, if any, and clears the slot.
func (m *Mailbox[T]) TryTake() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.value == nil {
		var zero T
		return zero, false
	}
	v := *m.value
	m.value = nil
	return v, true
}

// Pending reports whether a value is waiting.
func (m *Mailbox[T]) Pending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.value != nil
}
