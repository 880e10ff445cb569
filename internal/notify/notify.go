// Package notify carries document updates from producers (file watcher,
// stdin, HTTP) to the preview stream.
//
// A Mailbox holds at most one pending value. Sending overwrites whatever is
// pending, so a consumer that falls behind skips straight to the newest
// document instead of rendering every intermediate keystroke.
package notify

import (
	"context"
	"sync"
)

// Update is one document change: inline markdown, or a file to read.
type Update struct {
	Text       string // inline markdown; used when Path is empty
	Path       string // file to read at render time
	ResetCache bool   // drop cached fragments before rendering
}

// Inline reports whether the update carries its own text.
func (u Update) Inline() bool {
	return u.Path == ""
}

// Mailbox is a single-slot, overwrite-on-send channel with a memory of the
// last value sent. The zero value is not usable; use NewMailbox.
type Mailbox[T any] struct {
	mu      sync.Mutex
	pending T
	full    bool
	latest  T
	sent    bool
	ready   chan struct{} // buffered(1); signalled when pending becomes full
}

// NewMailbox creates an empty Mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Send stores v, replacing any value not yet received. It never blocks.
func (m *Mailbox[T]) Send(v T) {
	m.mu.Lock()
	m.pending = v
	m.full = true
	m.latest = v
	m.sent = true
	m.mu.Unlock()

	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// Receive waits for a pending value and takes it, or returns ctx.Err().
func (m *Mailbox[T]) Receive(ctx context.Context) (T, error) {
	for {
		if v, ok := m.take(); ok {
			return v, nil
		}
		select {
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		case <-m.ready:
		}
	}
}

// TryReceive takes the pending value without waiting.
func (m *Mailbox[T]) TryReceive() (T, bool) {
	return m.take()
}

// Latest returns the most recently sent value, received or not.
func (m *Mailbox[T]) Latest() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.sent
}

func (m *Mailbox[T]) take() (T, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.full {
		var zero T
		return zero, false
	}
	v := m.pending
	var zero T
	m.pending = zero
	m.full = false
	return v, true
}
