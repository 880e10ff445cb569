package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestMailbox - Single-slot overwrite semantics
// ---------------------------------------------------------------------------

func TestMailbox_SendThenReceive(t *testing.T) {
	t.Parallel()

	m := NewMailbox[Update]()
	m.Send(Update{Text: "# one"})

	got, err := m.Receive(context.Background())
	if err != nil {
		t.Fatalf("Receive() error = %v", err)
	}
	if got.Text != "# one" || !got.Inline() {
		t.Errorf("Receive() = %+v", got)
	}
	if _, ok := m.TryReceive(); ok {
		t.Error("TryReceive() after Receive should find the slot empty")
	}
}

func TestMailbox_SendOverwritesPending(t *testing.T) {
	t.Parallel()

	m := NewMailbox[int]()
	for i := 1; i <= 5; i++ {
		m.Send(i)
	}

	got, ok := m.TryReceive()
	if !ok || got != 5 {
		t.Errorf("TryReceive() = %d, %v, want 5, true", got, ok)
	}
	if _, ok := m.TryReceive(); ok {
		t.Error("only the newest value should be pending")
	}
}

func TestMailbox_ReceiveBlocksUntilSend(t *testing.T) {
	t.Parallel()

	m := NewMailbox[string]()
	done := make(chan string, 1)
	go func() {
		v, err := m.Receive(context.Background())
		if err != nil {
			done <- "error: " + err.Error()
			return
		}
		done <- v
	}()

	select {
	case v := <-done:
		t.Fatalf("Receive() returned %q before any Send", v)
	case <-time.After(20 * time.Millisecond):
	}

	m.Send("doc.md")
	select {
	case v := <-done:
		if v != "doc.md" {
			t.Errorf("Receive() = %q, want doc.md", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive() did not wake up after Send")
	}
}

func TestMailbox_ReceiveContextCancelled(t *testing.T) {
	t.Parallel()

	m := NewMailbox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	if _, err := m.Receive(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Receive() error = %v, want DeadlineExceeded", err)
	}
}

func TestMailbox_Latest(t *testing.T) {
	t.Parallel()

	m := NewMailbox[Update]()
	if _, ok := m.Latest(); ok {
		t.Error("Latest() on empty mailbox should report false")
	}

	m.Send(Update{Path: "/docs/a.md"})
	if _, err := m.Receive(context.Background()); err != nil {
		t.Fatal(err)
	}

	latest, ok := m.Latest()
	if !ok || latest.Path != "/docs/a.md" || latest.Inline() {
		t.Errorf("Latest() = %+v, %v, want the received update", latest, ok)
	}
}

func TestMailbox_ConcurrentSenders(t *testing.T) {
	t.Parallel()

	m := NewMailbox[int]()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				m.Send(n*1000 + j)
			}
		}(i)
	}
	wg.Wait()

	latest, ok := m.Latest()
	if !ok {
		t.Fatal("Latest() should report a value after sends")
	}
	got, ok := m.TryReceive()
	if !ok || got != latest {
		t.Errorf("TryReceive() = %d, %v, want pending value equal to Latest() %d", got, ok, latest)
	}
	if latest%1000 != 99 {
		t.Errorf("Latest() = %d, want the last send of some goroutine", latest)
	}
}
