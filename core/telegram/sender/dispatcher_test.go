package sender

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestDispatcherKeepsOrderPerKey(t *testing.T) {
	d := NewDispatcher(Options{Workers: 4, QueueSize: 16})

	var (
		mu    sync.Mutex
		order []string
	)
	record := func(name string, delay time.Duration) func() error {
		return func() error {
			time.Sleep(delay)
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
			return nil
		}
	}

	ctx := context.Background()
	// The slow text send must still reach the recipient before the photo.
	if err := d.Enqueue(ctx, "42", "send.text", "sendMessage", record("text", 50*time.Millisecond)); err != nil {
		t.Fatalf("Enqueue text: %v", err)
	}
	if err := d.Enqueue(ctx, "42", "send.photo", "sendPhoto", record("image", 0)); err != nil {
		t.Fatalf("Enqueue photo: %v", err)
	}
	d.Close()

	if len(order) != 2 || order[0] != "text" || order[1] != "image" {
		t.Fatalf("delivery order = %v, want [text image]", order)
	}
}

func TestDispatcherRejectsAfterClose(t *testing.T) {
	d := NewDispatcher(Options{Workers: 1, QueueSize: 1})
	d.Close()

	err := d.Enqueue(context.Background(), "1", "send.text", "sendMessage", func() error { return nil })
	if err != ErrQueueClosed {
		t.Fatalf("Enqueue after close = %v, want ErrQueueClosed", err)
	}
}
