package broker

import (
	"context"
	"testing"
	"time"
)

func TestMemoryBroker_PushPop_FIFO(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()

	if err := b.Push(ctx, "q", "first"); err != nil {
		t.Fatalf("Push error: %v", err)
	}
	if err := b.Push(ctx, "q", "second"); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	_, payload, ok, err := b.PopBlocking(ctx, []string{"q"}, 0)
	if err != nil || !ok {
		t.Fatalf("PopBlocking failed: ok=%v err=%v", ok, err)
	}
	if payload != "first" {
		t.Fatalf("payload = %q, want first (FIFO order)", payload)
	}
}

func TestMemoryBroker_PopBlocking_TimesOutWhenEmpty(t *testing.T) {
	b := NewMemoryBroker()
	start := time.Now()
	_, _, ok, err := b.PopBlocking(context.Background(), []string{"empty"}, 50*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatalf("expected ok=false on timeout")
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Fatalf("returned before the timeout elapsed")
	}
}

func TestMemoryBroker_PopBlocking_WakesOnPush(t *testing.T) {
	b := NewMemoryBroker()
	done := make(chan struct{})

	go func() {
		_, payload, ok, err := b.PopBlocking(context.Background(), []string{"q"}, time.Second)
		if err != nil || !ok || payload != "hello" {
			t.Errorf("unexpected pop result: payload=%q ok=%v err=%v", payload, ok, err)
		}
		close(done)
	}()

	time.Sleep(40 * time.Millisecond)
	if err := b.Push(context.Background(), "q", "hello"); err != nil {
		t.Fatalf("Push error: %v", err)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("PopBlocking did not observe the push in time")
	}
}

func TestMemoryBroker_Length(t *testing.T) {
	b := NewMemoryBroker()
	ctx := context.Background()
	b.Push(ctx, "q", "a")
	b.Push(ctx, "q", "b")

	n, err := b.Length(ctx, "q")
	if err != nil {
		t.Fatalf("Length error: %v", err)
	}
	if n != 2 {
		t.Fatalf("Length = %d, want 2", n)
	}
}

func TestMemoryBroker_PopBlocking_ReturnsImmediatelyWhenClosed(t *testing.T) {
	b := NewMemoryBroker()
	b.Close()

	start := time.Now()
	_, _, ok, err := b.PopBlocking(context.Background(), []string{"q"}, time.Second)
	if err != nil || ok {
		t.Fatalf("expected ok=false, no error on closed broker; got ok=%v err=%v", ok, err)
	}
	if time.Since(start) > 100*time.Millisecond {
		t.Fatalf("closed broker should return immediately, took %v", time.Since(start))
	}
}
