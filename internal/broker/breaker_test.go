package broker

import (
	"context"
	"errors"
	"testing"
	"time"
)

type failingBroker struct {
	err   error
	calls int
}

func (f *failingBroker) Push(ctx context.Context, queue, payload string) error {
	f.calls++
	return f.err
}
func (f *failingBroker) PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, string, bool, error) {
	return "", "", false, f.err
}
func (f *failingBroker) Length(ctx context.Context, queue string) (int64, error) { return 0, f.err }
func (f *failingBroker) Ping(ctx context.Context) error                          { return f.err }
func (f *failingBroker) Close() error                                           { return nil }

func TestBreakerBroker_PassesThroughOnSuccess(t *testing.T) {
	b := NewBreakerBroker(NewMemoryBroker())
	if err := b.Push(context.Background(), "q", "payload"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, err := b.Length(context.Background(), "q")
	if err != nil || n != 1 {
		t.Fatalf("Length = (%d, %v), want (1, nil)", n, err)
	}
}

func TestBreakerBroker_TripsAfterConsecutiveFailures(t *testing.T) {
	inner := &failingBroker{err: errors.New("dial tcp: connection refused")}
	b := NewBreakerBroker(inner)

	var lastErr error
	for i := 0; i < 5; i++ {
		lastErr = b.Push(context.Background(), "q", "payload")
	}
	if lastErr == nil {
		t.Fatalf("expected the underlying error to surface before the breaker trips")
	}

	// the breaker should now be open and reject without calling inner.
	callsBefore := inner.calls
	err := b.Push(context.Background(), "q", "payload")
	if err == nil {
		t.Fatalf("expected an error once the breaker is open")
	}
	if inner.calls != callsBefore {
		t.Fatalf("open breaker still called the wrapped broker (%d calls, want %d)", inner.calls, callsBefore)
	}
}
