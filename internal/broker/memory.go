package broker

import (
	"context"
	"sync"
	"time"
)

// MemoryBroker is an in-process Broker test double for unit tests that
// don't need to exercise the real Redis wire path. RedisBroker itself has
// no tests in this repository.
type MemoryBroker struct {
	mu     sync.Mutex
	queues map[string][]string
	closed bool
}

func NewMemoryBroker() *MemoryBroker {
	return &MemoryBroker{queues: make(map[string][]string)}
}

func (b *MemoryBroker) Push(ctx context.Context, queue string, payload string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.queues[queue] = append([]string{payload}, b.queues[queue]...)
	return nil
}

// pollInterval governs how often PopBlocking re-checks the queues while
// waiting; short enough that tests relying on sub-second timeouts still
// observe pushes promptly.
const pollInterval = 20 * time.Millisecond

func (b *MemoryBroker) PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, string, bool, error) {
	deadline := time.Now().Add(timeout)

	for {
		b.mu.Lock()
		if b.closed {
			b.mu.Unlock()
			return "", "", false, nil
		}
		for _, q := range queues {
			if n := len(b.queues[q]); n > 0 {
				payload := b.queues[q][n-1]
				b.queues[q] = b.queues[q][:n-1]
				b.mu.Unlock()
				return q, payload, true, nil
			}
		}
		b.mu.Unlock()

		if time.Now().After(deadline) {
			return "", "", false, nil
		}
		select {
		case <-time.After(pollInterval):
		case <-ctx.Done():
			return "", "", false, ctx.Err()
		}
	}
}

func (b *MemoryBroker) Length(ctx context.Context, queue string) (int64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return int64(len(b.queues[queue])), nil
}

func (b *MemoryBroker) Ping(ctx context.Context) error { return nil }

func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}
