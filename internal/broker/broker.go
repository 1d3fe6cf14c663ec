// Package broker defines the FIFO job/result queue abstraction the core
// depends on, with a Redis-backed implementation for production and an
// in-memory implementation for tests.
package broker

import (
	"context"
	"time"
)

// ResultsQueue is the single queue name carrying worker result documents.
const ResultsQueue = "results"

// Broker is a named-list FIFO: push-left, pop-right, length. Job queues
// use bare job_id payloads; the results queue carries JSON result
// documents. Implementations must provide at-least-once delivery.
type Broker interface {
	// Push appends payload to the head of queue (LPush semantics).
	Push(ctx context.Context, queue string, payload string) error
	// PopBlocking pops from the tail of the first ready queue among
	// queues, blocking up to timeout. ok is false on timeout with no
	// error (not a failure, just nothing to do).
	PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (queue, payload string, ok bool, err error)
	// Length reports the number of entries currently queued.
	Length(ctx context.Context, queue string) (int64, error)
	// Ping reports broker reachability for health checks.
	Ping(ctx context.Context) error
	Close() error
}
