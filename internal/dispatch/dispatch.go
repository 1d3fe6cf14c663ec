// Package dispatch routes a freshly created job to exactly one queue and
// enqueues it, per the hybrid pinned/capability assignment policy.
package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/benchorch/internal/broker"
	"github.com/geocoder89/benchorch/internal/capability"
	"github.com/geocoder89/benchorch/internal/domain/job"
)

// ErrNoRoute is returned when a job has neither a worker pin nor a
// compute unit and therefore cannot be routed to any queue.
var ErrNoRoute = errors.New("job has no worker_id or compute_unit to route on")

// Dispatcher owns the routing policy and the broker push.
type Dispatcher struct {
	b broker.Broker
}

func New(b broker.Broker) *Dispatcher {
	return &Dispatcher{b: b}
}

// Route determines the single queue name a job belongs on: a static pin
// takes priority over capability routing.
func Route(j job.Job) (string, error) {
	if j.WorkerID != "" {
		return fmt.Sprintf("jobs:%s", j.WorkerID), nil
	}
	if j.ComputeUnit != "" {
		return fmt.Sprintf("jobs:capability:%s", capability.Normalize(j.ComputeUnit)), nil
	}
	return "", ErrNoRoute
}

// CapabilityQueue names the pool queue for a normalized compute unit, used
// by the retry engine when it clears a worker pin on requeue.
func CapabilityQueue(unit string) string {
	return fmt.Sprintf("jobs:capability:%s", capability.Normalize(unit))
}

// WorkerQueue names a worker's personal pinned queue.
func WorkerQueue(workerID string) string {
	return fmt.Sprintf("jobs:%s", workerID)
}

// PollOrder returns the queue names a worker should poll, in strict
// priority order: its personal queue first, then one capability queue per
// declared capability in registration order.
func PollOrder(workerID string, capabilities []string) []string {
	order := make([]string, 0, len(capabilities)+1)
	if workerID != "" {
		order = append(order, WorkerQueue(workerID))
	}
	for _, c := range capabilities {
		order = append(order, CapabilityQueue(c))
	}
	return order
}

// Dispatch enqueues the job's id on its routed queue. The caller must have
// already created the job row in the store before calling this, and must
// not hold the store guard while this runs (broker push is network I/O).
func (d *Dispatcher) Dispatch(ctx context.Context, j job.Job) error {
	queue, err := Route(j)
	if err != nil {
		return err
	}
	return d.b.Push(ctx, queue, j.JobID)
}
