package broker

import (
	"context"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerBroker wraps a Broker with a circuit breaker so a sustained Redis
// outage surfaces quickly as an error to HTTP handlers and background
// loops instead of letting every call hang on its own dial/read timeout.
type BreakerBroker struct {
	next Broker
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerBroker(next Broker) *BreakerBroker {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "broker",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
	})
	return &BreakerBroker{next: next, cb: cb}
}

func (b *BreakerBroker) Push(ctx context.Context, queue string, payload string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Push(ctx, queue, payload)
	})
	return err
}

func (b *BreakerBroker) PopBlocking(ctx context.Context, queues []string, timeout time.Duration) (string, string, bool, error) {
	type popResult struct {
		queue, payload string
		ok             bool
	}
	v, err := b.cb.Execute(func() (interface{}, error) {
		q, p, ok, err := b.next.PopBlocking(ctx, queues, timeout)
		if err != nil {
			return nil, err
		}
		return popResult{q, p, ok}, nil
	})
	if err != nil {
		return "", "", false, err
	}
	r := v.(popResult)
	return r.queue, r.payload, r.ok, nil
}

func (b *BreakerBroker) Length(ctx context.Context, queue string) (int64, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Length(ctx, queue)
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (b *BreakerBroker) Ping(ctx context.Context) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.Ping(ctx)
	})
	return err
}

func (b *BreakerBroker) Close() error {
	return b.next.Close()
}
