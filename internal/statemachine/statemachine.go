// Package statemachine implements the worker status transition graph:
// active -> busy -> cleanup -> active, with faulty reachable from any other
// state and recoverable only back to active.
package statemachine

import (
	"fmt"

	"github.com/geocoder89/benchorch/internal/domain/worker"
)

// InvalidStateTransition is returned when a requested transition is not in
// the graph. Callers surface it as a 400 with the from/to states.
type InvalidStateTransition struct {
	From worker.Status
	To   worker.Status
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

var validTransitions = map[worker.Status][]worker.Status{
	worker.StatusActive:  {worker.StatusBusy, worker.StatusFaulty},
	worker.StatusBusy:    {worker.StatusCleanup, worker.StatusFaulty},
	worker.StatusCleanup: {worker.StatusActive, worker.StatusFaulty},
	worker.StatusFaulty:  {worker.StatusActive},
}

// CanTransition reports whether from -> to is in the graph. No
// self-transitions are ever valid.
func CanTransition(from, to worker.Status) bool {
	if from == to {
		return false
	}
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Validate returns an *InvalidStateTransition if from -> to is refused.
func Validate(from, to worker.Status) error {
	if !CanTransition(from, to) {
		return &InvalidStateTransition{From: from, To: to}
	}
	return nil
}

// JobStarted is the active -> busy transition.
func JobStarted(from worker.Status) (worker.Status, error) {
	if from != worker.StatusActive {
		return from, &InvalidStateTransition{From: from, To: worker.StatusBusy}
	}
	return worker.StatusBusy, nil
}

// JobCompleted is the busy -> cleanup transition.
func JobCompleted(from worker.Status) (worker.Status, error) {
	if from != worker.StatusBusy {
		return from, &InvalidStateTransition{From: from, To: worker.StatusCleanup}
	}
	return worker.StatusCleanup, nil
}

// ReadyForJobs is the cleanup -> active transition.
func ReadyForJobs(from worker.Status) (worker.Status, error) {
	if from != worker.StatusCleanup {
		return from, &InvalidStateTransition{From: from, To: worker.StatusActive}
	}
	return worker.StatusActive, nil
}

// Recovered is the faulty -> active transition, reachable via heartbeat,
// operator reset, or re-registration.
func Recovered(from worker.Status) (worker.Status, error) {
	if from != worker.StatusFaulty {
		return from, &InvalidStateTransition{From: from, To: worker.StatusActive}
	}
	return worker.StatusActive, nil
}

// MarkFaulty is reachable from any non-terminal state per the transition
// table; faulty itself has no self-transition.
func MarkFaulty(from worker.Status) (worker.Status, error) {
	if from == worker.StatusFaulty {
		return from, &InvalidStateTransition{From: from, To: worker.StatusFaulty}
	}
	return worker.StatusFaulty, nil
}
