// Package health tracks per-worker heartbeat timestamps and transitions
// silently dead workers to faulty.
package health

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/benchorch/internal/domain/worker"
	"github.com/geocoder89/benchorch/internal/store"
)

// ErrWorkerNotFound mirrors store.ErrWorkerNotFound for callers that only
// import this package.
var ErrWorkerNotFound = store.ErrWorkerNotFound

// WorkerHealth is the heartbeat snapshot for one worker.
type WorkerHealth struct {
	WorkerID          string        `json:"worker_id"`
	Status            worker.Status `json:"status"`
	IsHealthy         bool          `json:"is_healthy"`
	LastHeartbeat     *time.Time    `json:"last_heartbeat"`
	TimeSinceHeartbeat *float64     `json:"time_since_heartbeat"`
	HeartbeatTimeout  float64       `json:"heartbeat_timeout"`
}

// FleetSummary is the merged fleet-wide health picture.
type FleetSummary struct {
	Active int `json:"active"`
	Busy   int `json:"busy"`
	Faulty int `json:"faulty"`
	Total  int `json:"total"`
}

// Monitor tracks last_heartbeat in memory only — it is reseeded from
// scratch on restart, never persisted in the snapshot.
type Monitor struct {
	store            *store.Store
	log              *slog.Logger
	heartbeatTimeout time.Duration
	checkInterval    time.Duration

	mu            sync.Mutex
	lastHeartbeat map[string]time.Time
}

func New(st *store.Store, heartbeatTimeout, checkInterval time.Duration, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		store:            st,
		log:              log,
		heartbeatTimeout: heartbeatTimeout,
		checkInterval:    checkInterval,
		lastHeartbeat:    make(map[string]time.Time),
	}
}

// RecordHeartbeat resets a worker's last_heartbeat and, if it was faulty,
// recovers it to active. previousStatus/action mirror the HTTP contract
// for POST /workers/{id}/heartbeat.
func (m *Monitor) RecordHeartbeat(workerID string) (previousStatus worker.Status, action string, err error) {
	w, ok := m.store.GetWorker(workerID)
	if !ok {
		return "", "", fmt.Errorf("worker %s: %w", workerID, ErrWorkerNotFound)
	}

	m.mu.Lock()
	m.lastHeartbeat[workerID] = time.Now()
	m.mu.Unlock()

	if w.Status == worker.StatusFaulty {
		if err := m.store.UpdateWorkerStatus(workerID, worker.StatusActive); err != nil {
			return w.Status, "", err
		}
		return w.Status, "recovered", nil
	}
	return w.Status, "ok", nil
}

// Run scans for silent workers every check interval until ctx is
// cancelled.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkHeartbeats()
		}
	}
}

func (m *Monitor) checkHeartbeats() {
	now := time.Now()
	for _, w := range m.store.GetAllWorkers() {
		if w.Status == worker.StatusFaulty {
			continue
		}

		m.mu.Lock()
		last, seen := m.lastHeartbeat[w.WorkerID]
		if !seen {
			m.lastHeartbeat[w.WorkerID] = now
		}
		m.mu.Unlock()

		if !seen {
			continue
		}
		if now.Sub(last) > m.heartbeatTimeout {
			if err := m.store.UpdateWorkerStatus(w.WorkerID, worker.StatusFaulty); err != nil {
				m.log.Error("failed to mark worker faulty", "worker_id", w.WorkerID, "error", err)
				continue
			}
			m.log.Warn("worker heartbeat timeout, marked faulty", "worker_id", w.WorkerID, "since", now.Sub(last))
		}
	}
}

// GetWorkerHealth reports whether a worker has no heartbeat yet
// (treated as healthy by default) or has exceeded the timeout.
func (m *Monitor) GetWorkerHealth(workerID string) (WorkerHealth, error) {
	w, ok := m.store.GetWorker(workerID)
	if !ok {
		return WorkerHealth{}, fmt.Errorf("worker %s: %w", workerID, ErrWorkerNotFound)
	}

	m.mu.Lock()
	last, seen := m.lastHeartbeat[workerID]
	m.mu.Unlock()

	h := WorkerHealth{
		WorkerID:         workerID,
		Status:           w.Status,
		HeartbeatTimeout: m.heartbeatTimeout.Seconds(),
	}
	if !seen {
		h.IsHealthy = true
		return h, nil
	}
	since := time.Since(last).Seconds()
	h.LastHeartbeat = &last
	h.TimeSinceHeartbeat = &since
	h.IsHealthy = since < m.heartbeatTimeout.Seconds()
	return h, nil
}

// GetAllHealth reports health for every registered worker.
func (m *Monitor) GetAllHealth() []WorkerHealth {
	workers := m.store.GetAllWorkers()
	out := make([]WorkerHealth, 0, len(workers))
	for _, w := range workers {
		h, err := m.GetWorkerHealth(w.WorkerID)
		if err == nil {
			out = append(out, h)
		}
	}
	return out
}

// Summary merges per-status counts across the fleet.
func (m *Monitor) Summary() FleetSummary {
	var s FleetSummary
	for _, w := range m.store.GetAllWorkers() {
		s.Total++
		switch w.Status {
		case worker.StatusActive:
			s.Active++
		case worker.StatusBusy:
			s.Busy++
		case worker.StatusFaulty:
			s.Faulty++
		}
	}
	return s
}
