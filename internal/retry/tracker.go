package retry

import (
	"sync"
	"time"
)

// Record is one append-only retry history entry for a job.
type Record struct {
	Timestamp time.Time `json:"timestamp"`
	Reason    Reason    `json:"reason"`
	Attempt   int       `json:"attempt"`
}

// Tracker holds per-job retry history. It is distinct from the persisted
// store snapshot: retry history is diagnostic, not part of the
// campaign/job/worker/result entities.
type Tracker struct {
	mu      sync.Mutex
	history map[string][]Record
}

func NewTracker() *Tracker {
	return &Tracker{history: make(map[string][]Record)}
}

// AttemptCount returns the number of attempts made so far, including the
// initial execution (so a job with no recorded retries has attempt count
// 1, matching the Python get_attempt_count convention).
func (t *Tracker) AttemptCount(jobID string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.history[jobID]) + 1
}

// RecordRetry appends a retry record for jobID.
func (t *Tracker) RecordRetry(jobID string, reason Reason, attempt int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.history[jobID] = append(t.history[jobID], Record{
		Timestamp: time.Now(),
		Reason:    reason,
		Attempt:   attempt,
	})
}

// History returns the retry records for a job, oldest first.
func (t *Tracker) History(jobID string) []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, len(t.history[jobID]))
	copy(out, t.history[jobID])
	return out
}

// Stats summarizes retry activity across all tracked jobs.
type Stats struct {
	TotalJobsTracked int `json:"total_jobs_tracked"`
	TotalRetries     int `json:"total_retries"`
}

func (t *Tracker) Stats() Stats {
	t.mu.Lock()
	defer t.mu.Unlock()
	s := Stats{TotalJobsTracked: len(t.history)}
	for _, recs := range t.history {
		s.TotalRetries += len(recs)
	}
	return s
}
