package retry

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/geocoder89/benchorch/internal/broker"
	"github.com/geocoder89/benchorch/internal/dispatch"
	"github.com/geocoder89/benchorch/internal/domain/job"
	"github.com/geocoder89/benchorch/internal/domain/worker"
	"github.com/geocoder89/benchorch/internal/store"
)

// Hooks lets the composition root observe engine activity (for metrics)
// without the engine importing the metrics package directly.
type Hooks struct {
	OnTimeout func()
	OnRetry   func()
	OnFail    func()
}

// Engine scans running jobs for timeouts and either requeues them with
// backoff or settles them as failed once the retry budget is exhausted.
type Engine struct {
	store         *store.Store
	broker        broker.Broker
	policy        Policy
	tracker       *Tracker
	defaultTimeout time.Duration
	checkInterval time.Duration
	log           *slog.Logger
	hooks         Hooks

	wg sync.WaitGroup
}

func New(st *store.Store, b broker.Broker, policy Policy, defaultTimeout, checkInterval time.Duration, log *slog.Logger, hooks Hooks) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{
		store:          st,
		broker:         b,
		policy:         policy,
		tracker:        NewTracker(),
		defaultTimeout: defaultTimeout,
		checkInterval:  checkInterval,
		log:            log,
		hooks:          hooks,
	}
}

// Tracker exposes the retry history tracker for the HTTP edge's job
// detail endpoint.
func (e *Engine) Tracker() *Tracker { return e.tracker }

// Run scans for timed-out jobs every check interval until ctx is
// cancelled, then waits for any in-flight delayed requeues to finish.
func (e *Engine) Run(ctx context.Context) {
	ticker := time.NewTicker(e.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			e.wg.Wait()
			return
		case <-ticker.C:
			e.checkTimeouts(ctx)
		}
	}
}

func (e *Engine) checkTimeouts(ctx context.Context) {
	now := time.Now()
	for _, j := range e.store.GetJobsByStatus(job.StatusRunning) {
		if j.StartedAt == nil {
			continue
		}
		timeout := time.Duration(j.TimeoutSeconds) * time.Second
		if timeout <= 0 {
			timeout = e.defaultTimeout
		}
		if now.Sub(*j.StartedAt) > timeout {
			e.handleTimeout(ctx, j)
		}
	}
}

func (e *Engine) handleTimeout(ctx context.Context, j job.Job) {
	if err := e.store.UpdateJobStatus(j.JobID, job.StatusTimedOut, ""); err != nil {
		e.log.Error("failed to mark job timed_out", "job_id", j.JobID, "error", err)
		return
	}
	if e.hooks.OnTimeout != nil {
		e.hooks.OnTimeout()
	}

	if j.WorkerID != "" {
		if err := e.store.UpdateWorkerStatus(j.WorkerID, worker.StatusFaulty); err != nil {
			e.log.Warn("failed to mark worker faulty after job timeout", "worker_id", j.WorkerID, "error", err)
		}
	}

	attemptsSoFar := e.tracker.AttemptCount(j.JobID)
	if !e.policy.ShouldRetry(attemptsSoFar) {
		e.failPermanently(j)
		return
	}

	e.tracker.RecordRetry(j.JobID, ReasonJobTimeout, attemptsSoFar)
	delay := e.policy.GetDelay(attemptsSoFar - 1)

	if _, err := e.store.IncrementJobRetry(j.JobID); err != nil {
		e.log.Error("failed to increment retry count", "job_id", j.JobID, "error", err)
		return
	}
	if err := e.store.SetJobRetryAfter(j.JobID, time.Now().Add(delay)); err != nil {
		e.log.Warn("failed to stamp retry_after", "job_id", j.JobID, "error", err)
	}
	if err := e.store.ClearWorkerPin(j.JobID); err != nil {
		e.log.Error("failed to clear worker pin for retry", "job_id", j.JobID, "error", err)
		return
	}
	if e.hooks.OnRetry != nil {
		e.hooks.OnRetry()
	}

	e.requeueAfter(ctx, j, delay)
}

// requeueAfter delays the broker push itself (rather than pushing
// immediately and relying on a worker to honor retry_after): the core is
// the only code that can enforce the delay deterministically.
func (e *Engine) requeueAfter(ctx context.Context, j job.Job, delay time.Duration) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
			return
		}

		queue := dispatch.CapabilityQueue(j.ComputeUnit)
		if err := e.broker.Push(context.Background(), queue, j.JobID); err != nil {
			e.log.Error("failed to requeue timed-out job", "job_id", j.JobID, "queue", queue, "error", err)
		}
	}()
}

func (e *Engine) failPermanently(j job.Job) {
	if err := e.store.UpdateJobStatus(j.JobID, job.StatusFailed, ""); err != nil {
		e.log.Error("failed to mark job failed", "job_id", j.JobID, "error", err)
		return
	}
	if e.hooks.OnFail != nil {
		e.hooks.OnFail()
	}
	if j.CampaignID == "" {
		return
	}
	if _, err := e.store.UpdateCampaignProgress(j.CampaignID, store.CampaignProgressUpdate{IncrementFailed: true}); err != nil {
		e.log.Error("failed to update campaign progress after job failure", "campaign_id", j.CampaignID, "error", err)
	}
}

// EngineStats merges timeout/retry counters for /monitoring/stats.
type EngineStats struct {
	DefaultTimeoutSeconds float64     `json:"default_timeout_seconds"`
	Retry                 RetryStats  `json:"retry"`
}

type RetryStats struct {
	TotalJobsTracked int `json:"total_jobs_tracked"`
	TotalRetries     int `json:"total_retries"`
	MaxAttempts      int `json:"max_attempts"`
}

func (e *Engine) Stats() EngineStats {
	s := e.tracker.Stats()
	return EngineStats{
		DefaultTimeoutSeconds: e.defaultTimeout.Seconds(),
		Retry: RetryStats{
			TotalJobsTracked: s.TotalJobsTracked,
			TotalRetries:     s.TotalRetries,
			MaxAttempts:      e.policy.MaxAttempts,
		},
	}
}
