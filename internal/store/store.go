// Package store is the single source of truth for workers, campaigns,
// jobs, and results: one in-memory registry guarded by a single
// sync.RWMutex, with a background goroutine snapshotting it to disk.
package store

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/geocoder89/benchorch/internal/capability"
	"github.com/geocoder89/benchorch/internal/domain/campaign"
	"github.com/geocoder89/benchorch/internal/domain/job"
	"github.com/geocoder89/benchorch/internal/domain/result"
	"github.com/geocoder89/benchorch/internal/domain/worker"
	"github.com/geocoder89/benchorch/internal/report"
	"github.com/geocoder89/benchorch/internal/statemachine"
)

// RegisterAction reports what RegisterWorker actually did, surfaced
// verbatim in the HTTP registration response.
type RegisterAction string

const (
	ActionCreated   RegisterAction = "created"
	ActionUpdated   RegisterAction = "updated"
	ActionRecovered RegisterAction = "recovered"
)

// Store holds the whole control-plane state in memory.
type Store struct {
	mu   sync.RWMutex
	log  *slog.Logger
	path string

	workers   map[string]worker.Worker
	campaigns map[string]campaign.Campaign
	jobs      map[string]job.Job
	results   map[string]result.Result

	jobSeq map[string]int // campaign_id -> next job index, for "{campaign_id}-job-{i}"
}

func New(path string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		log:       log,
		path:      path,
		workers:   make(map[string]worker.Worker),
		campaigns: make(map[string]campaign.Campaign),
		jobs:      make(map[string]job.Job),
		results:   make(map[string]result.Result),
		jobSeq:    make(map[string]int),
	}
}

// ===================== Worker operations =====================

// RegisterWorker computes a deterministic worker id from the device info
// and either creates a new worker row, updates an existing one (refreshing
// last_seen, preserving registered_at), or recovers a faulty worker back
// to active.
func (s *Store) RegisterWorker(req worker.RegisterRequest) (worker.Worker, RegisterAction) {
	extracted := extractDeviceInfo(req.DeviceInfo)
	id := deriveWorkerID(req.DeviceName, extracted)
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	normalizedCaps := capability.NormalizeAll(req.Capabilities)

	existing, found := s.workers[id]
	if !found {
		w := worker.Worker{
			WorkerID:     id,
			DeviceName:   req.DeviceName,
			IPAddress:    req.IPAddress,
			Capabilities: normalizedCaps,
			DeviceInfo:   req.DeviceInfo,
			Extracted:    extracted,
			Status:       worker.StatusActive,
			RegisteredAt: now,
			LastSeen:     now,
		}
		s.workers[id] = w
		return w.Clone(), ActionCreated
	}

	action := ActionUpdated
	if existing.Status == worker.StatusFaulty {
		action = ActionRecovered
	}

	existing.DeviceName = req.DeviceName
	existing.IPAddress = req.IPAddress
	existing.Capabilities = normalizedCaps
	existing.DeviceInfo = req.DeviceInfo
	existing.Extracted = extracted
	existing.Status = worker.StatusActive
	existing.LastSeen = now
	s.workers[id] = existing

	return existing.Clone(), action
}

func (s *Store) GetWorker(id string) (worker.Worker, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workers[id]
	if !ok {
		return worker.Worker{}, false
	}
	return w.Clone(), true
}

func (s *Store) GetAllWorkers() []worker.Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]worker.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		out = append(out, w.Clone())
	}
	return out
}

func (s *Store) GetActiveWorkers() []worker.Worker {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]worker.Worker, 0, len(s.workers))
	for _, w := range s.workers {
		if w.Status == worker.StatusActive {
			out = append(out, w.Clone())
		}
	}
	return out
}

// GetWorkersByCapability filters to active workers advertising unit,
// comparing normalized tags so registration strings and dispatch strings
// always match.
func (s *Store) GetWorkersByCapability(unit string) []worker.Worker {
	target := capability.Normalize(unit)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]worker.Worker, 0)
	for _, w := range s.workers {
		if w.Status != worker.StatusActive {
			continue
		}
		for _, c := range w.Capabilities {
			if c == target {
				out = append(out, w.Clone())
				break
			}
		}
	}
	return out
}

// UpdateWorkerStatus validates the transition against the state machine
// and always refreshes last_seen on success.
func (s *Store) UpdateWorkerStatus(id string, status worker.Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return fmt.Errorf("worker %s: %w", id, ErrWorkerNotFound)
	}
	if err := statemachine.Validate(w.Status, status); err != nil {
		return err
	}
	w.Status = status
	w.LastSeen = time.Now()
	s.workers[id] = w
	return nil
}

// ResetWorker recovers a faulty worker to active via an explicit operator
// action. Returns an error wrapping ErrWorkerNotFound or ErrNotFaulty as
// appropriate (match with errors.Is).
func (s *Store) ResetWorker(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.workers[id]
	if !ok {
		return fmt.Errorf("worker %s: %w", id, ErrWorkerNotFound)
	}
	if w.Status != worker.StatusFaulty {
		return fmt.Errorf("worker %s: %w", id, ErrNotFaulty)
	}
	w.Status = worker.StatusActive
	w.LastSeen = time.Now()
	s.workers[id] = w
	return nil
}

// ===================== Campaign operations =====================

// CreateCampaign creates the campaign row and one job row per spec entry,
// returning both. A campaign with zero jobs is accepted and immediately
// marked completed, per spec.
func (s *Store) CreateCampaign(req campaign.CreateRequest) (campaign.Campaign, []job.Job) {
	now := time.Now()
	id := "c-" + uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	c := campaign.Campaign{
		CampaignID: id,
		ModelURL:   req.ModelURL,
		TotalJobs:  len(req.Jobs),
		Status:     campaign.StatusRunning,
		CreatedAt:  now,
	}

	jobs := make([]job.Job, 0, len(req.Jobs))
	for _, spec := range req.Jobs {
		idx := s.jobSeq[id]
		s.jobSeq[id] = idx + 1
		jobID := fmt.Sprintf("%s-job-%d", id, idx)

		timeout := spec.TimeoutSeconds
		if timeout <= 0 {
			timeout = 3600
		}

		j := job.Job{
			JobID:            jobID,
			CampaignID:       id,
			ModelURL:         req.ModelURL,
			ComputeUnit:      spec.ComputeUnit,
			WorkerID:         spec.WorkerID,
			NumInferenceRuns: spec.NumInferenceRuns,
			TimeoutSeconds:   timeout,
			Status:           job.StatusPending,
			SubmittedAt:      now,
		}
		s.jobs[jobID] = j
		jobs = append(jobs, j.Clone())
	}

	if c.TotalJobs == 0 {
		c.Status = campaign.StatusCompleted
	}

	s.campaigns[id] = c
	return c.Clone(), jobs
}

func (s *Store) GetCampaign(id string) (campaign.Campaign, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.campaigns[id]
	return c.Clone(), ok
}

func (s *Store) GetAllCampaigns() []campaign.Campaign {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]campaign.Campaign, 0, len(s.campaigns))
	for _, c := range s.campaigns {
		out = append(out, c.Clone())
	}
	return out
}

// CampaignProgressUpdate describes an atomic counter/status mutation.
type CampaignProgressUpdate struct {
	IncrementCompleted bool
	IncrementFailed    bool
	Status             *campaign.Status
	ResultsFile        string
}

func (s *Store) UpdateCampaignProgress(id string, upd CampaignProgressUpdate) (campaign.Campaign, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.campaigns[id]
	if !ok {
		return campaign.Campaign{}, fmt.Errorf("campaign %s: %w", id, ErrCampaignNotFound)
	}
	if upd.IncrementCompleted {
		c.CompletedJobs++
	}
	if upd.IncrementFailed {
		c.FailedJobs++
	}
	if upd.Status != nil {
		c.Status = *upd.Status
	}
	if upd.ResultsFile != "" {
		c.ResultsFile = upd.ResultsFile
	}
	s.campaigns[id] = c
	return c.Clone(), nil
}

// ===================== Job operations =====================

func (s *Store) GetJob(id string) (job.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	if !ok {
		return job.Job{}, false
	}
	return j.Clone(), true
}

// UpdateJobStatus stamps started_at on transition to running and
// completed_at on any terminal status (complete/failed/cancelled);
// timed_out is intermediate and stamps neither.
func (s *Store) UpdateJobStatus(id string, status job.Status, workerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, job.ErrNotFound)
	}
	j.Status = status
	now := time.Now()
	switch status {
	case job.StatusRunning:
		j.StartedAt = &now
		if workerID != "" {
			j.WorkerID = workerID
		}
	case job.StatusComplete, job.StatusFailed, job.StatusCancelled:
		j.CompletedAt = &now
	}
	s.jobs[id] = j
	return nil
}

// ClearWorkerPin clears a job's worker assignment and resets it to
// pending, used by the retry engine before requeueing to a capability
// queue.
func (s *Store) ClearWorkerPin(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, job.ErrNotFound)
	}
	j.WorkerID = ""
	j.Status = job.StatusPending
	s.jobs[id] = j
	return nil
}

func (s *Store) SetJobRetryAfter(id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	j, ok := s.jobs[id]
	if !ok {
		return fmt.Errorf("job %s: %w", id, job.ErrNotFound)
	}
	j.RetryAfter = &at
	s.jobs[id] = j
	return nil
}

func (s *Store) GetJobsByCampaign(campaignID string) []job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]job.Job, 0)
	for _, j := range s.jobs {
		if j.CampaignID == campaignID {
			out = append(out, j.Clone())
		}
	}
	return out
}

func (s *Store) GetJobsByStatus(status job.Status) []job.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]job.Job, 0)
	for _, j := range s.jobs {
		if j.Status == status {
			out = append(out, j.Clone())
		}
	}
	return out
}

func (s *Store) IncrementJobRetry(id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return 0, fmt.Errorf("job %s: %w", id, job.ErrNotFound)
	}
	j.RetryCount++
	s.jobs[id] = j
	return j.RetryCount, nil
}

// ===================== Result operations =====================

// SaveResult is last-writer-wins: a second result for the same job_id
// simply overwrites the stored fields. Idempotency of campaign counters
// is the Result Processor's responsibility, not the store's.
func (s *Store) SaveResult(r result.Result) {
	r.SavedAt = time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.results[r.JobID] = r
}

func (s *Store) GetResult(jobID string) (result.Result, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.results[jobID]
	return r.Clone(), ok
}

// QueryResultsForCSV joins result x job x worker for one campaign, for
// the per-campaign CSV export.
func (s *Store) QueryResultsForCSV(campaignID string) []report.Row {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows := make([]report.Row, 0)
	for jobID, r := range s.results {
		j, ok := s.jobs[jobID]
		if !ok || j.CampaignID != campaignID {
			continue
		}
		w := s.workers[j.WorkerID]

		rows = append(rows, report.Row{
			CreatedUtc:            r.SavedAt,
			Status:                string(r.Status),
			UploadId:              r.UploadID,
			FileName:              r.FileName,
			FileSize:              r.FileSize,
			DeviceName:            w.DeviceName,
			DeviceYear:            w.Extracted.DeviceYear,
			Soc:                   w.Extracted.Soc,
			Ram:                   w.Extracted.RamGB,
			DiscreteGpu:           w.Extracted.DiscreteGPU,
			VRam:                  w.Extracted.VRam,
			DeviceOs:              w.Extracted.OS,
			DeviceOsVersion:       w.Extracted.OSVersion,
			ComputeUnits:          r.ComputeUnits,
			LoadMsMedian:          r.Metrics.LoadMsMedian,
			LoadMsStdDev:          r.Metrics.LoadMsStdDev,
			LoadMsAverage:         r.Metrics.LoadMsAverage,
			LoadMsFirst:           r.Metrics.LoadMsFirst,
			PeakLoadRamUsage:      r.Metrics.PeakLoadRamUsage,
			InferenceMsMedian:     r.Metrics.InferenceMsMedian,
			InferenceMsStdDev:     r.Metrics.InferenceMsStdDev,
			InferenceMsAverage:    r.Metrics.InferenceMsAverage,
			InferenceMsFirst:      r.Metrics.InferenceMsFirst,
			PeakInferenceRamUsage: r.Metrics.PeakInferenceRamUsage,
			JobId:                 jobID,
		})
	}
	return rows
}

// Reset wipes all in-memory state. Callers are expected to force a
// snapshot afterward so the wipe is durable.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.workers = make(map[string]worker.Worker)
	s.campaigns = make(map[string]campaign.Campaign)
	s.jobs = make(map[string]job.Job)
	s.results = make(map[string]result.Result)
	s.jobSeq = make(map[string]int)
}
