// Package campaign holds the Campaign entity: a user-submitted batch of
// benchmarking jobs against one model.
package campaign

import "time"

type Status string

const (
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusPartial   Status = "partial"
	StatusFailed    Status = "failed"
)

type Campaign struct {
	CampaignID   string    `json:"campaign_id"`
	ModelURL     string    `json:"model_url"`
	TotalJobs    int       `json:"total_jobs"`
	CompletedJobs int      `json:"completed_jobs"`
	FailedJobs   int       `json:"failed_jobs"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	ResultsFile  string    `json:"results_file,omitempty"`
}

// JobSpec is one element of a campaign creation request's jobs list.
type JobSpec struct {
	ComputeUnit      string `json:"compute_unit"`
	WorkerID         string `json:"worker_id,omitempty"`
	NumInferenceRuns int    `json:"num_inference_runs,omitempty"`
	TimeoutSeconds   int    `json:"timeout_seconds,omitempty"`
}

// CreateRequest is the inbound payload for POST /campaigns.
type CreateRequest struct {
	ModelURL string    `json:"model_url" binding:"required"`
	Jobs     []JobSpec `json:"jobs" binding:"required"`
}

func (c Campaign) Clone() Campaign { return c }

// Done reports whether every job has reached a terminal outcome.
func (c Campaign) Done() bool {
	return c.TotalJobs > 0 && c.CompletedJobs+c.FailedJobs >= c.TotalJobs
}
