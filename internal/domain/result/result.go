// Package result holds the Result entity: the terminal measurement
// document a worker publishes for one job.
package result

import "time"

type Status string

const (
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Metrics is a tagged bag of optional numeric measurements. Missing fields
// serialize as empty strings in the CSV report, matching the worker's
// heterogeneous result payloads.
type Metrics struct {
	LoadMsMedian          *float64 `json:"LoadMsMedian,omitempty"`
	LoadMsStdDev          *float64 `json:"LoadMsStdDev,omitempty"`
	LoadMsAverage         *float64 `json:"LoadMsAverage,omitempty"`
	LoadMsFirst           *float64 `json:"LoadMsFirst,omitempty"`
	PeakLoadRamUsage      *float64 `json:"PeakLoadRamUsage,omitempty"`
	InferenceMsMedian     *float64 `json:"InferenceMsMedian,omitempty"`
	InferenceMsStdDev     *float64 `json:"InferenceMsStdDev,omitempty"`
	InferenceMsAverage    *float64 `json:"InferenceMsAverage,omitempty"`
	InferenceMsFirst      *float64 `json:"InferenceMsFirst,omitempty"`
	PeakInferenceRamUsage *float64 `json:"PeakInferenceRamUsage,omitempty"`
}

// Result is the message a worker publishes to the results channel once a
// job finishes (successfully or not).
type Result struct {
	JobID        string    `json:"job_id"`
	CampaignID   string    `json:"campaign_id,omitempty"`
	Status       Status    `json:"status"`
	WorkerID     string    `json:"worker_id,omitempty"`
	UploadID     string    `json:"UploadId,omitempty"`
	FileName     string    `json:"FileName,omitempty"`
	FileSize     int64     `json:"FileSize,omitempty"`
	ComputeUnits string    `json:"ComputeUnits,omitempty"`
	Remark       string    `json:"remark,omitempty"`
	Metrics      Metrics   `json:"metrics"`
	SavedAt      time.Time `json:"saved_at"`
}

func (r Result) Clone() Result { return r }
