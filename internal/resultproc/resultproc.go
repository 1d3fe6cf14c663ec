// Package resultproc drains the results queue, updates job/campaign state,
// and generates the per-campaign CSV report once every job has settled.
package resultproc

import (
	"context"
	"errors"
	"log/slog"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/geocoder89/benchorch/internal/broker"
	"github.com/geocoder89/benchorch/internal/domain/campaign"
	"github.com/geocoder89/benchorch/internal/domain/job"
	"github.com/geocoder89/benchorch/internal/domain/result"
	"github.com/geocoder89/benchorch/internal/report"
	"github.com/geocoder89/benchorch/internal/store"
)

var errUnrecognizedStatus = errors.New("unrecognized result status")

// Hooks lets the composition root observe processor activity for metrics.
type Hooks struct {
	OnResult           func(status result.Status)
	OnCampaignComplete func(c campaign.Campaign)
}

// Processor is the single consumer of the results queue.
type Processor struct {
	store      *store.Store
	broker     broker.Broker
	outputsDir string
	pollTimeout time.Duration
	log        *slog.Logger
	hooks      Hooks
}

func New(st *store.Store, b broker.Broker, outputsDir string, pollTimeout time.Duration, log *slog.Logger, hooks Hooks) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{
		store:       st,
		broker:      b,
		outputsDir:  outputsDir,
		pollTimeout: pollTimeout,
		log:         log,
		hooks:       hooks,
	}
}

// Run blocks on the results queue until ctx is cancelled.
func (p *Processor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		_, payload, ok, err := p.broker.PopBlocking(ctx, []string{broker.ResultsQueue}, p.pollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Error("result queue poll failed", "error", err)
			time.Sleep(time.Second)
			continue
		}
		if !ok {
			continue
		}

		var r result.Result
		if err := gojson.Unmarshal([]byte(payload), &r); err != nil {
			p.log.Error("malformed result payload, dropping", "error", err, "payload", payload)
			continue
		}
		p.processResult(r)
	}
}

func (p *Processor) processResult(r result.Result) {
	existing, hadPrior := p.store.GetJob(r.JobID)
	wasAlreadyTerminal := hadPrior && existing.Terminal()

	p.store.SaveResult(r)
	if p.hooks.OnResult != nil {
		p.hooks.OnResult(r.Status)
	}

	jobStatus, err := jobStatusFor(r.Status)
	if err != nil {
		p.log.Error("result with unrecognized status, not applied to job", "job_id", r.JobID, "status", r.Status)
		return
	}
	if err := p.store.UpdateJobStatus(r.JobID, jobStatus, r.WorkerID); err != nil {
		p.log.Error("failed to update job status from result", "job_id", r.JobID, "error", err)
		return
	}

	if r.CampaignID == "" {
		return
	}

	// A second terminal result for the same job must not double-count
	// the campaign counters.
	if wasAlreadyTerminal {
		p.log.Warn("duplicate terminal result ignored for campaign accounting", "job_id", r.JobID, "status", r.Status)
		return
	}

	upd := store.CampaignProgressUpdate{}
	switch r.Status {
	case result.StatusComplete:
		upd.IncrementCompleted = true
	case result.StatusFailed:
		upd.IncrementFailed = true
	default:
		p.log.Warn("result with unrecognized status, not counted toward campaign totals", "job_id", r.JobID, "status", r.Status)
		return
	}

	c, err := p.store.UpdateCampaignProgress(r.CampaignID, upd)
	if err != nil {
		p.log.Error("failed to update campaign progress", "campaign_id", r.CampaignID, "error", err)
		return
	}

	if !c.Done() {
		return
	}
	p.finalizeCampaign(c)
}

func jobStatusFor(s result.Status) (job.Status, error) {
	switch s {
	case result.StatusComplete:
		return job.StatusComplete, nil
	case result.StatusFailed:
		return job.StatusFailed, nil
	default:
		return "", errUnrecognizedStatus
	}
}

func (p *Processor) finalizeCampaign(c campaign.Campaign) {
	p.log.Info("campaign complete", "campaign_id", c.CampaignID, "completed", c.CompletedJobs, "failed", c.FailedJobs, "total", c.TotalJobs)

	rows := p.store.QueryResultsForCSV(c.CampaignID)
	path, err := report.WriteFile(p.outputsDir, c.CampaignID, rows, time.Now())
	if err != nil {
		p.log.Error("failed to generate campaign CSV", "campaign_id", c.CampaignID, "error", err)
	}

	completed := campaign.StatusCompleted
	final, err := p.store.UpdateCampaignProgress(c.CampaignID, store.CampaignProgressUpdate{
		Status:      &completed,
		ResultsFile: path,
	})
	if err != nil {
		p.log.Error("failed to mark campaign completed", "campaign_id", c.CampaignID, "error", err)
	}

	if err := p.store.ForceSave(); err != nil {
		p.log.Warn("forced snapshot after campaign completion failed", "campaign_id", c.CampaignID, "error", err)
	}

	if err == nil && p.hooks.OnCampaignComplete != nil {
		p.hooks.OnCampaignComplete(final)
	}
}
