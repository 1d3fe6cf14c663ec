package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/benchorch/internal/domain/campaign"
)

// CreateCampaign is POST /campaigns: creates the campaign and its job rows,
// then dispatches each job to its routed queue.
func (d *Deps) CreateCampaign(ctx *gin.Context) {
	var req campaign.CreateRequest
	if !BindJSON(ctx, &req) {
		return
	}

	c, jobs := d.Store.CreateCampaign(req)

	for _, j := range jobs {
		if err := d.Dispatcher.Dispatch(ctx.Request.Context(), j); err != nil {
			d.Log.Error("failed to dispatch job at campaign creation", "job_id", j.JobID, "error", err)
			RespondError(ctx, http.StatusInternalServerError, "failed to enqueue one or more jobs")
			return
		}
		if d.Metrics != nil {
			route := "capability"
			if j.WorkerID != "" {
				route = "pinned"
			}
			d.Metrics.JobsDispatchedTotal.WithLabelValues(route).Inc()
		}
	}

	jobSummaries := make([]gin.H, 0, len(jobs))
	for _, j := range jobs {
		jobSummaries = append(jobSummaries, gin.H{
			"job_id":       j.JobID,
			"compute_unit": j.ComputeUnit,
			"status":       j.Status,
		})
	}

	ctx.JSON(http.StatusOK, gin.H{
		"campaign_id": c.CampaignID,
		"total_jobs":  c.TotalJobs,
		"status":      c.Status,
		"jobs":        jobSummaries,
	})
}

// ListCampaigns is GET /campaigns.
func (d *Deps) ListCampaigns(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"campaigns": d.Store.GetAllCampaigns()})
}

// GetCampaign is GET /campaigns/{id}.
func (d *Deps) GetCampaign(ctx *gin.Context) {
	id := ctx.Param("id")
	c, ok := d.Store.GetCampaign(id)
	if !ok {
		RespondNotFound(ctx, "campaign not found")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"campaign": c,
		"jobs":     d.Store.GetJobsByCampaign(id),
	})
}

// CampaignResults is GET /campaigns/{id}/results: streams the generated CSV.
func (d *Deps) CampaignResults(ctx *gin.Context) {
	id := ctx.Param("id")
	c, ok := d.Store.GetCampaign(id)
	if !ok {
		RespondNotFound(ctx, "campaign not found")
		return
	}
	if c.ResultsFile == "" {
		RespondNotFound(ctx, "results not available for this campaign")
		return
	}
	ctx.FileAttachment(c.ResultsFile, id+"_results.csv")
}
