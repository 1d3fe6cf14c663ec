package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/benchorch/internal/domain/campaign"
	"github.com/geocoder89/benchorch/internal/domain/job"
	"github.com/geocoder89/benchorch/internal/domain/result"
)

func TestGetJob_NotFound(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.GET("/jobs/:id", deps.GetJob)

	rec := doRequest(t, r, http.MethodGet, "/jobs/missing", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestGetJob_IncludesResultWhenPresent(t *testing.T) {
	deps := newTestDeps()
	c, jobs := deps.Store.CreateCampaign(campaign.CreateRequest{
		ModelURL: "m.onnx",
		Jobs:     []campaign.JobSpec{{ComputeUnit: "gpu"}},
	})
	deps.Store.UpdateJobStatus(jobs[0].JobID, job.StatusRunning, "w-1")
	deps.Store.SaveResult(result.Result{JobID: jobs[0].JobID, CampaignID: c.CampaignID, Status: result.StatusComplete})

	r := gin.New()
	r.GET("/jobs/:id", deps.GetJob)

	rec := doRequest(t, r, http.MethodGet, "/jobs/"+jobs[0].JobID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if _, ok := resp["result"]; !ok {
		t.Fatalf("expected a result field once a result has been saved, body=%s", rec.Body.String())
	}
}
