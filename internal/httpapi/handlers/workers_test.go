package handlers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/benchorch/internal/domain/worker"
)

func registerBody(udid string) gin.H {
	return gin.H{
		"device_name":  "pixel-7",
		"ip_address":   "1.1.1.1",
		"capabilities": []string{"gpu"},
		"device_info":  gin.H{"udid": udid},
	}
}

func TestRegister_FirstCallCreatesWorker(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.POST("/register", deps.Register)

	rec := doRequest(t, r, http.MethodPost, "/register", registerBody("w-1"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		WorkerID string `json:"worker_id"`
		Status   string `json:"status"`
		Action   string `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Action != "created" || resp.Status != "registered" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestRegister_SecondCallWithSameUDIDIsIdempotentUpdate(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.POST("/register", deps.Register)

	doRequest(t, r, http.MethodPost, "/register", registerBody("w-1"))
	rec := doRequest(t, r, http.MethodPost, "/register", registerBody("w-1"))

	var resp struct {
		Status string `json:"status"`
		Action string `json:"action"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Action != "updated" || resp.Status != "updated" {
		t.Fatalf("re-registering the same device should be an idempotent update, got %+v", resp)
	}
}

func TestRegister_RecoversAFaultyWorker(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.POST("/register", deps.Register)

	first := doRequest(t, r, http.MethodPost, "/register", registerBody("w-1"))
	var created struct {
		WorkerID string `json:"worker_id"`
	}
	json.Unmarshal(first.Body.Bytes(), &created)

	if err := deps.Store.UpdateWorkerStatus(created.WorkerID, worker.StatusFaulty); err != nil {
		t.Fatalf("failed to mark worker faulty: %v", err)
	}

	rec := doRequest(t, r, http.MethodPost, "/register", registerBody("w-1"))
	var resp struct {
		Action string `json:"action"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Action != "recovered" {
		t.Fatalf("re-registering a faulty worker should report action=recovered, got %q", resp.Action)
	}

	w, _ := deps.Store.GetWorker(created.WorkerID)
	if w.Status != worker.StatusActive {
		t.Fatalf("worker status after recovery = %s, want active", w.Status)
	}
}

func TestSetStatus_InvalidTransitionReturns400(t *testing.T) {
	deps := newTestDeps()
	w, _ := deps.Store.RegisterWorker(worker.RegisterRequest{
		DeviceName: "d", IPAddress: "1.1.1.1", Capabilities: []string{"gpu"}, DeviceInfo: map[string]any{"udid": "w-1"},
	})

	r := gin.New()
	r.PUT("/workers/:id/status", deps.SetStatus)

	rec := doRequest(t, r, http.MethodPut, "/workers/"+w.WorkerID+"/status", gin.H{"status": "cleanup"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for an active->cleanup transition", rec.Code)
	}
}

func TestSetStatus_ValidTransitionSucceeds(t *testing.T) {
	deps := newTestDeps()
	w, _ := deps.Store.RegisterWorker(worker.RegisterRequest{
		DeviceName: "d", IPAddress: "1.1.1.1", Capabilities: []string{"gpu"}, DeviceInfo: map[string]any{"udid": "w-1"},
	})

	r := gin.New()
	r.PUT("/workers/:id/status", deps.SetStatus)

	rec := doRequest(t, r, http.MethodPut, "/workers/"+w.WorkerID+"/status", gin.H{"status": "busy"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 for an active->busy transition, body=%s", rec.Code, rec.Body.String())
	}

	got, _ := deps.Store.GetWorker(w.WorkerID)
	if got.Status != worker.StatusBusy {
		t.Fatalf("worker status = %s, want busy", got.Status)
	}
}

func TestSetStatus_UnknownWorkerReturns404(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.PUT("/workers/:id/status", deps.SetStatus)

	rec := doRequest(t, r, http.MethodPut, "/workers/missing/status", gin.H{"status": "busy"})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestResetWorker_NotFaultyReturns400(t *testing.T) {
	deps := newTestDeps()
	w, _ := deps.Store.RegisterWorker(worker.RegisterRequest{
		DeviceName: "d", IPAddress: "1.1.1.1", Capabilities: []string{"gpu"}, DeviceInfo: map[string]any{"udid": "w-1"},
	})

	r := gin.New()
	r.PUT("/workers/:id/reset", deps.ResetWorker)

	rec := doRequest(t, r, http.MethodPut, "/workers/"+w.WorkerID+"/reset", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400 for resetting a non-faulty worker", rec.Code)
	}
}

func TestResetWorker_RecoversFaultyWorker(t *testing.T) {
	deps := newTestDeps()
	w, _ := deps.Store.RegisterWorker(worker.RegisterRequest{
		DeviceName: "d", IPAddress: "1.1.1.1", Capabilities: []string{"gpu"}, DeviceInfo: map[string]any{"udid": "w-1"},
	})
	deps.Store.UpdateWorkerStatus(w.WorkerID, worker.StatusFaulty)

	r := gin.New()
	r.PUT("/workers/:id/reset", deps.ResetWorker)

	rec := doRequest(t, r, http.MethodPut, "/workers/"+w.WorkerID+"/reset", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	got, _ := deps.Store.GetWorker(w.WorkerID)
	if got.Status != worker.StatusActive {
		t.Fatalf("worker status after reset = %s, want active", got.Status)
	}
}

func TestResetWorker_UnknownWorkerReturns404(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.PUT("/workers/:id/reset", deps.ResetWorker)

	rec := doRequest(t, r, http.MethodPut, "/workers/missing/reset", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHeartbeat_UnknownWorkerReturns404(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.POST("/workers/:id/heartbeat", deps.Heartbeat)

	rec := doRequest(t, r, http.MethodPost, "/workers/missing/heartbeat", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestHeartbeat_KnownWorkerReportsPreviousStatus(t *testing.T) {
	deps := newTestDeps()
	w, _ := deps.Store.RegisterWorker(worker.RegisterRequest{
		DeviceName: "d", IPAddress: "1.1.1.1", Capabilities: []string{"gpu"}, DeviceInfo: map[string]any{"udid": "w-1"},
	})

	r := gin.New()
	r.POST("/workers/:id/heartbeat", deps.Heartbeat)

	rec := doRequest(t, r, http.MethodPost, "/workers/"+w.WorkerID+"/heartbeat", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body=%s", rec.Code, rec.Body.String())
	}

	var resp struct {
		PreviousStatus string `json:"previous_status"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.PreviousStatus != string(worker.StatusActive) {
		t.Fatalf("previous_status = %q, want active", resp.PreviousStatus)
	}
}

func TestWorkerHealth_UnknownWorkerReturns404(t *testing.T) {
	deps := newTestDeps()
	r := gin.New()
	r.GET("/workers/:id/health", deps.WorkerHealth)

	rec := doRequest(t, r, http.MethodGet, "/workers/missing/health", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestFleetHealth_ReportsSummaryAcrossWorkers(t *testing.T) {
	deps := newTestDeps()
	deps.Store.RegisterWorker(worker.RegisterRequest{DeviceName: "a", IPAddress: "1.1.1.1", Capabilities: []string{"cpu"}, DeviceInfo: map[string]any{"udid": "a"}})
	w2, _ := deps.Store.RegisterWorker(worker.RegisterRequest{DeviceName: "b", IPAddress: "1.1.1.2", Capabilities: []string{"cpu"}, DeviceInfo: map[string]any{"udid": "b"}})
	deps.Store.UpdateWorkerStatus(w2.WorkerID, worker.StatusFaulty)

	r := gin.New()
	r.GET("/health/workers", deps.FleetHealth)

	rec := doRequest(t, r, http.MethodGet, "/health/workers", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var resp struct {
		Summary struct {
			Total  int `json:"total"`
			Active int `json:"active"`
			Faulty int `json:"faulty"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if resp.Summary.Total != 2 || resp.Summary.Active != 1 || resp.Summary.Faulty != 1 {
		t.Fatalf("unexpected fleet summary: %+v", resp.Summary)
	}
}
