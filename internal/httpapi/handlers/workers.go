package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/benchorch/internal/domain/worker"
	"github.com/geocoder89/benchorch/internal/statemachine"
	"github.com/geocoder89/benchorch/internal/store"
)

// ListWorkers is GET /workers.
func (d *Deps) ListWorkers(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{"workers": d.Store.GetAllWorkers()})
}

// GetWorker is GET /workers/{id}.
func (d *Deps) GetWorker(ctx *gin.Context) {
	w, ok := d.Store.GetWorker(ctx.Param("id"))
	if !ok {
		RespondNotFound(ctx, "worker not found")
		return
	}
	ctx.JSON(http.StatusOK, w)
}

// Register is POST /register.
func (d *Deps) Register(ctx *gin.Context) {
	var req worker.RegisterRequest
	if !BindJSON(ctx, &req) {
		return
	}

	w, action := d.Store.RegisterWorker(req)

	status := "registered"
	if action == store.ActionUpdated || action == store.ActionRecovered {
		status = "updated"
	}

	ctx.JSON(http.StatusOK, gin.H{
		"worker_id": w.WorkerID,
		"status":    status,
		"action":    action,
	})
}

type setStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// SetStatus is PUT /workers/{id}/status.
func (d *Deps) SetStatus(ctx *gin.Context) {
	var req setStatusRequest
	if !BindJSON(ctx, &req) {
		return
	}

	target := worker.Status(req.Status)
	switch target {
	case worker.StatusActive, worker.StatusBusy, worker.StatusCleanup, worker.StatusFaulty:
	default:
		RespondBadRequest(ctx, "invalid status value")
		return
	}

	id := ctx.Param("id")
	if _, ok := d.Store.GetWorker(id); !ok {
		RespondNotFound(ctx, "worker not found")
		return
	}

	if err := d.Store.UpdateWorkerStatus(id, target); err != nil {
		var invalid *statemachine.InvalidStateTransition
		if errors.As(err, &invalid) {
			RespondBadRequest(ctx, invalid.Error())
			return
		}
		RespondInternal(ctx, "failed to update worker status")
		return
	}
	if target == worker.StatusFaulty && d.Metrics != nil {
		d.Metrics.WorkersFaultyTotal.Inc()
	}

	w, _ := d.Store.GetWorker(id)
	ctx.JSON(http.StatusOK, w)
}

// ResetWorker is PUT /workers/{id}/reset — operator recovery from faulty.
func (d *Deps) ResetWorker(ctx *gin.Context) {
	id := ctx.Param("id")
	err := d.Store.ResetWorker(id)
	switch {
	case errors.Is(err, store.ErrWorkerNotFound):
		RespondNotFound(ctx, "worker not found")
		return
	case errors.Is(err, store.ErrNotFaulty):
		RespondBadRequest(ctx, "worker is not faulty")
		return
	case err != nil:
		RespondInternal(ctx, "failed to reset worker")
		return
	}

	w, _ := d.Store.GetWorker(id)
	ctx.JSON(http.StatusOK, w)
}

// Heartbeat is POST /workers/{id}/heartbeat.
func (d *Deps) Heartbeat(ctx *gin.Context) {
	id := ctx.Param("id")
	previous, action, err := d.Health.RecordHeartbeat(id)
	if err != nil {
		RespondNotFound(ctx, "worker not found")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{
		"previous_status": previous,
		"action":          action,
	})
}

// WorkerHealth is GET /workers/{id}/health.
func (d *Deps) WorkerHealth(ctx *gin.Context) {
	h, err := d.Health.GetWorkerHealth(ctx.Param("id"))
	if err != nil {
		RespondNotFound(ctx, "worker not found")
		return
	}
	ctx.JSON(http.StatusOK, h)
}

// FleetHealth is GET /health/workers.
func (d *Deps) FleetHealth(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, gin.H{
		"workers": d.Health.GetAllHealth(),
		"summary": d.Health.Summary(),
	})
}
