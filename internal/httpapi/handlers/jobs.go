package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetJob is GET /jobs/{id}: the job row, its result (if any), and its
// retry history.
func (d *Deps) GetJob(ctx *gin.Context) {
	id := ctx.Param("id")
	j, ok := d.Store.GetJob(id)
	if !ok {
		RespondNotFound(ctx, "job not found")
		return
	}

	resp := gin.H{"job": j}

	if r, ok := d.Store.GetResult(id); ok {
		resp["result"] = r
	}
	if d.Retry != nil {
		resp["retry_history"] = d.Retry.Tracker().History(id)
	}

	ctx.JSON(http.StatusOK, resp)
}
