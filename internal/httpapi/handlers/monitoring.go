package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// MonitoringStats is GET /monitoring/stats: merges the fleet health
// summary with the timeout/retry engine's counters.
func (d *Deps) MonitoringStats(ctx *gin.Context) {
	resp := gin.H{
		"health": d.Health.Summary(),
	}
	if d.Retry != nil {
		resp["retry"] = d.Retry.Stats()
	}
	ctx.JSON(http.StatusOK, resp)
}
