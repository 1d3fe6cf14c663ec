package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Health reports liveness plus broker reachability.
func (d *Deps) Health(ctx *gin.Context) {
	brokerStatus := "ok"
	if err := d.Broker.Ping(ctx.Request.Context()); err != nil {
		brokerStatus = "unavailable"
	}
	ctx.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"broker": brokerStatus,
	})
}

// Reset wipes all in-memory state and forces a snapshot, per the
// operator-facing POST /reset contract.
func (d *Deps) Reset(ctx *gin.Context) {
	d.Store.Reset()
	if err := d.Store.ForceSave(); err != nil {
		RespondInternal(ctx, "failed to persist reset state")
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "reset"})
}
