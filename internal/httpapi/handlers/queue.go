package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/benchorch/internal/dispatch"
)

// QueueStatus is GET /queue/status: reports the depth of every worker
// personal queue and every capability queue currently in play, derived
// from the registered worker fleet.
func (d *Deps) QueueStatus(ctx *gin.Context) {
	workers := d.Store.GetAllWorkers()

	workerSizes := make(map[string]int64, len(workers))
	capSeen := make(map[string]struct{})

	reqCtx := ctx.Request.Context()
	for _, w := range workers {
		n, err := d.Broker.Length(reqCtx, dispatch.WorkerQueue(w.WorkerID))
		if err != nil {
			RespondInternal(ctx, "failed to query queue sizes")
			return
		}
		workerSizes[w.WorkerID] = n

		for _, c := range w.Capabilities {
			capSeen[c] = struct{}{}
		}
	}

	capabilitySizes := make(map[string]int64, len(capSeen))
	for c := range capSeen {
		n, err := d.Broker.Length(reqCtx, dispatch.CapabilityQueue(c))
		if err != nil {
			RespondInternal(ctx, "failed to query queue sizes")
			return
		}
		capabilitySizes[c] = n
	}

	ctx.JSON(http.StatusOK, gin.H{
		"workers":      workerSizes,
		"capabilities": capabilitySizes,
	})
}
