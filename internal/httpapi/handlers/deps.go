// Package handlers implements the HTTP edge's route handlers, wired
// together by internal/httpapi.Router.
package handlers

import (
	"log/slog"

	"github.com/geocoder89/benchorch/internal/broker"
	"github.com/geocoder89/benchorch/internal/dispatch"
	"github.com/geocoder89/benchorch/internal/health"
	"github.com/geocoder89/benchorch/internal/observability"
	"github.com/geocoder89/benchorch/internal/retry"
	"github.com/geocoder89/benchorch/internal/store"
)

// Deps bundles every collaborator a handler needs. The composition root
// builds one of these and every route closes over it.
type Deps struct {
	Store      *store.Store
	Broker     broker.Broker
	Dispatcher *dispatch.Dispatcher
	Health     *health.Monitor
	Retry      *retry.Engine
	OutputsDir string
	Log        *slog.Logger
	Metrics    *observability.Prom // nil-safe: callers must check before use
}
