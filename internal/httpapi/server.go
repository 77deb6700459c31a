// Package httpapi exposes the `/api/*` HTTP surface (§6) on top of the
// orchestrator, catalogue, and feedback service. Handlers follow the
// teacher's `Handler{svc}` / `NewHandler` / `RegisterRoutes` shape.
package httpapi

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/arzttarif/tarifengine/internal/catalog"
	"github.com/arzttarif/tarifengine/internal/feedback"
	"github.com/arzttarif/tarifengine/internal/orchestrator"
)

// Orchestrator is the subset of *orchestrator.Orchestrator the HTTP
// layer needs, narrowed to ease testing with a stub.
type Orchestrator interface {
	Run(ctx context.Context, req orchestrator.Request) (*orchestrator.Response, error)
}

// FeedbackService is the subset of *feedback.Service the HTTP layer
// needs.
type FeedbackService interface {
	Submit(ctx context.Context, r *feedback.Report) (*feedback.Report, error)
}

// Handler wires the orchestrator, catalogue, and feedback service into
// echo routes.
type Handler struct {
	log          zerolog.Logger
	orchestrator Orchestrator
	store        *catalog.Store
	feedback     FeedbackService
	version      string
	tarifVersion string
}

// NewHandler builds a Handler.
func NewHandler(log zerolog.Logger, orch Orchestrator, store *catalog.Store, fb FeedbackService, version, tarifVersion string) *Handler {
	return &Handler{log: log, orchestrator: orch, store: store, feedback: fb, version: version, tarifVersion: tarifVersion}
}
