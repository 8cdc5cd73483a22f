package pipeline

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/gradethread/gradethread/internal/reports"
	"github.com/gradethread/gradethread/internal/submissions"
	"github.com/gradethread/gradethread/pkg/handlers"
	"github.com/gradethread/gradethread/pkg/routes"
)

// Handler exposes the synchronous grading trigger.
type Handler struct {
	orchestrator *Orchestrator
	logger       *slog.Logger
}

// NewHandler creates a Handler for the grading trigger endpoint.
func NewHandler(orchestrator *Orchestrator, logger *slog.Logger) *Handler {
	return &Handler{
		orchestrator: orchestrator,
		logger:       logger.With("handler", "grades"),
	}
}

// Routes returns the route group definition for grading endpoints.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/grades",
		Routes: []routes.Route{
			{Method: "POST", Pattern: "/{submissionID}", Handler: h.Grade},
		},
	}
}

// Grade runs the pipeline for a submission and returns the persisted report.
func (h *Handler) Grade(w http.ResponseWriter, r *http.Request) {
	submissionID, err := uuid.Parse(r.PathValue("submissionID"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, submissions.ErrInvalidID)
		return
	}

	report, err := h.orchestrator.Process(r.Context(), submissionID)
	if err != nil {
		handlers.RespondError(w, h.logger, mapStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, report)
}

func mapStatus(err error) int {
	switch {
	case errors.Is(err, submissions.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, submissions.ErrInvalidState), errors.Is(err, reports.ErrDuplicate):
		return http.StatusConflict
	case errors.Is(err, submissions.ErrNoImages):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
