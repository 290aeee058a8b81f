package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/posecoach/internal/adapters/repository"
	service "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
)

// JobDependencies submits and looks up async analyses.
type JobDependencies interface {
	Submit(ctx context.Context, req service.SessionRequest) (model.Job, error)
	Job(ctx context.Context, id string) (model.Job, error)
}

// JobsHandler handles /analyses.
type JobsHandler struct {
	deps JobDependencies
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(deps JobDependencies) *JobsHandler {
	return &JobsHandler{deps: deps}
}

type submitResponse struct {
	ID     string          `json:"id"`
	Status model.JobStatus `json:"status"`
}

// HandleSubmit handles POST /analyses.
func (h *JobsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_analysis"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeSession(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	job, err := h.deps.Submit(r.Context(), req.toService())
	switch {
	case err == nil:
		w.Header().Set("Location", "/analyses/"+job.ID)
		writeJSON(w, http.StatusAccepted, submitResponse{ID: job.ID, Status: job.Status})
	case errors.Is(err, aggregate.ErrOutOfOrder):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	case errors.Is(err, service.ErrQueueFull):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}

// HandleGet handles GET /analyses/{id}.
func (h *JobsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_analysis"
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/analyses/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	job, err := h.deps.Job(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, job)
	case errors.Is(err, repository.ErrJobNotFound):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case errors.Is(err, service.ErrNotStarted):
		writeError(w, http.StatusServiceUnavailable, "unavailable", WrapKind(op, ErrUnavailable, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
	}
}
