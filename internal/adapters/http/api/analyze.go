package api

import (
	"context"
	"errors"
	"net/http"

	service "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/domain/aggregate"
	"github.com/okian/posecoach/internal/domain/model"
)

// AnalyzeDependencies runs a synchronous analysis.
type AnalyzeDependencies interface {
	AnalyzeSession(ctx context.Context, req service.SessionRequest) (model.Analysis, error)
}

// AnalyzeHandler handles POST /analyze.
type AnalyzeHandler struct {
	deps AnalyzeDependencies
}

// NewAnalyzeHandler creates a new analyze handler.
func NewAnalyzeHandler(deps AnalyzeDependencies) *AnalyzeHandler {
	return &AnalyzeHandler{deps: deps}
}

// HandleAnalyze analyses the posted session and returns the Analysis.
func (h *AnalyzeHandler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "api.analyze"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	req, err := decodeSession(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	a, err := h.deps.AnalyzeSession(r.Context(), req.toService())
	switch {
	case errors.Is(err, aggregate.ErrOutOfOrder):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "internal", WrapKind(op, ErrInternal, err))
		return
	}
	writeJSON(w, http.StatusOK, a)
}
