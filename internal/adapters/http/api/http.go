// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	service "github.com/okian/posecoach/internal/app"
	"github.com/okian/posecoach/internal/domain/model"
	"github.com/okian/posecoach/internal/sampler"
)

// maxBodyBytes bounds request bodies; a ten minute session at 2 fps with
// full detections stays well below it.
const maxBodyBytes = 32 << 20

// Dependencies required by HTTP handlers.
type Dependencies interface {
	AnalyzeSession(ctx context.Context, req service.SessionRequest) (model.Analysis, error)
	Submit(ctx context.Context, req service.SessionRequest) (model.Job, error)
	Job(ctx context.Context, id string) (model.Job, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	statsHandler   *StatsHandler
	analyzeHandler *AnalyzeHandler
	jobsHandler    *JobsHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:  NewHealthHandler(),
		statsHandler:   NewStatsHandler(statsProvider),
		analyzeHandler: NewAnalyzeHandler(deps),
		jobsHandler:    NewJobsHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("/metrics", s.healthHandler.MetricsHandler())
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/analyze", MetricsMiddleware(s.analyzeHandler.HandleAnalyze, "analyze"))
	mux.HandleFunc("/analyses", MetricsMiddleware(s.jobsHandler.HandleSubmit, "analyses"))
	mux.HandleFunc("/analyses/", MetricsMiddleware(s.jobsHandler.HandleGet, "analyses_get"))
}

// sessionRequest mirrors the OpenAPI schema shared by POST /analyze and
// POST /analyses. Exactly one of frames or samples is expected; samples are
// raw estimator output and are normalised on the way in.
type sessionRequest struct {
	DurationSeconds float64                  `json:"durationSeconds"`
	Transcript      string                   `json:"transcript"`
	Frames          []model.Frame            `json:"frames"`
	Samples         []sampler.TimedDetection `json:"samples"`
	Enrich          bool                     `json:"enrich"`
}

func (r sessionRequest) validate() error {
	switch {
	case r.DurationSeconds < 0:
		return errors.New("durationSeconds must not be negative")
	case len(r.Frames) > 0 && len(r.Samples) > 0:
		return errors.New("send either frames or samples, not both")
	}
	return nil
}

func (r sessionRequest) toService() service.SessionRequest {
	frames := r.Frames
	if len(r.Samples) > 0 {
		frames = make([]model.Frame, 0, len(r.Samples))
		for _, s := range r.Samples {
			frames = append(frames, s.Detection.Frame(s.Time))
		}
	}
	return service.SessionRequest{
		Session:    model.Session{DurationSeconds: r.DurationSeconds, Frames: frames},
		Transcript: r.Transcript,
		Enrich:     r.Enrich,
	}
}

func decodeSession(w http.ResponseWriter, r *http.Request) (sessionRequest, error) {
	var req sessionRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return req, err
	}
	return req, req.validate()
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
