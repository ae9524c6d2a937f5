package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/cutline"
	"github.com/aretw0/cutline/internal/logging"
	"github.com/aretw0/cutline/internal/source"
	"github.com/aretw0/cutline/pkg/config"
	"github.com/aretw0/cutline/pkg/domain"
	"github.com/aretw0/cutline/pkg/jobs"
	"github.com/aretw0/cutline/pkg/protocol"
	"github.com/go-chi/chi/v5"
)

// maxBody bounds request bodies.
const maxBody = 8 << 20

// Engine is the subset of cutline.Engine served over HTTP.
type Engine interface {
	Profile(ctx context.Context, name string) (domain.DeviceProfile, error)
	Compile(ctx context.Context, src domain.Source, profile domain.DeviceProfile, params domain.JobParams) (*cutline.Result, error)
	Plot(ctx context.Context, device string, src domain.Source, params domain.JobParams) (*domain.Job, error)
	Job(ctx context.Context, id string) (*domain.Job, error)
	Pause(ctx context.Context, id string) error
	Resume(ctx context.Context, id string) error
	Cancel(ctx context.Context, id string) error
	Devices() []jobs.DeviceInfo
}

// Server serves the conversion and job API.
type Server struct {
	Engine  Engine
	Streams *StreamManager

	metrics http.Handler
	logger  *slog.Logger
}

// Option configures the handler.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithStreams serves job events from sm. Its Hooks must be registered on
// the engine for events to flow.
func WithStreams(sm *StreamManager) Option {
	return func(s *Server) {
		s.Streams = sm
	}
}

// NewHandler creates a new HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		Engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.Streams == nil {
		s.Streams = NewStreamManager(s.logger)
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/dialects", s.ListDialects)
	r.Post("/convert", s.Convert)
	r.Get("/devices", s.ListDevices)
	r.Post("/devices/{device}/jobs", s.SubmitJob)
	r.Route("/jobs/{id}", func(r chi.Router) {
		r.Get("/", s.GetJob)
		r.Get("/events", s.SubscribeEvents)
		r.Post("/{action}", s.ControlJob)
	})
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// JobRequest is the body of POST /devices/{device}/jobs and the base of
// POST /convert. Exactly one of Source and SVG is required.
type JobRequest struct {
	Source *source.Document `json:"source,omitempty"`
	SVG    string           `json:"svg,omitempty"`
	Params map[string]any   `json:"params,omitempty"`
}

// ConvertRequest is the body of POST /convert. Profile names a known
// profile; ProfileSpec gives one inline.
type ConvertRequest struct {
	JobRequest
	Profile     string         `json:"profile,omitempty"`
	ProfileSpec map[string]any `json:"profile_spec,omitempty"`
}

// ConvertResponse describes an encoded program.
type ConvertResponse struct {
	Dialect string  `json:"dialect"`
	Groups  int     `json:"groups"`
	Bytes   int     `json:"bytes"`
	Travel  float64 `json:"travel"`
	Program string  `json:"program"`
}

func (req JobRequest) decode() (domain.Source, domain.JobParams, error) {
	var src domain.Source
	var err error
	switch {
	case req.Source != nil && req.SVG != "":
		return src, domain.JobParams{}, errors.New("source and svg are exclusive")
	case req.Source != nil:
		src, err = req.Source.Source()
	case req.SVG != "":
		src, err = source.ParseSVG(strings.NewReader(req.SVG))
	default:
		return src, domain.JobParams{}, errors.New("source or svg is required")
	}
	if err != nil {
		return src, domain.JobParams{}, err
	}

	params, err := config.DecodeParams(req.Params)
	return src, params, err
}

// Convert handles POST /convert. With ?raw=1 the program bytes are returned
// as application/octet-stream.
func (s *Server) Convert(w http.ResponseWriter, r *http.Request) {
	var body ConvertRequest
	if !s.decodeBody(w, r, &body) {
		return
	}

	src, params, err := body.decode()
	if err != nil {
		s.badRequest(w, "Convert", err)
		return
	}

	var profile domain.DeviceProfile
	switch {
	case body.ProfileSpec != nil:
		if profile, err = config.DecodeProfile(body.ProfileSpec); err != nil {
			s.badRequest(w, "Convert", err)
			return
		}
	case body.Profile != "":
		if profile, err = s.Engine.Profile(r.Context(), body.Profile); err != nil {
			s.fail(w, "Convert", err)
			return
		}
	}

	res, err := s.Engine.Compile(r.Context(), src, profile, params)
	if err != nil {
		s.fail(w, "Convert", err)
		return
	}

	if r.URL.Query().Get("raw") == "1" {
		w.Header().Set("Content-Type", "application/octet-stream")
		w.Header().Set("X-Cutline-Dialect", res.Program.Dialect)
		if _, err := w.Write(res.Program.Bytes()); err != nil {
			s.logger.Error("Convert response write failed", "err", err)
		}
		return
	}

	s.writeJSON(w, http.StatusOK, ConvertResponse{
		Dialect: res.Program.Dialect,
		Groups:  len(res.Program.Groups),
		Bytes:   res.Program.Size(),
		Travel:  res.Travel,
		Program: string(res.Program.Bytes()),
	})
}

// SubmitJob handles POST /devices/{device}/jobs.
func (s *Server) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var body JobRequest
	if !s.decodeBody(w, r, &body) {
		return
	}
	src, params, err := body.decode()
	if err != nil {
		s.badRequest(w, "SubmitJob", err)
		return
	}

	job, err := s.Engine.Plot(r.Context(), chi.URLParam(r, "device"), src, params)
	if err != nil {
		s.fail(w, "SubmitJob", err)
		return
	}
	w.Header().Set("Location", "/jobs/"+job.ID)
	s.writeJSON(w, http.StatusAccepted, job)
}

// GetJob handles GET /jobs/{id}.
func (s *Server) GetJob(w http.ResponseWriter, r *http.Request) {
	job, err := s.Engine.Job(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, "GetJob", err)
		return
	}
	s.writeJSON(w, http.StatusOK, job)
}

// ControlJob handles POST /jobs/{id}/{pause|resume|cancel}.
func (s *Server) ControlJob(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var fn func(context.Context, string) error
	switch action := chi.URLParam(r, "action"); action {
	case "pause":
		fn = s.Engine.Pause
	case "resume":
		fn = s.Engine.Resume
	case "cancel":
		fn = s.Engine.Cancel
	default:
		http.NotFound(w, r)
		return
	}

	if err := fn(r.Context(), id); err != nil {
		s.fail(w, "ControlJob", err)
		return
	}
	job, err := s.Engine.Job(r.Context(), id)
	if err != nil {
		s.fail(w, "ControlJob", err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, job)
}

// ListDevices handles GET /devices.
func (s *Server) ListDevices(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.Engine.Devices())
}

// ListDialects handles GET /dialects.
func (s *Server) ListDialects(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, protocol.Describe())
}

// GetHealth handles GET /healthz.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles GET /info.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "cutline-http",
		"version": strings.TrimSpace(cutline.Version),
	})
}

// -- Helpers --

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		s.badRequest(w, "decode", fmt.Errorf("invalid request body: %w", err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("Response encode failed", "err", err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func (s *Server) badRequest(w http.ResponseWriter, op string, err error) {
	s.logger.Warn(op+": bad request", "err", err)
	s.writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
}

// fail maps domain errors to status codes.
func (s *Server) fail(w http.ResponseWriter, op string, err error) {
	code := statusCode(err)
	body := errorBody{Error: err.Error()}
	if kind, ok := domain.KindOf(err); ok {
		body.Kind = string(kind)
	}
	if code >= 500 {
		s.logger.Error(op+" failed", "err", err)
	} else {
		s.logger.Warn(op+" rejected", "err", err)
	}
	s.writeJSON(w, code, body)
}

func statusCode(err error) int {
	switch {
	case errors.Is(err, domain.ErrJobNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, domain.ErrDeviceNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrDeviceBusy),
		errors.Is(err, domain.ErrNoActiveJob),
		errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrGeometry),
		errors.Is(err, domain.ErrCompensation),
		errors.Is(err, domain.ErrEncoding):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		return 499
	}
	return http.StatusInternalServerError
}
