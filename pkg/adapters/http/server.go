package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aretw0/stepper/internal/logging"
	"github.com/aretw0/stepper/pkg/algorithms"
	"github.com/aretw0/stepper/pkg/domain"
	"github.com/aretw0/stepper/pkg/session"
	"github.com/aretw0/stepper/pkg/share"
	"github.com/go-chi/chi/v5"
)

// Server exposes playback sessions over HTTP.
type Server struct {
	sessions *session.Manager
	codec    *share.Codec[share.VisualizerState]
	baseURL  string
	version  string
	metrics  http.Handler
	logger   *slog.Logger
}

// Option configures the Server.
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

// WithShareBase sets the page share links point to.
func WithShareBase(baseURL string) Option {
	return func(s *Server) {
		s.baseURL = baseURL
	}
}

// WithShareCodec replaces the default fragment codec, e.g. to add a prefix.
func WithShareCodec(codec *share.Codec[share.VisualizerState]) Option {
	return func(s *Server) {
		s.codec = codec
	}
}

// WithVersion sets the version reported by /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewHandler creates the HTTP handler for sessions.
func NewHandler(sessions *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		sessions: sessions,
		codec:    share.NewVisualizerCodec(),
		baseURL:  "http://localhost/",
		version:  "dev",
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Get("/algorithms", s.ListAlgorithms)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Get("/", s.ListSessions)
		r.Post("/", s.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Get("/trace", s.GetTrace)
			r.Get("/share", s.GetShare)
			r.Get("/events", s.SubscribeEvents)
			r.Post("/seek", s.Seek)
			r.Post("/speed", s.SetSpeed)
			r.Post("/reinitialize", s.Reinitialize)
			r.Post("/{op}", s.Control)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// SessionResponse is the representation of a session.
type SessionResponse struct {
	ID        string        `json:"id"`
	Algorithm string        `json:"algorithm"`
	Params    domain.Params `json:"params,omitempty"`
	View      domain.View   `json:"view"`
}

// CreateRequest is the body of POST /sessions.
// Fragment, when set, is a share fragment restored into the new session.
type CreateRequest struct {
	Algorithm string        `json:"algorithm"`
	Params    domain.Params `json:"params,omitempty"`
	Speed     *int          `json:"speed,omitempty"`
	Fragment  string        `json:"fragment,omitempty"`
}

// ShareResponse is the body of GET /sessions/{id}/share.
type ShareResponse struct {
	Fragment string `json:"fragment"`
	Link     string `json:"link"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"app":      "stepper-http",
		"version":  s.version,
		"sessions": s.sessions.Len(),
	})
}

// ListAlgorithms handles the GET /algorithms request.
func (s *Server) ListAlgorithms(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.sessions.Registry().List())
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	list := s.sessions.List()
	out := make([]SessionResponse, 0, len(list))
	for _, sess := range list {
		out = append(out, toResponse(sess))
	}
	s.writeJSON(w, http.StatusOK, out)
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var body CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}

	params := domain.Params{}
	var restored *share.VisualizerState
	if body.Fragment != "" {
		restored = s.codec.Decode(body.Fragment)
		if restored != nil {
			params = algorithms.ParamsFromShare(*restored)
			if body.Algorithm == "" {
				body.Algorithm = restored.Algorithm
			}
		}
	}
	for k, v := range body.Params {
		params[k] = v
	}
	if body.Algorithm == "" {
		s.writeError(w, http.StatusBadRequest, errors.New("algorithm is required"))
		return
	}

	sess, err := s.sessions.Create(r.Context(), body.Algorithm, params)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if restored != nil {
		share.Apply(*restored, sess.Controller)
	}
	if body.Speed != nil {
		sess.Controller.SetSpeed(*body.Speed)
	}

	s.logger.Info("session created over http", "session_id", sess.ID, "algorithm", sess.Algorithm())
	s.writeJSON(w, http.StatusCreated, toResponse(sess))
}

// GetSession handles the GET /sessions/{id} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// DeleteSession handles the DELETE /sessions/{id} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Close(chi.URLParam(r, "id")); err != nil {
		s.writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetTrace handles the GET /sessions/{id}/trace request.
func (s *Server) GetTrace(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, sess.Controller.Trace())
}

// Control handles POST /sessions/{id}/{play|pause|toggle|step|back|reset}.
func (s *Server) Control(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	ctrl := sess.Controller
	switch op := chi.URLParam(r, "op"); op {
	case "play":
		ctrl.Play()
	case "pause":
		ctrl.Pause()
	case "toggle":
		ctrl.Toggle()
	case "step":
		ctrl.Step()
	case "back":
		ctrl.StepBack()
	case "reset":
		if err := ctrl.Reset(); err != nil {
			s.writeError(w, http.StatusInternalServerError, fmt.Errorf("reset: %w", err))
			return
		}
	default:
		s.writeError(w, http.StatusNotFound, fmt.Errorf("unknown operation %q", op))
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// Seek handles the POST /sessions/{id}/seek request.
func (s *Server) Seek(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Index *int `json:"index"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"index\": <int>}"))
		return
	}
	sess.Controller.Seek(*body.Index)
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// SetSpeed handles the POST /sessions/{id}/speed request.
func (s *Server) SetSpeed(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var body struct {
		Speed *int `json:"speed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Speed == nil {
		s.writeError(w, http.StatusBadRequest, errors.New("body must be {\"speed\": <int>}"))
		return
	}
	sess.Controller.SetSpeed(*body.Speed)
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// Reinitialize handles the POST /sessions/{id}/reinitialize request.
func (s *Server) Reinitialize(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var body struct {
		Algorithm string        `json:"algorithm"`
		Params    domain.Params `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if err := s.sessions.Reinitialize(r.Context(), id, body.Algorithm, body.Params); err != nil {
		s.writeDomainError(w, err)
		return
	}
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(sess))
}

// GetShare handles the GET /sessions/{id}/share request.
func (s *Server) GetShare(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	loc, err := share.NewLocation(s.baseURL)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	state := algorithms.ShareState(sess.Algorithm(), sess.Controller.Params(), sess.Controller.State())
	link := s.codec.Write(loc, state)
	s.writeJSON(w, http.StatusOK, ShareResponse{Fragment: loc.Fragment(), Link: link})
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.writeDomainError(w, err)
		return nil, false
	}
	return sess, true
}

func toResponse(sess *session.Session) SessionResponse {
	return SessionResponse{
		ID:        sess.ID,
		Algorithm: sess.Algorithm(),
		Params:    sess.Controller.Params(),
		View:      sess.Controller.View(),
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "status", status, "error", err)
	} else {
		s.logger.Warn("request rejected", "status", status, "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUnknownAlgorithm):
		s.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, domain.ErrInvalidParams), errors.Is(err, domain.ErrEmptyTrace):
		s.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, session.ErrTooManySessions):
		s.writeError(w, http.StatusTooManyRequests, err)
	default:
		s.writeError(w, http.StatusInternalServerError, err)
	}
}
