// Package http exposes essays over a JSON API and implements the suggestion
// gateway as an HTTP client.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aretw0/quill/internal/logging"
	"github.com/aretw0/quill/pkg/domain"
	"github.com/aretw0/quill/pkg/ports"
	"github.com/aretw0/quill/pkg/workflow"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Repository is the document store the API serves.
type Repository interface {
	CreateNewEssay(ctx context.Context, title string) (*domain.EssayData, error)
	GetAllEssays(ctx context.Context) ([]domain.Essay, error)
	GetEssayData(ctx context.Context, id string) (*domain.EssayData, error)
	Update(ctx context.Context, id string, fn func(*domain.EssayData) bool) (*domain.EssayData, error)
	DeleteEssay(ctx context.Context, id string) error
	SaveDraftSnapshot(ctx context.Context, id, content string) (domain.DraftSnapshot, error)
	GetDraftSnapshots(ctx context.Context, id string) ([]domain.DraftSnapshot, error)
}

// Navigator moves documents between steps.
type Navigator interface {
	Advance(ctx context.Context, d *domain.EssayData) (domain.Step, error)
	GoTo(ctx context.Context, d *domain.EssayData, s domain.Step) error
	Thresholds() workflow.Thresholds
}

// Server holds the API dependencies.
type Server struct {
	repo    Repository
	nav     Navigator
	gateway ports.SuggestionGateway
	metrics http.Handler
	version string
	logger  *slog.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithGateway serves POST /api/suggestions from g.
func WithGateway(g ports.SuggestionGateway) Option {
	return func(s *Server) {
		s.gateway = g
	}
}

// WithMetrics serves h on GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithVersion sets the version reported by GET /info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = strings.TrimSpace(v)
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(repo Repository, nav Navigator, opts ...Option) http.Handler {
	s := &Server{
		repo:    repo,
		nav:     nav,
		version: "unknown",
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(enableCORS)

	r.Get("/health", s.getHealth)
	r.Get("/info", s.getInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/suggestions", s.postSuggestions)
		r.Get("/steps", s.getSteps)

		r.Route("/essays", func(r chi.Router) {
			r.Get("/", s.listEssays)
			r.Post("/", s.createEssay)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.getEssay)
				r.Put("/", s.putEssay)
				r.Delete("/", s.deleteEssay)
				r.Get("/status", s.getStatus)
				r.Post("/advance", s.advance)
				r.Post("/goto", s.goTo)
				r.Get("/drafts", s.listDrafts)
				r.Post("/drafts", s.createDraft)
			})
		})
	})
	return r
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type suggestionRequest struct {
	Sentence string `json:"sentence"`
}

type suggestionResponse struct {
	Suggestions []string `json:"suggestions"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := errorResponse{Message: message}
	if err != nil {
		resp.Error = err.Error()
	}
	s.writeJSON(w, status, resp)
}

// fail maps a domain error to a status code.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	switch {
	case errors.Is(err, domain.ErrEssayNotFound):
		status, message = http.StatusNotFound, "essay not found"
	case errors.Is(err, domain.ErrInvalidStep):
		status, message = http.StatusBadRequest, "invalid step"
	case errors.Is(err, workflow.ErrCannotAdvance), errors.Is(err, workflow.ErrMissingPrerequisites):
		status, message = http.StatusConflict, "step is not complete"
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, message = http.StatusInsufficientStorage, "storage is full"
	case errors.Is(err, domain.ErrStorage):
		message = "storage error"
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	}
	s.writeError(w, status, message, err)
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "quill-http",
		"version": s.version,
	})
}

func (s *Server) getSteps(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, workflow.Table())
}

func (s *Server) postSuggestions(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		s.writeError(w, http.StatusServiceUnavailable, "suggestions are not configured", nil)
		return
	}
	var body suggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if strings.TrimSpace(body.Sentence) == "" {
		s.writeError(w, http.StatusBadRequest, "sentence is required", nil)
		return
	}

	suggestions, err := s.gateway.RequestRewrites(r.Context(), body.Sentence)
	if err != nil {
		message, cause := "failed to get suggestions", err
		var sugErr *domain.SuggestionError
		if errors.As(err, &sugErr) {
			message, cause = sugErr.Message, sugErr.Cause
		}
		s.logger.Warn("suggestion request failed", "err", err)
		s.writeError(w, http.StatusBadGateway, message, cause)
		return
	}
	if suggestions == nil {
		suggestions = []string{}
	}
	s.writeJSON(w, http.StatusOK, suggestionResponse{Suggestions: suggestions})
}

func (s *Server) listEssays(w http.ResponseWriter, r *http.Request) {
	essays, err := s.repo.GetAllEssays(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if essays == nil {
		essays = []domain.Essay{}
	}
	s.writeJSON(w, http.StatusOK, essays)
}

func (s *Server) createEssay(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Title string `json:"title"`
	}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			s.writeError(w, http.StatusBadRequest, "invalid request body", err)
			return
		}
	}
	d, err := s.repo.CreateNewEssay(r.Context(), body.Title)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

// load fetches the essay named in the URL, writing a 404 when it is absent.
func (s *Server) load(w http.ResponseWriter, r *http.Request) (*domain.EssayData, bool) {
	id := chi.URLParam(r, "id")
	d, err := s.repo.GetEssayData(r.Context(), id)
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	if d == nil {
		s.writeError(w, http.StatusNotFound, "essay not found", nil)
		return nil, false
	}
	return d, true
}

func (s *Server) getEssay(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.load(w, r); ok {
		s.writeJSON(w, http.StatusOK, d)
	}
}

func (s *Server) putEssay(w http.ResponseWriter, r *http.Request) {
	var d domain.EssayData
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid document", err)
		return
	}
	stored, err := s.repo.Update(r.Context(), chi.URLParam(r, "id"), func(current *domain.EssayData) bool {
		// The id and creation time are not client-editable.
		d.Essay.ID = current.Essay.ID
		d.Essay.CreatedAt = current.Essay.CreatedAt
		if !d.Essay.CurrentStep.Valid() {
			d.Essay.CurrentStep = current.Essay.CurrentStep
		}
		d.Essay.LastUpdatedAt = current.Essay.LastUpdatedAt
		*current = d
		return true
	})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, stored)
}

func (s *Server) deleteEssay(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.DeleteEssay(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) status(d *domain.EssayData) workflow.Status {
	return s.nav.Thresholds().Report(d)
}

func (s *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	if d, ok := s.load(w, r); ok {
		s.writeJSON(w, http.StatusOK, s.status(d))
	}
}

func (s *Server) advance(w http.ResponseWriter, r *http.Request) {
	d, ok := s.load(w, r)
	if !ok {
		return
	}
	if _, err := s.nav.Advance(r.Context(), d); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(d))
}

func (s *Server) goTo(w http.ResponseWriter, r *http.Request) {
	d, ok := s.load(w, r)
	if !ok {
		return
	}
	var body struct {
		Step domain.Step `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if err := s.nav.GoTo(r.Context(), d, body.Step); err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.status(d))
}

func (s *Server) listDrafts(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.repo.GetDraftSnapshots(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []domain.DraftSnapshot{}
	}
	s.writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) createDraft(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}
	snap, err := s.repo.SaveDraftSnapshot(r.Context(), chi.URLParam(r, "id"), body.Content)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, snap)
}
