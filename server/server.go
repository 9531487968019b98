// Package server exposes pagebrief sessions over HTTP.
//
//	POST   /sessions                 {url}       summarize a page, start a session
//	GET    /sessions/{id}                        brief and transcript
//	POST   /sessions/{id}/ask        {question}  one Q&A turn
//	GET    /sessions/{id}/search?q=              search chunks, captions, turns
//	GET    /sessions/{id}/report?format=         rendered report
//	DELETE /sessions/{id}                        end the session
//	GET    /healthz
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gaurav-prasanna/pagebrief/core"
	"github.com/gaurav-prasanna/pagebrief/core/render"
	"github.com/gaurav-prasanna/pagebrief/core/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Runner produces a summarized brief for a URL.
type Runner interface {
	Run(ctx context.Context, rawURL string) (*core.Brief, error)
}

// Options tunes the server.
type Options struct {
	Address        string
	ReplayHistory  bool
	IncludeContent bool // in rendered reports
}

// Server serves the session API.
type Server struct {
	router    *chi.Mux
	runner    Runner
	generator core.Generator
	store     *session.Store
	opts      Options
	logger    *slog.Logger
}

// New creates a Server and registers its routes.
func New(runner Runner, generator core.Generator, store *session.Store, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	s := &Server{
		router:    router,
		runner:    runner,
		generator: generator,
		store:     store,
		opts:      opts,
		logger:    logger,
	}

	router.Get("/healthz", s.health)
	router.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.getSession)
			r.Delete("/", s.deleteSession)
			r.Post("/ask", s.ask)
			r.Get("/search", s.search)
			r.Get("/report", s.report)
		})
	})
	return s
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Address,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// A create request covers page load and generation.
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  2 * time.Minute,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server starting", "addr", s.opts.Address)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.logger.Info("API server shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type createRequest struct {
	URL string `json:"url"`
}

type askRequest struct {
	Question string `json:"question"`
}

type sessionResponse struct {
	ID        string      `json:"id"`
	CreatedAt time.Time   `json:"created_at"`
	Brief     *core.Brief `json:"brief"`
}

type askResponse struct {
	Answer string `json:"answer"`
	Turns  int    `json:"turns"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	JSON(w, http.StatusOK, map[string]any{"status": "ok", "sessions": s.store.Len()})
}

// createSession handles POST /sessions.
func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}

	brief, err := s.runner.Run(r.Context(), req.URL)
	if errors.Is(err, core.ErrEmptyURL) {
		Error(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		s.logger.Warn("summarize failed", "url", req.URL, "error", err)
		Error(w, http.StatusBadGateway, fmt.Sprintf("Failed to summarize: %v", err))
		return
	}

	sess, err := s.store.Create(brief)
	if err != nil {
		Error(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.logger.Info("session created", "session", sess.ID(), "url", brief.Metadata.URL)
	JSON(w, http.StatusCreated, sessionResponse{ID: sess.ID(), CreatedAt: sess.CreatedAt(), Brief: sess.Brief()})
}

// getSession handles GET /sessions/{id}.
func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, sessionResponse{ID: sess.ID(), CreatedAt: sess.CreatedAt(), Brief: sess.Brief()})
}

// deleteSession handles DELETE /sessions/{id}.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(chi.URLParam(r, "id")); err != nil {
		s.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ask handles POST /sessions/{id}/ask.
func (s *Server) ask(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, fmt.Sprintf("invalid JSON: %v", err))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		Error(w, http.StatusBadRequest, "question is required")
		return
	}

	answer, err := sess.Ask(r.Context(), s.generator, req.Question, s.opts.ReplayHistory)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSON(w, http.StatusOK, askResponse{Answer: answer, Turns: len(sess.History()) / 2})
}

// search handles GET /sessions/{id}/search?q=&n=.
func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		Error(w, http.StatusBadRequest, "query parameter q is required")
		return
	}
	n := 10
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			Error(w, http.StatusBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}

	hits, err := sess.Search(q, n)
	if err != nil {
		s.fail(w, err)
		return
	}
	JSON(w, http.StatusOK, map[string]any{"query": q, "hits": hits})
}

// report handles GET /sessions/{id}/report?format=markdown|json|pdf.
func (s *Server) report(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var (
		renderer    core.Renderer
		contentType string
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "markdown":
		renderer, contentType = render.NewMarkdownRenderer(s.opts.IncludeContent), "text/markdown; charset=utf-8"
	case "json":
		renderer, contentType = render.NewJSONRenderer(), "application/json"
	case "pdf":
		renderer, contentType = render.NewPDFRenderer(s.opts.IncludeContent), "application/pdf"
	default:
		Error(w, http.StatusBadRequest, fmt.Sprintf("unknown format %q", format))
		return
	}

	brief := sess.Brief()
	if brief == nil {
		s.fail(w, session.ErrNoBrief)
		return
	}
	data, err := renderer.Render(brief)
	if err != nil {
		s.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// lookup resolves the {id} parameter, answering 404 itself when the
// session is unknown.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session.State, bool) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, err)
		return nil, false
	}
	return sess, true
}

// fail maps session errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrClosed):
		Error(w, http.StatusNotFound, session.ErrSessionNotFound.Error())
	case errors.Is(err, session.ErrNoBrief):
		Error(w, http.StatusConflict, err.Error())
	default:
		s.logger.Error("request failed", "error", err)
		Error(w, http.StatusInternalServerError, err.Error())
	}
}

// JSON writes v as a JSON response.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// requestLogger logs one line per request through slog.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"request_id", middleware.GetReqID(r.Context()),
			)
		})
	}
}
