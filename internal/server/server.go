// Package server is the read-only preview server behind `catalogts serve`.
// Every request regenerates from the live catalog, so the served modules
// always reflect the current schema.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/koustreak/catalogts/internal/errs"
	"github.com/koustreak/catalogts/internal/generator"
	"github.com/koustreak/catalogts/internal/logger"
	"github.com/koustreak/catalogts/internal/output"
)

// Runner produces the full set of modules. *generator.Generator satisfies it.
type Runner interface {
	Run(ctx context.Context) ([]generator.Output, error)
}

// Pinger reports database reachability. database.DB satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

const pingTimeout = 5 * time.Second

// Server serves generated modules over HTTP.
type Server struct {
	runner Runner
	db     Pinger
	log    *logger.Logger
	router chi.Router

	// one generation at a time
	mu sync.Mutex
}

// New wires the routes.
func New(runner Runner, db Pinger, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	s := &Server{runner: runner, db: db, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/modules", s.handleList)
	r.Get("/modules/{name}", s.handleModule)

	s.router = r
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an *http.Server for addr with conservative timeouts.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       time.Minute,
		WriteTimeout:      2 * time.Minute,
	}
}

type moduleInfo struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	Bytes int    `json:"bytes"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := s.db.Ping(ctx); err != nil {
		s.log.ErrorWith("health check failed", err, nil)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	outs, err := s.generate(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	list := make([]moduleInfo, 0, len(outs))
	for _, o := range outs {
		list = append(list, moduleInfo{Name: o.Name, File: o.Name + output.Ext, Bytes: len(o.Body)})
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleModule(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSuffix(chi.URLParam(r, "name"), output.Ext)

	outs, err := s.generate(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}

	for _, o := range outs {
		if o.Name == name {
			w.Header().Set("Content-Type", output.ContentType+"; charset=utf-8")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(o.Body))
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "module " + name + " not found"})
}

func (s *Server) generate(ctx context.Context) ([]generator.Output, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runner.Run(ctx)
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	s.log.ErrorWith("generation failed", err, map[string]interface{}{"kind": errs.KindOf(err).String()})
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

// statusFor maps an error kind to the response status.
func statusFor(err error) int {
	switch errs.KindOf(err) {
	case errs.ErrKindNotFound:
		return http.StatusNotFound
	case errs.ErrKindConnectionFailed:
		return http.StatusServiceUnavailable
	case errs.ErrKindTimeout:
		return http.StatusGatewayTimeout
	case errs.ErrKindPermissionDenied:
		return http.StatusForbidden
	case errs.ErrKindInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.RequestEvent().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
