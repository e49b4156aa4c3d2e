// Package server is a reference implementation of the items service the
// client talks to. It mirrors the original backend: list, create, health.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"slices"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/idilsaglam/itemboard/internal/storage"
	"github.com/idilsaglam/itemboard/internal/storage/jsonstore"
	"github.com/idilsaglam/itemboard/internal/storage/sqlite"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// Options configure a Server.
type Options struct {
	Addr        string
	CORSOrigins []string

	// TracerProvider overrides the global provider for server spans.
	TracerProvider trace.TracerProvider
}

// Server serves the items API over a Repository.
type Server struct {
	repo    storage.Repository
	opts    Options
	handler http.Handler
}

// New builds the handler tree for repo.
func New(repo storage.Repository, opts Options) *Server {
	s := &Server{repo: repo, opts: opts}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleRoot)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/items", s.handleListItems)
	mux.HandleFunc("POST /api/items", s.handleCreateItem)
	s.handler = s.withCORS(s.withTrace(mux))
	return s
}

// Handler exposes the full middleware chain, mostly for tests.
func (s *Server) Handler() http.Handler { return s.handler }

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is done.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: readHeaderTimeout,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Printf("items service listening on %s", ln.Addr())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	}
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "items service is alive"})
}

type healthResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// handleHealth always answers 200; the body says whether storage is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, healthResponse{OK: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{OK: true})
}

func (s *Server) handleListItems(w http.ResponseWriter, r *http.Request) {
	items, err := s.repo.ListItems(r.Context())
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "list items", err)
		return
	}
	trace.SpanFromContext(r.Context()).SetAttributes(attribute.Int("items.count", len(items)))
	writeJSON(w, http.StatusOK, items)
}

type createRequest struct {
	Name *string `json:"name"`
}

func (s *Server) handleCreateItem(w http.ResponseWriter, r *http.Request) {
	var in createRequest
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "invalid JSON body"})
		return
	}
	if in.Name == nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: "name is required"})
		return
	}
	it, err := s.repo.CreateItem(r.Context(), *in.Name)
	if errors.Is(err, storage.ErrEmptyName) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Detail: err.Error()})
		return
	}
	if err != nil {
		s.fail(w, r, http.StatusInternalServerError, "create item", err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, what string, err error) {
	log.Printf("%s: %v", what, err)
	span := trace.SpanFromContext(r.Context())
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	writeJSON(w, code, errorResponse{Detail: http.StatusText(code)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

// withTrace opens a server span per request, continuing any trace context
// the caller propagated.
func (s *Server) withTrace(next http.Handler) http.Handler {
	opts := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	}
	if s.opts.TracerProvider != nil {
		opts = append(opts, otelhttp.WithTracerProvider(s.opts.TracerProvider))
	}
	return otelhttp.NewHandler(next, "items", opts...)
}

// withCORS echoes allowed origins. With no origins configured it is a no-op.
func (s *Server) withCORS(next http.Handler) http.Handler {
	if len(s.opts.CORSOrigins) == 0 {
		return next
	}
	allowAny := slices.Contains(s.opts.CORSOrigins, "*")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAny || slices.Contains(s.opts.CORSOrigins, origin)) {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			reqHeaders := r.Header.Get("Access-Control-Request-Headers")
			if strings.TrimSpace(reqHeaders) == "" {
				reqHeaders = "Content-Type"
			}
			h.Set("Access-Control-Allow-Headers", reqHeaders)
			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// OpenRepository opens the backend named by kind ("sqlite" or "json").
func OpenRepository(kind, dbPath, jsonPath string) (storage.Repository, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", "sqlite":
		st, err := sqlite.Open(dbPath)
		if err != nil {
			return nil, err
		}
		return st, nil
	case "json":
		st, err := jsonstore.Open(jsonPath)
		if err != nil {
			return nil, err
		}
		return st, nil
	}
	return nil, fmt.Errorf("unknown storage %q (want sqlite or json)", kind)
}
