// Package api exposes the oracle over HTTP.
//
// Routes:
//
//	PUT  /prophecies/{id}      store; caller is the bearer token subject
//	GET  /prophecies/{id}      record JSON, or null when absent
//	GET  /prophecies?limit=N   [[id, record], ...] in insertion order
//	GET  /healthz
//
// Reads are public. Writes need an HS256 bearer token; the service then
// applies its own owner check, so a valid token for a non-owner gets 403.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/rainwaters11/GoddessCryptoOracle/internal/oracle"
	"github.com/rainwaters11/GoddessCryptoOracle/internal/record"
)

// DefaultListLimit is used when GET /prophecies has no limit parameter.
const DefaultListLimit = 10

// maxBodyBytes bounds PUT bodies.
const maxBodyBytes = 1 << 20

// Server serves a Service over HTTP.
type Server struct {
	svc       *oracle.Service
	validator *TokenValidator
	limiter   *RateLimiter
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimiter enables per-client rate limiting.
func WithRateLimiter(rl *RateLimiter) Option {
	return func(s *Server) { s.limiter = rl }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates a Server. A nil validator rejects every write.
func NewServer(svc *oracle.Service, validator *TokenValidator, opts ...Option) *Server {
	s := &Server{svc: svc, validator: validator}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.logger = s.logger.With("component", "api")
	return s
}

// Handler returns the routed, instrumented handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("PUT /prophecies/{id}", RequireCaller(s.validator)(http.HandlerFunc(s.handleStore)))
	mux.HandleFunc("GET /prophecies/{id}", s.handleGet)
	mux.HandleFunc("GET /prophecies", s.handleList)
	mux.HandleFunc("GET /healthz", s.handleHealth)

	var h http.Handler = mux
	if s.limiter != nil {
		h = s.limiter.Middleware(h)
	}
	return otelhttp.NewHandler(h, "oracle.http")
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if s.limiter != nil {
		go s.limiter.Run(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.InfoContext(ctx, "listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

type storeRequest struct {
	Text *string `json:"text"`
}

func (s *Server) handleStore(w http.ResponseWriter, r *http.Request) {
	caller, ok := CallerFrom(r.Context())
	if !ok {
		writeUnauthorized(w, r, "")
		return
	}

	var req storeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeBadRequest(w, r, "body must be {\"text\": string}")
		return
	}
	if req.Text == nil {
		writeBadRequest(w, r, "text is required")
		return
	}

	id := r.PathValue("id")
	err := s.svc.Store(r.Context(), s.svc.Call(caller), id, *req.Text)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case oracle.IsUnauthorized(err):
		writeForbidden(w, r, string(oracle.ErrCodeUnauthorized), "Only the owner can store prophecies")
	default:
		writeInternal(w, r, s.logger, err)
	}
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rec, found, err := s.svc.Get(r.Context(), id)
	if err != nil {
		writeInternal(w, r, s.logger, err)
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	etag, err := record.RecordDigest(record.Entry{ID: id, Record: rec})
	if err != nil {
		writeInternal(w, r, s.logger, err)
		return
	}
	w.Header().Set("ETag", strconv.Quote(etag))
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	limit := uint64(DefaultListLimit)
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeBadRequest(w, r, "limit must be a non-negative integer")
			return
		}
		limit = n
	}

	entries, err := s.svc.List(r.Context(), limit)
	if err != nil {
		writeInternal(w, r, s.logger, err)
		return
	}
	if entries == nil {
		entries = []record.Entry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"owner":  s.svc.Owner(),
	})
}
