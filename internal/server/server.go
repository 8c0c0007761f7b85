// Package server exposes the pipeline over HTTP: a liveness probe, a
// JWT-protected run trigger, read access to the run ledger and metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jonathan/pin-pipeline/internal/config"
	"github.com/jonathan/pin-pipeline/internal/db"
	"github.com/jonathan/pin-pipeline/internal/logger"
	"github.com/jonathan/pin-pipeline/internal/observability"
	"github.com/jonathan/pin-pipeline/internal/pipeline"
	"github.com/jonathan/pin-pipeline/internal/server/middleware"
	"github.com/jonathan/pin-pipeline/internal/server/ratelimit"
)

// Runner executes one pipeline run.
type Runner interface {
	Run(ctx context.Context, scheduledTime *time.Time) (*pipeline.Result, error)
}

// Store is the read side of the ledger.
type Store interface {
	Ping(ctx context.Context) error
	GetRun(ctx context.Context, runID int64) (*db.Run, error)
	ListRuns(ctx context.Context, limit int) ([]db.Run, error)
	ListLogs(ctx context.Context, runID int64) ([]db.LogEvent, error)
}

var _ Store = (*db.DB)(nil)

// Config holds server configuration.
type Config struct {
	Port      int
	JWT       *config.JWTConfig
	RateLimit *ratelimit.Config
	// ConfigErr is reported by /health. Triggers are refused while it is set.
	ConfigErr error
}

// Server is the HTTP front of one pipeline process. At most one run executes
// at a time.
type Server struct {
	httpServer  *http.Server
	runner      Runner
	store       Store
	log         *logger.Logger
	metrics     *observability.Metrics
	jwtService  *JWTService
	rateLimiter *ratelimit.Limiter
	configErr   error

	running atomic.Bool
	runs    sync.WaitGroup
}

// New builds the server. runner and store may be nil when the configuration
// is invalid; the server then only answers health checks truthfully.
func New(cfg Config, runner Runner, store Store, log *logger.Logger, metrics *observability.Metrics) (*Server, error) {
	if cfg.JWT == nil {
		return nil, fmt.Errorf("JWT config is required to protect the run trigger")
	}
	if log == nil {
		log = logger.NewNop()
	}

	s := &Server{
		runner:      runner,
		store:       store,
		log:         log,
		metrics:     metrics,
		jwtService:  NewJWTService(cfg.JWT),
		rateLimiter: ratelimit.NewLimiter(cfg.RateLimit),
		configErr:   cfg.ConfigErr,
	}
	if s.configErr == nil && runner == nil {
		s.configErr = ErrNotConfigured
	}

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}
	mux.Handle("POST /runs", auth(http.HandlerFunc(s.handleCreateRun)))
	mux.Handle("GET /runs", auth(http.HandlerFunc(s.handleListRuns)))
	mux.Handle("GET /runs/{id}", auth(http.HandlerFunc(s.handleGetRun)))
	mux.Handle("GET /runs/{id}/logs", auth(http.HandlerFunc(s.handleListLogs)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(mux)),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s, nil
}

// Handler returns the root handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start serves until ctx is cancelled, then shuts down and waits for an
// in-flight run to finish.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server starting", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			s.rateLimiter.Stop()
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
	}

	s.log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 30*time.Second)
	defer cancel()
	err := s.httpServer.Shutdown(shutdownCtx)
	s.rateLimiter.Stop()
	s.Wait()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("server stopped")
	return nil
}

// Wait blocks until no triggered run is executing.
func (s *Server) Wait() {
	s.runs.Wait()
}

type createRunRequest struct {
	ScheduledTime *time.Time `json:"scheduled_time,omitempty"`
}

type createRunResponse struct {
	Accepted    bool   `json:"accepted"`
	RequestedBy string `json:"requested_by"`
}

// handleCreateRun starts a run in the background and answers 202. The run
// outlives the request; its outcome lands in the ledger.
func (s *Server) handleCreateRun(w http.ResponseWriter, r *http.Request) {
	if s.configErr != nil {
		s.errorResponse(w, ErrNotConfigured)
		return
	}

	var req createRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.errorResponse(w, &ErrValidation{Field: "body", Message: err.Error()})
		return
	}

	if !s.running.CompareAndSwap(false, true) {
		s.errorResponse(w, ErrRunInFlight)
		return
	}
	subject, _ := middleware.GetSubject(r)

	s.runs.Add(1)
	go func() {
		defer s.runs.Done()
		defer s.running.Store(false)
		ctx := context.WithoutCancel(r.Context())
		res, err := s.runner.Run(ctx, req.ScheduledTime)
		if err != nil {
			s.log.Error("triggered run failed", "requested_by", subject, "error", err)
			return
		}
		s.log.Info("triggered run finished", "requested_by", subject, "run_id", res.RunID, "status", res.Status)
	}()

	s.jsonResponse(w, http.StatusAccepted, createRunResponse{Accepted: true, RequestedBy: subject})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.configErr != nil {
		s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
			"status": "unavailable",
			"reason": s.configErr.Error(),
		})
		return
	}
	if s.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()
		if err := s.store.Ping(ctx); err != nil {
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{
				"status": "unavailable",
				"reason": "database: " + err.Error(),
			})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{
		"status":          "ok",
		"run_in_progress": s.running.Load(),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		s.errorResponse(w, ErrNotConfigured)
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 200 {
			s.errorResponse(w, &ErrValidation{Field: "limit", Message: "must be an integer between 1 and 200"})
			return
		}
		limit = n
	}
	runs, err := s.store.ListRuns(r.Context(), limit)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if runs == nil {
		runs = []db.Run{}
	}
	s.jsonResponse(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, run)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	run, ok := s.lookupRun(w, r)
	if !ok {
		return
	}
	logs, err := s.store.ListLogs(r.Context(), run.ID)
	if err != nil {
		s.errorResponse(w, err)
		return
	}
	if logs == nil {
		logs = []db.LogEvent{}
	}
	s.jsonResponse(w, http.StatusOK, logs)
}

// lookupRun resolves the {id} path value, writing the error response itself
// when the run cannot be returned.
func (s *Server) lookupRun(w http.ResponseWriter, r *http.Request) (*db.Run, bool) {
	if s.store == nil {
		s.errorResponse(w, ErrNotConfigured)
		return nil, false
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id < 1 {
		s.errorResponse(w, &ErrValidation{Field: "id", Message: "must be a positive integer"})
		return nil, false
	}
	run, err := s.store.GetRun(r.Context(), id)
	if err != nil {
		s.errorResponse(w, err)
		return nil, false
	}
	if run == nil {
		s.errorResponse(w, fmt.Errorf("run %d: %w", id, ErrNotFound))
		return nil, false
	}
	return run, true
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowed, info := s.rateLimiter.Allow(extractClientID(r), r.URL.Path, r.Method)
		setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("request", "method", r.Method, "path", r.URL.Path, "status", rec.status,
			"remote", r.RemoteAddr, "duration", time.Since(start))
	})
}

func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Warn("failed to encode response", "error", err)
	}
}

func (s *Server) errorResponse(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	s.jsonResponse(w, status, map[string]string{"error": err.Error()})
}

// extractClientID uses the peer address; X-Forwarded-For is not trusted.
func extractClientID(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

func setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(info.Limit))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(info.Remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(info.ResetTime.Unix(), 10))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	response := map[string]any{
		"error": "rate_limit_exceeded",
		"limit": info.Limit,
	}
	if info.RetryAfter > 0 {
		secs := int(info.RetryAfter.Seconds()) + 1
		response["retry_after"] = secs
		w.Header().Set("Retry-After", strconv.Itoa(secs))
	}
	s.log.Warn("rate limit exceeded", "limit", info.Limit, "reset", info.ResetTime.Format(time.RFC3339))
	s.jsonResponse(w, http.StatusTooManyRequests, response)
}
