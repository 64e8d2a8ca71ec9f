// Package server provides the HTTP API of the interview coach.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/jonathan/interview-coach/internal/auth"
	"github.com/jonathan/interview-coach/internal/call"
	"github.com/jonathan/interview-coach/internal/config"
	"github.com/jonathan/interview-coach/internal/interviews"
	"github.com/jonathan/interview-coach/internal/logging"
	"github.com/jonathan/interview-coach/internal/metrics"
	"github.com/jonathan/interview-coach/internal/server/middleware"
	"github.com/jonathan/interview-coach/internal/server/ratelimit"
	"github.com/jonathan/interview-coach/internal/types"
)

// InterviewGenerator creates an interview from the voice workflow's answers.
type InterviewGenerator interface {
	Generate(ctx context.Context, req *types.GenerateInterviewRequest) (*types.Interview, error)
}

// Pinger reports backend health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Config holds server configuration
type Config struct {
	Port           int
	AllowedOrigins []string
	JWT            *config.JWTConfig
	RateLimit      *ratelimit.Config
}

// Deps are the services the handlers call into.
type Deps struct {
	Auth       *auth.Service
	Interviews *interviews.Service
	Generator  InterviewGenerator
	Calls      *call.Registry
	Feedback   call.FeedbackGenerator
	Health     Pinger
	Logger     *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	httpServer *http.Server
	limiter    *ratelimit.Limiter
	jwt        *config.JWTConfig
	logger     *zap.Logger

	auth       *auth.Service
	interviews *interviews.Service
	generator  InterviewGenerator
	calls      *call.Registry
	feedback   call.FeedbackGenerator
	health     Pinger
}

// New builds the server and its routes.
func New(cfg Config, deps Deps) *Server {
	s := &Server{
		limiter:    ratelimit.NewLimiter(cfg.RateLimit),
		jwt:        cfg.JWT,
		logger:     logging.OrNop(deps.Logger),
		auth:       deps.Auth,
		interviews: deps.Interviews,
		generator:  deps.Generator,
		calls:      deps.Calls,
		feedback:   deps.Feedback,
		health:     deps.Health,
	}

	mux := http.NewServeMux()
	authed := middleware.RequireSession(s.auth.AsTokenValidator())

	mux.HandleFunc("POST /auth/sign-up", s.handleSignUp)
	mux.HandleFunc("POST /auth/sign-in", s.handleSignIn)
	mux.HandleFunc("POST /auth/sign-out", s.handleSignOut)
	mux.Handle("GET /auth/me", authed(http.HandlerFunc(s.handleMe)))

	mux.Handle("GET /interviews", authed(http.HandlerFunc(s.handleListInterviews)))
	mux.Handle("GET /interviews/latest", authed(http.HandlerFunc(s.handleLatestInterviews)))
	mux.Handle("GET /interviews/{id}", authed(http.HandlerFunc(s.handleGetInterview)))
	mux.Handle("GET /interviews/{id}/feedback", authed(http.HandlerFunc(s.handleGetFeedback)))
	mux.Handle("GET /dashboard", authed(http.HandlerFunc(s.handleDashboard)))

	// Called by the voice workflow, not by a browser session.
	mux.HandleFunc("POST /vapi/generate", s.handleGenerateInterview)

	mux.Handle("POST /calls", authed(http.HandlerFunc(s.handleStartCall)))
	mux.Handle("GET /calls/{id}", authed(http.HandlerFunc(s.handleGetCall)))
	mux.Handle("POST /calls/{id}/stop", authed(http.HandlerFunc(s.handleStopCall)))
	mux.Handle("GET /calls/{id}/events", authed(http.HandlerFunc(s.handleCallEvents)))

	mux.Handle("POST /feedback", authed(http.HandlerFunc(s.handleCreateFeedback)))

	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	})

	var handler http.Handler = mux
	handler = ratelimit.Middleware(s.limiter, s.logger)(handler)
	handler = corsHandler(handler)
	handler = s.withLogging(handler)
	handler = metrics.Middleware(handler)

	s.httpServer = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     handler,
		ReadTimeout: 30 * time.Second,
		// Long enough for feedback generation; event streams clear their own deadline.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		s.limiter.Stop()
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := s.httpServer.Shutdown(shutdownCtx)
	s.limiter.Stop()
	if err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Close releases background resources without serving.
func (s *Server) Close() {
	s.limiter.Stop()
}

// handleHealth reports whether the store is reachable.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.health.Ping(ctx); err != nil {
			s.logger.Warn("health check failed", zap.Error(err))
			s.jsonResponse(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// jsonResponse writes a JSON response
func (s *Server) jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Warn("failed to encode response", zap.Error(err))
	}
}

// errorResponse writes an error JSON response
func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	s.jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	return json.NewDecoder(r.Body).Decode(v)
}
