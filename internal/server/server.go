// Package server provides the HTTP REST API fronting the
// resume-to-insight pipeline. The LLM credential stays behind this
// server; browser clients never hold it.
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/jonathan/sdr-coach/internal/coach"
	"github.com/jonathan/sdr-coach/internal/insight"
	"github.com/jonathan/sdr-coach/internal/pipeline"
	"github.com/jonathan/sdr-coach/internal/server/middleware"
	"github.com/jonathan/sdr-coach/internal/server/ratelimit"
)

// PipelineRunner runs one analysis end to end.
type PipelineRunner interface {
	Run(ctx context.Context, req pipeline.RunRequest) (*pipeline.Outcome, error)
}

// InsightStore is the analysis CRUD surface the handlers need.
type InsightStore interface {
	List(ctx context.Context, userID uuid.UUID, limit int) ([]insight.Analysis, error)
	Get(ctx context.Context, id uuid.UUID) (*insight.Analysis, error)
	ApplyUpdate(ctx context.Context, id uuid.UUID, update insight.Update) (*insight.Analysis, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProfileStore writes the resume pointer after uploads.
type ProfileStore interface {
	SetResumePointer(ctx context.Context, userID uuid.UUID, path, mediaType, filename string) error
}

// BlobUploader stores uploaded resume files.
type BlobUploader interface {
	Upload(ctx context.Context, userID uuid.UUID, filename string, data []byte, mediaType string) (string, error)
}

// Config holds server configuration.
type Config struct {
	Port      int
	JWTSecret string
}

// Deps wires the server's collaborators.
type Deps struct {
	Pipeline PipelineRunner
	Insights InsightStore
	Profiles ProfileStore
	Blob     BlobUploader
}

// Server is the HTTP server.
type Server struct {
	httpServer  *http.Server
	deps        Deps
	validate    *validator.Validate
	rateLimiter *ratelimit.Limiter
	jwtService  *JWTService
}

// New creates a server instance.
func New(cfg Config, deps Deps) (*Server, error) {
	if cfg.JWTSecret == "" {
		return nil, &coach.ConfigurationError{Setting: "JWT_SECRET", Hint: "set the auth provider's token signing secret"}
	}
	if deps.Pipeline == nil || deps.Insights == nil || deps.Profiles == nil || deps.Blob == nil {
		return nil, fmt.Errorf("server requires pipeline, insight, profile, and blob collaborators")
	}

	s := &Server{
		deps:        deps,
		validate:    validator.New(),
		rateLimiter: ratelimit.NewLimiter(ratelimit.LoadConfig()),
		jwtService:  NewJWTService(cfg.JWTSecret),
	}

	auth := middleware.AuthMiddleware(s.jwtService.AsTokenValidator())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)

	mux.Handle("POST /users/{id}/resume", auth(http.HandlerFunc(s.handleUploadResume)))
	mux.Handle("POST /users/{id}/analyses", auth(http.HandlerFunc(s.handleCreateAnalysis)))
	mux.Handle("GET /users/{id}/analyses", auth(http.HandlerFunc(s.handleListAnalyses)))
	mux.Handle("GET /analyses/{id}", auth(http.HandlerFunc(s.handleGetAnalysis)))
	mux.Handle("PATCH /analyses/{id}", auth(http.HandlerFunc(s.handleUpdateAnalysis)))
	mux.Handle("DELETE /analyses/{id}", auth(http.HandlerFunc(s.handleDeleteAnalysis)))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.withRateLimit(s.withLogging(s.withCORS(mux))),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second, // analysis runs block on the LLM call
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start begins listening and blocks until interrupted, then shuts down
// gracefully.
func (s *Server) Start() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on %s", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	<-stop
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
	log.Println("Server stopped")
	return nil
}

// Handler exposes the configured handler chain for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withRateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientID := clientIP(r)

		allowed, info := s.rateLimiter.Allow(clientID, r.URL.Path, r.Method)
		s.setRateLimitHeaders(w, info)
		if !allowed {
			s.rateLimitResponse(w, info)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("[%s] %s completed in %v", r.Method, r.URL.Path, time.Since(start))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "ok"})
}

// clientIP extracts the client identifier for rate limiting, honoring
// proxy headers.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	return r.RemoteAddr
}

func (s *Server) setRateLimitHeaders(w http.ResponseWriter, info ratelimit.Info) {
	if info.Limit > 0 {
		w.Header().Set("X-RateLimit-Limit", fmt.Sprintf("%d", info.Limit))
		w.Header().Set("X-RateLimit-Remaining", fmt.Sprintf("%d", info.Remaining))
		w.Header().Set("X-RateLimit-Reset", fmt.Sprintf("%d", info.ResetTime.Unix()))
	}
}

func (s *Server) rateLimitResponse(w http.ResponseWriter, info ratelimit.Info) {
	if info.RetryAfter > 0 {
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(info.RetryAfter.Seconds())))
	}
	s.errorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded")
}
