// Package server provides the HTTP API in front of the conversation core.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chinpeerapat/assistant-builder/internal/chatbot"
	"github.com/chinpeerapat/assistant-builder/internal/config"
	"github.com/chinpeerapat/assistant-builder/internal/conversation"
	"github.com/chinpeerapat/assistant-builder/internal/ingest"
	"github.com/chinpeerapat/assistant-builder/internal/inquiry"
)

// Server is the HTTP server for the assistant API.
type Server struct {
	registry     *chatbot.Registry
	pipeline     *ingest.Pipeline
	orchestrator *conversation.Orchestrator
	inquiries    *inquiry.Service
	config       *config.ServerConfig
	apiToken     string
	logger       *zap.Logger
	server       *http.Server
}

// NewServer creates a server with the given dependencies. An empty
// apiToken disables authentication (local mode only).
func NewServer(
	registry *chatbot.Registry,
	pipeline *ingest.Pipeline,
	orchestrator *conversation.Orchestrator,
	inquiries *inquiry.Service,
	cfg *config.ServerConfig,
	apiToken string,
	logger *zap.Logger,
) *Server {
	return &Server{
		registry:     registry,
		pipeline:     pipeline,
		orchestrator: orchestrator,
		inquiries:    inquiries,
		config:       cfg,
		apiToken:     apiToken,
		logger:       logger,
	}
}

// Handler builds the router. Exposed separately so tests can drive it
// through httptest.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(time.Duration(s.config.TimeoutSecs) * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api/chatbots/{chatbotID}", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Get("/", s.handleGetChatbot)
		r.Post("/chat", s.handleChat)
		r.Post("/upload", s.handleUpload)
		r.Post("/inquiries", s.handleInquiry)
	})
	return r
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)))
	})
}

// Start starts the HTTP server and blocks until it stops.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.server = &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
	}
	s.logger.Info("starting server", zap.String("addr", addr))
	return s.server.ListenAndServe()
}

// Stop gracefully shuts down the server.
func (s *Server) Stop(ctx context.Context) error {
	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}
