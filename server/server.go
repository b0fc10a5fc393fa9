// Package server assembles the HTTP surface of the gateway: the middleware
// stack, the route table, and the lifecycle of the listening server.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/juntao/modelgate/config"
	"github.com/juntao/modelgate/errors"
	"github.com/juntao/modelgate/server/handlers"
	"github.com/juntao/modelgate/server/metrics"
	"github.com/juntao/modelgate/server/middleware"
)

// Handlers groups the endpoint handlers the router mounts.
type Handlers struct {
	Chat   http.Handler
	Agents *handlers.AgentsHandler
	Models *handlers.ModelsHandler
	Health *handlers.HealthHandler
}

// Router is the top-level HTTP handler.
type Router struct {
	router chi.Router
	queue  *middleware.QueueMiddleware
}

// NewRouter builds the middleware stack and route table. Every route is
// reachable both at its bare path and under an /api prefix; unmatched paths
// and mismatched methods both produce the uniform 404 envelope. A non-nil
// origins func makes the CORS allow-list dynamic, picking up config reloads
// on the next request.
func NewRouter(cfg *config.Config, h Handlers, m *metrics.Metrics, origins middleware.AllowedOriginsFunc, logger *zap.Logger) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	if origins == nil {
		origins = middleware.StaticOrigins(cfg.CORS.AllowedOrigins)
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTimer)
	r.Use(errors.ErrorHandler(logger))
	r.Use(middleware.CORS(origins))
	r.Use(middleware.Logging(logger))
	if m != nil {
		r.Use(middleware.PrometheusMetrics(m))
	}
	r.Use(middleware.StripAPIPrefix)

	router := &Router{router: r}

	chat := h.Chat
	if cfg.Queue.Enabled {
		router.queue = middleware.NewQueueMiddleware(middleware.QueueConfig{
			MaxSize: cfg.Queue.MaxSize,
			Metrics: m,
		})
		chat = router.queue.Handler(chat)
	}

	r.Get("/health", h.Health.Live)
	r.Get("/healthcheck", h.Health.Check)
	r.Get("/models", h.Models.List)
	r.Get("/agents", h.Agents.List)
	r.Post("/agents", h.Agents.Create)
	r.Post("/chat", chat.ServeHTTP)
	if m != nil {
		r.Handle("/metrics", m.Handler())
	}

	notFound := func(w http.ResponseWriter, req *http.Request) {
		errors.WriteError(w, errors.NewNotFoundError(middleware.FromContext(req.Context())))
	}
	r.NotFound(notFound)
	r.MethodNotAllowed(notFound)

	return router
}

// ServeHTTP implements http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.router.ServeHTTP(w, req)
}

// QueueSize reports the depth of the admission queue, or 0 when the queue is
// disabled.
func (r *Router) QueueSize() int {
	if r.queue == nil {
		return 0
	}
	return r.queue.GetQueueSize()
}

// SetQueueMaxSize applies a new admission limit. No-op when the queue is
// disabled.
func (r *Router) SetQueueMaxSize(size int64) {
	if r.queue != nil {
		r.queue.SetMaxSize(size)
	}
}

// Server wraps the standard http.Server with lifecycle management.
type Server struct {
	httpServer      *http.Server
	shutdownTimeout time.Duration
	logger          *zap.Logger
}

// NewServer creates a server listening on the configured port.
func NewServer(cfg config.ServerConfig, handler http.Handler, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		httpServer: &http.Server{
			Addr:           fmt.Sprintf(":%d", cfg.Port),
			Handler:        handler,
			ReadTimeout:    cfg.ReadTimeout,
			WriteTimeout:   cfg.WriteTimeout,
			MaxHeaderBytes: cfg.MaxHeaderBytes,
		},
		shutdownTimeout: cfg.ShutdownTimeout,
		logger:          logger,
	}
}

// Start starts the server and blocks until the context is cancelled or the
// listener fails. Cancellation triggers a graceful shutdown that lets
// in-flight streams drain within the shutdown timeout.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("server started", zap.String("address", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		timeout := s.shutdownTimeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		s.logger.Info("shutting down server")
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("error during server shutdown: %w", err)
		}
		return nil

	case err := <-errChan:
		return err
	}
}
