// Package server exposes template searches over HTTP
package server

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/lixenwraith/gamatch/config"
	"github.com/lixenwraith/gamatch/metrics"
	"github.com/lixenwraith/gamatch/parameter"
	"github.com/lixenwraith/gamatch/session"
)

// Options configures the HTTP server
type Options struct {
	Registry *session.Registry
	Defaults config.Settings // population, rates and mode used when a request omits them

	Recorder *metrics.Recorder   // nil disables per-search metrics
	Gatherer prometheus.Gatherer // nil disables /metrics
	Logger   *slog.Logger

	MaxAdvance     int
	MaxUploadBytes int64
	MaxPixels      int
	MaxPopulation  int
}

// Server routes requests to the session registry
type Server struct {
	opts   Options
	logger *slog.Logger

	// ids with an advance request in flight
	busy sync.Map
}

// New creates a server; zero limits fall back to parameter defaults
func New(opts Options) *Server {
	if opts.MaxAdvance <= 0 {
		opts.MaxAdvance = parameter.ServerMaxAdvance
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = parameter.ServerMaxUploadBytes
	}
	if opts.MaxPixels <= 0 {
		opts.MaxPixels = parameter.ServerMaxPixels
	}
	if opts.MaxPopulation <= 0 {
		opts.MaxPopulation = parameter.ServerMaxPopulation
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{opts: opts, logger: logger}
}

// Router builds the gin engine
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.MaxMultipartMemory = s.opts.MaxUploadBytes

	r.GET("/healthz", s.health)
	if s.opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(s.opts.Gatherer)))
	}

	searches := r.Group("/searches")
	searches.POST("", s.create)
	searches.GET("", s.list)
	searches.GET("/:id", s.get)
	searches.DELETE("/:id", s.remove)
	searches.POST("/:id/advance", s.advance)
	searches.GET("/:id/population", s.population)

	return r
}

// requestLogger logs every request at debug level, errors at warn
func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		level := slog.LevelDebug
		if status >= http.StatusInternalServerError {
			level = slog.LevelWarn
		}
		s.logger.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"latency", time.Since(start))
	}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully
// and saves every live search when the registry has a report directory
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutCtx, cancel := context.WithTimeout(context.Background(), parameter.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		s.logger.Error("shutdown", "error", err)
	}

	if err := s.opts.Registry.SaveAll(); err != nil {
		s.logger.Error("saving searches", "error", err)
		return err
	}
	return nil
}
