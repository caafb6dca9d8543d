// Package server exposes the choropleth pipeline and hover sessions over HTTP.
//
// Routes:
//
//	GET    /healthz                     liveness and build version
//	GET    /api/descriptors             render document (?classes=&palette=)
//	GET    /api/legend                  legend entries (?classes=&palette=)
//	POST   /api/sessions                open a hover session
//	POST   /api/sessions/{id}/events    feed an enter, move or leave event
//	GET    /api/sessions/{id}/tooltip   current tooltip
//	DELETE /api/sessions/{id}           close a hover session
//	GET    /metrics                     Prometheus metrics, when configured
//
// The dataset and boundaries are loaded once at startup. Every request goes
// through one shared [pipeline.Runner], so repeated requests with the same
// options reuse the memoized derivation.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/choropleth/internal/metrics"
	"github.com/matzehuels/choropleth/pkg/dataset"
	"github.com/matzehuels/choropleth/pkg/geo"
	"github.com/matzehuels/choropleth/pkg/pipeline"
	"github.com/matzehuels/choropleth/pkg/session"
)

const (
	// cleanupInterval is how often expired sessions are removed.
	cleanupInterval = time.Minute

	shutdownTimeout = 10 * time.Second
)

// Config wires a Server to its inputs.
type Config struct {
	Dataset  *dataset.Dataset
	Features *geo.FeatureSet
	Options  pipeline.Options

	// Runner derives and caches documents. Default: an uncached runner.
	Runner *pipeline.Runner

	// Sessions stores hover sessions. Default: in memory.
	Sessions   session.Store
	SessionTTL time.Duration

	// Metrics, when set, is served on /metrics and records request counts.
	Metrics *metrics.Metrics

	Logger *log.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg    Config
	logger *log.Logger

	// eventMu serializes the load, apply and store cycle of session events.
	eventMu sync.Mutex
}

// New creates a server. Dataset may be nil (all features use the fallback
// color); Features is required.
func New(cfg Config) (*Server, error) {
	if cfg.Features == nil {
		return nil, errors.New("server: features are required")
	}
	if cfg.Dataset == nil {
		cfg.Dataset = dataset.FromRecords(nil)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	if cfg.Runner == nil {
		cfg.Runner = pipeline.NewRunner(nil, nil, cfg.Logger)
	}
	if cfg.Sessions == nil {
		cfg.Sessions = session.NewMemoryStore()
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = session.DefaultTTL
	}
	if err := cfg.Options.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	return &Server{cfg: cfg, logger: cfg.Logger}, nil
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	if s.cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.cfg.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/descriptors", s.handleDescriptors)
		r.Get("/legend", s.handleLegend)

		r.Post("/sessions", s.handleCreateSession)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Post("/events", s.handleEvent)
			r.Get("/tooltip", s.handleTooltip)
			r.Delete("/", s.handleDeleteSession)
		})
	})
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully. Expired sessions are cleaned up in the background.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go s.cleanupLoop(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.cfg.Sessions.Cleanup(ctx)
			if err != nil {
				s.logger.Warn("session cleanup failed", "error", err)
			} else if n > 0 {
				s.logger.Debug("removed expired sessions", "count", n)
			}
		}
	}
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := chi.RouteContext(r.Context()).RoutePattern()
		if route == "" {
			route = "unmatched"
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		elapsed := time.Since(start)
		if s.cfg.Metrics != nil {
			s.cfg.Metrics.ObserveHTTP(route, status, elapsed)
		}
		s.logger.Debug("request",
			"method", r.Method,
			"route", route,
			"status", status,
			"duration", elapsed,
			"request_id", middleware.GetReqID(r.Context()))
	})
}
