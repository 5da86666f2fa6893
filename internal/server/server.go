// Package server exposes the dashboard JSON API.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"StockLens/internal/analyzer"
	"StockLens/internal/logger"
	"StockLens/internal/metrics"
	"StockLens/internal/model"
	"StockLens/internal/watchlist"
)

// maxUploadBytes bounds a multipart CSV upload.
const maxUploadBytes = 10 << 20

// Options tunes request defaults.
type Options struct {
	Version       string
	DefaultMarket model.Market
	DefaultPeriod string
}

// Server holds the API dependencies.
type Server struct {
	analyzer  *analyzer.Analyzer
	watchlist *watchlist.Manager
	hub       *Hub
	metrics   *metrics.Metrics
	opts      Options
	started   time.Time
	log       zerolog.Logger
	router    chi.Router
}

// New builds the router. hub and m may be nil.
func New(a *analyzer.Analyzer, wl *watchlist.Manager, hub *Hub, m *metrics.Metrics, opts Options) *Server {
	if opts.DefaultMarket == "" {
		opts.DefaultMarket = model.MarketInternational
	}
	if opts.DefaultPeriod == "" {
		opts.DefaultPeriod = model.DefaultPeriod
	}
	if hub == nil {
		hub = NewHub()
	}
	s := &Server{
		analyzer:  a,
		watchlist: wl,
		hub:       hub,
		metrics:   m,
		opts:      opts,
		started:   time.Now(),
		log:       logger.Component("server"),
	}
	s.router = s.routes()
	return s
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/markets/indian/suggestions", s.handleIndianSuggestions)

		r.Route("/stocks/{ticker}", func(r chi.Router) {
			r.Get("/", s.handleDashboard)
			r.Get("/technical/export", s.handleTechnicalExport)
			r.Get("/fundamentals", s.handleFundamentals)
			r.Get("/fundamentals/export", s.handleFundamentalsExport)
			r.Get("/news", s.handleNews)
			r.Get("/history", s.handleHistory)
		})

		r.Post("/upload", s.handleUpload)

		r.Get("/watchlist", s.handleWatchlist)
		r.Post("/watchlist", s.handleWatch)
		r.Post("/watchlist/{ticker}", s.handleWatch)
		r.Delete("/watchlist/{ticker}", s.handleUnwatch)
	})

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/ws", s.handleWS)
	return r
}

// requestLogger logs one line per request with zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request")
	})
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the WebSocket hub used by /ws.
func (s *Server) Hub() *Hub { return s.hub }

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("api listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.log.Info().Msg("api stopped")
	return nil
}
