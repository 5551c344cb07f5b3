// Package server exposes docforge sessions over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/benjaminschreck/docforge/pkg/docforge"
)

const sweepInterval = time.Minute

// Server serves the document builder API.
type Server struct {
	config   *docforge.Config
	exporter *docforge.Exporter
	sessions *SessionRegistry
	hub      *GraphHub
	base     zerolog.Logger
	log      zerolog.Logger
	mux      *http.ServeMux

	catalogMu sync.RWMutex
	catalog   *docforge.Catalog
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the server logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.base = l
	}
}

// WithCatalog installs a cover template catalog instead of scanning TemplatesDir.
func WithCatalog(c *docforge.Catalog) Option {
	return func(s *Server) {
		s.catalog = c
	}
}

// New creates a server. When config.TemplatesDir is set and no catalog was given,
// the folder is scanned; a failed scan is logged and the server starts without covers.
func New(config *docforge.Config, opts ...Option) (*Server, error) {
	if config == nil {
		config = docforge.DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: config,
		base:   docforge.Logger(),
		mux:    http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.base.With().Str("component", "server").Logger()

	s.exporter = docforge.NewExporter(docforge.WithConfig(config), docforge.WithLogger(s.base))
	s.sessions = NewSessionRegistry(config.SessionTTL, s.log, docforge.WithMaxTableCells(config.MaxTableCells))
	s.hub = NewGraphHub(s.log)
	s.sessions.OnDiscard(s.hub.CloseSession)

	if s.catalog == nil && config.TemplatesDir != "" {
		catalog, err := docforge.ScanCatalog(config.TemplatesDir, docforge.WithCatalogLogger(s.base))
		if err != nil {
			s.log.Warn().Err(err).Str("folder", config.TemplatesDir).Msg("cover templates unavailable")
		} else {
			s.catalog = catalog
		}
	}

	s.routes()
	return s, nil
}

// Handler returns the root handler with middleware applied.
func (s *Server) Handler() http.Handler {
	return s.requestLogger(s.recoverer(s.mux))
}

// Sessions returns the session registry.
func (s *Server) Sessions() *SessionRegistry {
	return s.sessions
}

// Catalog returns the active cover template catalog, or nil.
func (s *Server) Catalog() *docforge.Catalog {
	s.catalogMu.RLock()
	defer s.catalogMu.RUnlock()
	return s.catalog
}

func (s *Server) setCatalog(c *docforge.Catalog) {
	s.catalogMu.Lock()
	s.catalog = c
	s.catalogMu.Unlock()
}

// Start runs the background workers until ctx is done. Run calls it; tests that
// use Handler directly call it themselves.
func (s *Server) Start(ctx context.Context) {
	go s.hub.Run(ctx)
	go s.sessions.RunSweeper(ctx, sweepInterval)
}

// Run listens on config.ListenAddr until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.Start(ctx)

	srv := &http.Server{
		Addr:              s.config.ListenAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", srv.Addr).Msg("server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	s.log.Info().Msg("shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
