package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bft-labs/framecast/internal/metrics"
	"github.com/bft-labs/framecast/internal/ports"
)

const shutdownTimeout = 5 * time.Second

// Config configures a Server.
type Config struct {
	Listen    string
	FramesDir string
	DataDir   string
	Debounce  time.Duration
}

// Server ties the library, its watcher and the HTTP endpoints together.
type Server struct {
	cfg     Config
	logger  ports.Logger
	library *Library
	watcher *Watcher
	metrics *metrics.ServerMetrics
	http    *http.Server

	mu       sync.Mutex
	listener net.Listener
}

// New scans the frame library and builds the HTTP routes.
func New(cfg Config, logger ports.Logger) (*Server, error) {
	library, err := NewLibrary(cfg.FramesDir)
	if err != nil {
		return nil, err
	}
	m := metrics.NewServerMetrics()
	m.LibraryRescanned(library.Counts())

	s := &Server{
		cfg:     cfg,
		logger:  logger,
		library: library,
		metrics: m,
		watcher: NewWatcher(library, cfg.Debounce, logger, m.LibraryRescanned),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /image", NewImageHandler(library, NewVoltageLog(cfg.DataDir), m, logger))
	mux.Handle("GET /metrics", m.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	s.http = &http.Server{
		Addr:              cfg.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

// Handler returns the route mux.
func (s *Server) Handler() http.Handler {
	return s.http.Handler
}

// Addr returns the bound address once Run is listening.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := s.watcher.Run(ctx); err != nil {
			s.logger.Warn("frame watcher stopped", ports.Err(err))
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.http.Serve(ln)
	}()

	s.logger.Info("frame server listening",
		ports.String("addr", ln.Addr().String()),
		ports.String("frames", s.cfg.FramesDir),
	)

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, stop := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer stop()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("http shutdown", ports.Err(err))
	}
	cancel()
	wg.Wait()

	if serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		return serveErr
	}
	return nil
}
