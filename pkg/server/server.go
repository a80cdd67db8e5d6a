package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"mercator-hq/stormwatch/pkg/api/handlers"
	"mercator-hq/stormwatch/pkg/api/middleware"
	"mercator-hq/stormwatch/pkg/config"
	sectls "mercator-hq/stormwatch/pkg/security/tls"
)

// Server is the stormwatch HTTP server.
type Server struct {
	config       *config.ServerConfig
	app          *App
	logger       *slog.Logger
	httpServer   *http.Server
	handler      http.Handler
	addr         net.Addr
	ready        chan struct{}
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server that serves app's components.
func NewServer(cfg *config.ServerConfig, app *App) *Server {
	s := &Server{
		config:       cfg,
		app:          app,
		logger:       app.logger.With("component", "server"),
		ready:        make(chan struct{}),
		shutdownChan: make(chan struct{}),
	}
	s.handler = s.setupRoutes()
	return s
}

// Start listens on the configured address and blocks until ctx is
// cancelled, SIGINT or SIGTERM arrives, Stop is called or serving fails.
// It shuts the server down before returning.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}
	if s.httpServer != nil {
		s.mu.Unlock()
		return fmt.Errorf("server cannot be restarted")
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ln, err := s.listen(ctx)
	if err != nil {
		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()
		return err
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.httpServer = &http.Server{
		Handler:        s.handler,
		ReadTimeout:    s.config.ReadTimeout,
		WriteTimeout:   s.config.WriteTimeout,
		IdleTimeout:    s.config.IdleTimeout,
		MaxHeaderBytes: s.config.MaxHeaderBytes,
	}
	s.mu.Unlock()

	if err := s.app.StartBackground(ctx); err != nil {
		s.logger.Warn("background tasks not started", "error", err)
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server", "address", ln.Addr().String(), "tls", s.config.TLS.Enabled)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()
	close(s.ready)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig.String())
	case err := <-errChan:
		_ = s.Shutdown(context.Background())
		return err
	case <-s.shutdownChan:
		s.logger.Info("shutdown requested")
	}
	return s.Shutdown(context.Background())
}

// listen binds the listen address, wrapping it in TLS when enabled. The
// certificate watcher runs until ctx is cancelled.
func (s *Server) listen(ctx context.Context) (net.Listener, error) {
	var tlsConfig *tls.Config
	if s.config.TLS.Enabled {
		reloader, err := sectls.NewCertificateReloader(s.config.TLS.CertFile, s.config.TLS.KeyFile, s.logger)
		if err != nil {
			return nil, err
		}
		tlsConfig, err = sectls.ServerConfig(&s.config.TLS, reloader)
		if err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
		go func() {
			if err := reloader.Watch(ctx); err != nil {
				s.logger.Warn("certificate watcher stopped", "error", err)
			}
		}()
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	if tlsConfig != nil {
		ln = tls.NewListener(ln, tlsConfig)
	}
	return ln, nil
}

// Stop asks a running Start to shut down.
func (s *Server) Stop() {
	select {
	case <-s.shutdownChan:
	default:
		close(s.shutdownChan)
	}
}

// Ready is closed once the server is accepting connections.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound listen address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Shutdown gracefully shuts down the server within the configured shutdown
// timeout.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.mu.Lock()
		if !s.isRunning {
			s.mu.Unlock()
			return
		}
		srv := s.httpServer
		s.mu.Unlock()

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())

		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if srv != nil {
			if err := srv.Shutdown(shutdownCtx); err != nil {
				s.logger.Error("error during server shutdown", "error", err)
				shutdownErr = fmt.Errorf("server shutdown error: %w", err)
			}
		}

		s.mu.Lock()
		s.isRunning = false
		s.mu.Unlock()

		s.logger.Info("server stopped")
	})

	return shutdownErr
}

// IsRunning returns true if the server is running.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) setupRoutes() http.Handler {
	mux := http.NewServeMux()
	logger := s.app.logger

	evaluate := handlers.NewEvaluateHandler(s.app.Service, s.config.MaxBodyBytes, logger)
	mux.Handle("/v1/evaluate", evaluate)
	mux.Handle("/evaluate", evaluate)

	handlers.NewRecordsHandler(s.app.Records, s.app.Service, s.config.MaxBodyBytes, logger).Register(mux)

	if s.app.Evidence != nil {
		handlers.NewEvidenceHandler(s.app.Evidence, &s.app.Config.Evidence.Query, logger).Register(mux)
	}

	s.app.Telemetry.Mount(mux)

	return middleware.Chain(mux, s.config, s.app.Limiter, s.app.Telemetry.Metrics(), logger)
}
