package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resumeforge/internal/observability"
)

// Start runs the HTTP server until a shutdown signal arrives
func (s *Server) Start() error {
	om, err := observability.NewManager(s.AppConfig.Observability, s.Version)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer s.shutdownObservability(om)

	mux := s.setupRoutes(om)
	handler := om.HTTPMiddleware()(mux)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", s.Host, s.Port),
		Handler:      handler,
		ReadTimeout:  s.ReadTimeout,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  s.IdleTimeout,
	}

	if err := s.configureTLS(httpServer); err != nil {
		return err
	}

	s.startResumeWatcher()
	s.displayServerInfo()

	return s.startWithGracefulShutdown(httpServer)
}

// startResumeWatcher watches the canonical resume file when configured
func (s *Server) startResumeWatcher() {
	if !s.AppConfig.Resume.WatchChanges || s.AppConfig.Resume.CanonicalPath == "" {
		return
	}

	watcher, err := NewResumeWatcher(s.resume, s.Logger)
	if err != nil {
		s.Logger.LogError(err, "Resume watcher could not be started; continuing without live reload")
		return
	}
	s.watcher = watcher
	s.Logger.Info("Watching canonical resume for changes", "path", s.AppConfig.Resume.CanonicalPath)
}

func (s *Server) shutdownObservability(om *observability.Manager) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := om.Shutdown(ctx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown observability")
	}
}

// startWithGracefulShutdown starts the HTTP server and handles graceful shutdown
func (s *Server) startWithGracefulShutdown(server *http.Server) error {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.Logger.Info("Starting HTTP server",
			"address", server.Addr,
			"tls_enabled", server.TLSConfig != nil)

		var err error
		if server.TLSConfig != nil {
			// Certificates are already loaded into the TLS config
			err = server.ListenAndServeTLS("", "")
		} else {
			err = server.ListenAndServe()
		}

		if err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server failed to start: %w", err)
	case sig := <-quit:
		s.Logger.Info("Received shutdown signal, starting graceful shutdown",
			"signal", sig.String())
		return s.performGracefulShutdown(server)
	}
}

// performGracefulShutdown handles the graceful shutdown process
func (s *Server) performGracefulShutdown(server *http.Server) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.watcher != nil {
		if err := s.watcher.Stop(); err != nil {
			s.Logger.LogError(err, "Failed to stop resume watcher")
		}
	}

	if s.RateLimiter != nil {
		s.RateLimiter.Close()
		s.Logger.Info("Rate limiter cleaned up")
	}

	s.Logger.Info("Shutting down HTTP server...")
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.Logger.LogError(err, "Failed to shutdown server gracefully, forcing close")
		return server.Close()
	}

	s.Logger.Info("Server shutdown completed successfully")
	return nil
}

// displayServerInfo prints startup information for operators
func (s *Server) displayServerInfo() {
	scheme := "http"
	if s.TLSConfig.Mode == "server" {
		scheme = "https"
	}

	fmt.Printf("resumeforge server %s\n", s.Version)
	fmt.Printf("Listening on %s://%s:%s\n", scheme, s.Host, s.Port)
	fmt.Printf("Endpoints: /health /stats /analyze /optimize /render /records\n")

	if len(s.APIKeys) > 0 {
		fmt.Printf("API key authentication: enabled (%d keys)\n", len(s.APIKeys))
	} else {
		fmt.Println("API key authentication: disabled")
	}
	if s.RateLimit != nil && s.RateLimit.Enabled {
		fmt.Printf("Rate limiting: %d req/min, burst %d\n",
			s.RateLimit.RequestsPerMin, s.RateLimit.BurstCapacity)
	}
}
