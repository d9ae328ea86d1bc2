// Package server provides the HTTP server for the split-session API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	log "github.com/go-pkgz/lgr"
	"github.com/go-pkgz/rest"
	"github.com/go-pkgz/routegroup"

	"github.com/umputun/secsplit/app/store"
)

//go:generate moq -out mocks/sessions.go -pkg mocks -skip-ensure -fmt goimports . Sessions

// Server represents the HTTP server.
type Server struct {
	sessions Sessions
	cfg      Config
	version  string
	baseURL  string
	auth     *Auth
}

// Sessions defines the interface for split-session operations.
// Defined here (consumer side) to allow different manager implementations.
type Sessions interface {
	Save(ctx context.Context, id string, keys []string, data map[string]string) error
	Load(ctx context.Context, id string, keys []string) (map[string]string, error)
	Clear(ctx context.Context, id string) error
	List(ctx context.Context) ([]store.DocInfo, error)
}

// Config holds server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	Version         string
	AuthFile        string        // path to auth config file (empty = auth disabled)
	AuthHotReload   bool          // watch auth config for changes and reload
	LoginTTL        time.Duration // bearer token duration
	BaseURL         string        // base URL path for reverse proxy (e.g., /secsplit)

	// limits
	BodySizeLimit    int64 // max request body size in bytes
	RequestsPerSec   int64 // max requests per second
	LoginConcurrency int64 // max concurrent login attempts
}

// New creates a new Server instance.
func New(sessions Sessions, cfg Config) (*Server, error) {
	auth, err := NewAuth(cfg.AuthFile, cfg.LoginTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize auth: %w", err)
	}

	return &Server{
		sessions: sessions,
		cfg:      cfg,
		version:  cfg.Version,
		baseURL:  cfg.BaseURL,
		auth:     auth,
	}, nil
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:              s.cfg.Address,
		Handler:           s.handler(),
		ReadHeaderTimeout: s.cfg.ReadTimeout,
		WriteTimeout:      s.cfg.WriteTimeout,
		IdleTimeout:       s.cfg.IdleTimeout,
	}

	// start auth config file watcher if enabled
	if s.auth.Enabled() && s.cfg.AuthHotReload {
		if err := s.auth.StartWatcher(ctx); err != nil {
			return fmt.Errorf("failed to start auth config watcher: %w", err)
		}
		log.Printf("[INFO] auth config hot-reload enabled")
	}

	// start bearer token cleanup goroutine if auth is enabled
	if s.auth.Enabled() {
		s.auth.StartCleanup(ctx)
	}

	// graceful shutdown
	go func() {
		<-ctx.Done()
		log.Printf("[INFO] shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Printf("[WARN] shutdown error: %v", err)
		}
	}()

	log.Printf("[DEBUG] started server on %s", s.cfg.Address)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// handler returns the HTTP handler, wrapping routes with base URL support if configured.
func (s *Server) handler() http.Handler {
	routes := s.routes()
	if s.baseURL == "" {
		return routes
	}
	mux := http.NewServeMux()
	// redirect /base to /base/
	mux.HandleFunc(s.baseURL, func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, s.baseURL+"/", http.StatusMovedPermanently)
	})
	// strip prefix for all routes under base URL
	mux.Handle(s.baseURL+"/", http.StripPrefix(s.baseURL, routes))
	return mux
}

// routes configures and returns the HTTP handler with all routes and middleware.
func (s *Server) routes() http.Handler {
	router := routegroup.New(http.NewServeMux())

	// global middleware (applies to all routes)
	router.Use(
		rest.Recoverer(log.Default()),
		rest.RealIP, // must be before Throttle to rate-limit by real client IP
		rest.Throttle(s.requestsPerSec()),
		rest.Trace,
		rest.SizeLimit(s.bodySizeLimit()),
		rest.AppInfo("secsplit", "umputun", s.version),
		rest.Ping,
	)

	tokenAuth := NoopAuth
	if s.auth.Enabled() {
		tokenAuth = s.auth.TokenAuth

		// login routes with stricter throttle to prevent brute-force
		router.Group().Route(func(login *routegroup.Bundle) {
			login.Use(rest.Throttle(s.loginConcurrency()))
			login.HandleFunc("POST /auth/login", s.loginHandler)
			login.HandleFunc("POST /auth/logout", s.logoutHandler)
		})
	}

	// session API routes (token auth)
	router.Mount("/api/v1").Route(func(api *routegroup.Bundle) {
		api.Use(tokenAuth)
		api.HandleFunc("GET /sessions", s.listHandler)
		api.HandleFunc("POST /session/{id...}", s.saveHandler)
		api.HandleFunc("GET /session/{id...}", s.loadHandler)
		api.HandleFunc("DELETE /session/{id...}", s.clearHandler)
	})

	return router
}

// bodySizeLimit returns the configured body size limit, or default 1MB if not set.
func (s *Server) bodySizeLimit() int64 {
	if s.cfg.BodySizeLimit > 0 {
		return s.cfg.BodySizeLimit
	}
	return 1024 * 1024 // 1MB default
}

// requestsPerSec returns the configured requests per second limit, or default 1000 if not set.
func (s *Server) requestsPerSec() int64 {
	if s.cfg.RequestsPerSec > 0 {
		return s.cfg.RequestsPerSec
	}
	return 1000 // default
}

// loginConcurrency returns the configured login concurrency limit, or default 5 if not set.
func (s *Server) loginConcurrency() int64 {
	if s.cfg.LoginConcurrency > 0 {
		return s.cfg.LoginConcurrency
	}
	return 5 // default
}
