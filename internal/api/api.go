// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/atelier/internal/api/health"
	"github.com/good-yellow-bee/atelier/internal/api/middleware"
	"github.com/good-yellow-bee/atelier/internal/auth"
	"github.com/good-yellow-bee/atelier/internal/files"
	"github.com/good-yellow-bee/atelier/internal/notifier"
	"github.com/good-yellow-bee/atelier/internal/projects"
	"github.com/good-yellow-bee/atelier/internal/session"
	"github.com/good-yellow-bee/atelier/internal/storage"
)

// MinSecretLength is the shortest accepted session secret.
const MinSecretLength = 32

// cleanupInterval is how often expired sessions, lockouts and idle rate
// limiter entries are dropped.
const cleanupInterval = time.Minute

// Config contains HTTP API server configuration.
type Config struct {
	Address            string
	TLSEnabled         bool
	TLSCertFile        string
	TLSKeyFile         string
	SecureCookies      bool     // Secure flag on cookies (true behind HTTPS)
	TrustedOrigins     []string // Origins allowed by the CSRF check
	TrustProxy         bool     // Honor X-Forwarded-For / X-Real-IP
	CSRFEnabled        bool
	CSRFKey            []byte // 32 bytes
	SessionSecret      []byte // Signs remember-me tokens
	SessionTTL         time.Duration
	RememberDays       int
	BcryptCost         int
	LockoutThreshold   int
	LockoutDuration    time.Duration
	LoginRatePerMinute int
	MaxUploadBytes     int64
	ExposeMetrics      bool // Serve /metrics on the API address
	Notify             notifier.Config
	Verbose            bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
	if c.SessionTTL == 0 {
		c.SessionTTL = 24 * time.Hour
	}
	if c.RememberDays == 0 {
		c.RememberDays = session.DefaultRememberDays
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = 12
	}
	if c.LockoutThreshold == 0 {
		c.LockoutThreshold = 5
	}
	if c.LockoutDuration == 0 {
		c.LockoutDuration = 15 * time.Minute
	}
	if c.LoginRatePerMinute == 0 {
		c.LoginRatePerMinute = 10
	}
	if c.MaxUploadBytes == 0 {
		c.MaxUploadBytes = 20 << 20
	}
}

// Server is the HTTP API server.
type Server struct {
	config   *Config
	storage  storage.Storage
	files    *files.Manager
	logger   *zap.SugaredLogger
	authn    *auth.Authenticator
	sessions *session.Manager
	lockout  *auth.LockoutTracker
	limiter  *middleware.RateLimiter
	projects *projects.Service
	health   *health.Handler
	notifier *notifier.Dispatcher
	server   *http.Server
}

// New creates a new API server.
func New(cfg *Config, store storage.Storage, fm *files.Manager, logger *zap.SugaredLogger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if store == nil {
		return nil, errors.New("storage is required")
	}
	if fm == nil {
		return nil, errors.New("file manager is required")
	}
	if len(cfg.SessionSecret) < MinSecretLength {
		return nil, fmt.Errorf("session secret must be at least %d bytes", MinSecretLength)
	}
	if cfg.CSRFEnabled && len(cfg.CSRFKey) != 32 {
		return nil, errors.New("csrf key must be exactly 32 bytes")
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	cfg.SetDefaults()

	dispatcher, err := notifier.New(cfg.Notify, logger.Named("notifier"))
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}

	authn := auth.New(store.Users(), auth.Options{BcryptCost: cfg.BcryptCost})
	sessions := session.NewManager(
		session.NewStore(cfg.SessionTTL),
		session.NewTokenSigner(cfg.SessionSecret),
		authn,
		cfg.RememberDays,
		logger.Named("session"),
	)

	s := &Server{
		config:   cfg,
		storage:  store,
		files:    fm,
		logger:   logger,
		authn:    authn,
		sessions: sessions,
		lockout:  auth.NewLockoutTracker(cfg.LockoutThreshold, cfg.LockoutDuration),
		limiter:  middleware.NewRateLimiter(cfg.LoginRatePerMinute),
		projects: projects.NewService(store, authn, fm, logger.Named("projects")).WithSessions(sessions.Store()),
		health:   health.NewHandler(logger),
		notifier: dispatcher,
	}
	s.health.RegisterChecker(health.NewDatabaseChecker(store))
	s.health.RegisterChecker(health.NewUploadsChecker(fm.Root()))

	s.server = &http.Server{
		Addr:              cfg.Address,
		Handler:           s.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
		// Uploads are bounded by MaxUploadBytes, not by time.
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	if cfg.TLSEnabled {
		s.server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Sessions returns the session manager.
func (s *Server) Sessions() *session.Manager {
	return s.sessions
}

// Run serves HTTP and the periodic cleanups until ctx is canceled.
func (s *Server) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error { return s.sessions.Store().Run(ctx, cleanupInterval) })
	g.Go(func() error { return s.lockout.Run(ctx, cleanupInterval) })
	g.Go(func() error { return s.limiter.Run(ctx, cleanupInterval) })
	g.Go(func() error { return s.notifier.Run(ctx) })

	g.Go(func() error {
		s.logger.Infow("HTTP API listening", "addr", s.config.Address, "tls", s.config.TLSEnabled)
		var err error
		if s.config.TLSEnabled {
			err = s.server.ListenAndServeTLS(s.config.TLSCertFile, s.config.TLSKeyFile)
		} else {
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http api: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		s.logger.Info("shutting down HTTP API server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.notifier.Close(); err != nil {
			s.logger.Warnw("closing notifiers", "error", err)
		}
		return s.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}

// RegisterHealthChecker adds a readiness checker.
func (s *Server) RegisterHealthChecker(c health.Checker) {
	s.health.RegisterChecker(c)
}
