// Package gateway provides the HTTP surface: health, Prometheus metrics,
// webhook intake, and authenticated admin endpoints. It binds to loopback
// by default.
package gateway

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/metoushela/megan/internal/continuation"
	"github.com/metoushela/megan/internal/history"
)

// Config holds the gateway dependencies and settings.
type Config struct {
	// Addr is the listen address.
	Addr string

	// AdminToken authorizes the admin endpoints. Empty leaves them unmounted.
	AdminToken string

	// Store is the transcript backend behind the admin wipe endpoint.
	Store history.Store

	// Continuations is reported by the health endpoint. Optional.
	Continuations *continuation.Tracker

	// Metrics is the Prometheus scrape handler. Optional; /metrics is not
	// mounted without it.
	Metrics http.Handler

	Logger *slog.Logger

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) withDefaults() {
	if c.Addr == "" {
		c.Addr = "127.0.0.1:8080"
	}
	if c.Logger == nil {
		c.Logger = slog.New(nopHandler{})
	}
	if c.ReadTimeout <= 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 30 * time.Second
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 5 * time.Second
	}
}

// Server is the HTTP gateway.
type Server struct {
	cfg        Config
	logger     *slog.Logger
	server     *http.Server
	dispatcher *WebhookDispatcher
	startedAt  time.Time
}

// NewServer builds a gateway from the given configuration.
func NewServer(cfg Config) *Server {
	cfg.withDefaults()
	return &Server{
		cfg:        cfg,
		logger:     cfg.Logger,
		dispatcher: NewWebhookDispatcher(cfg.Logger),
	}
}

// Dispatcher returns the webhook dispatcher so channel modules can register
// their inbound handlers.
func (s *Server) Dispatcher() *WebhookDispatcher {
	return s.dispatcher
}

// Start binds the listen address and serves in the background.
func (s *Server) Start() error {
	s.startedAt = time.Now()

	s.server = &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.buildRouter(),
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	var lc net.ListenConfig
	ln, err := lc.Listen(context.Background(), "tcp", s.cfg.Addr)
	if err != nil {
		return errors.New("gateway: listen failed: " + err.Error())
	}

	go func() {
		s.logger.Info("gateway listening", "addr", s.cfg.Addr)
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("gateway serve error", "error", err)
		}
	}()

	return nil
}

// Stop shuts the server down gracefully with the configured timeout.
func (s *Server) Stop(ctx context.Context) error {
	if s.server == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("gateway shutting down")
	return s.server.Shutdown(shutdownCtx)
}

// nopHandler is a slog.Handler that drops everything. Used when no logger
// is provided, so the gateway stays silent by default.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }
