// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package web serves the login, admin, newsletter, and subscription
// endpoints.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/samber/oops"
	slogecho "github.com/samber/slog-echo"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/newsletter"
	"github.com/inkpress/inkpress/internal/observability"
)

// Config holds the web server's settings.
type Config struct {
	Addr string

	// SecureCookies marks session and flash cookies Secure. Disable
	// only for plain-HTTP local development.
	SecureCookies bool

	SessionTTL time.Duration
}

// Deps are the services the handlers dispatch to.
type Deps struct {
	Validator     *auth.CredentialValidator
	Guard         *auth.Guard
	Passwords     *auth.PasswordService
	Users         auth.CredentialStore
	Subscriptions *newsletter.SubscriptionService
	Publisher     *newsletter.Publisher
	Flash         *Flasher
	Metrics       *observability.Metrics
	Logger        *slog.Logger
}

// Server is the public-facing HTTP server.
type Server struct {
	cfg     Config
	deps    Deps
	echo    *echo.Echo
	running atomic.Bool
}

// NewServer creates the web server and registers its routes.
func NewServer(cfg Config, deps Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(slogecho.New(deps.Logger))
	e.Use(middleware.Recover())

	s := &Server{cfg: cfg, deps: deps, echo: e}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.echo.GET("/login", s.handleLoginForm)
	s.echo.POST("/login", s.handleLogin)
	s.echo.POST("/subscriptions", s.handleSubscribe)
	s.echo.POST("/newsletters", s.handlePublish)

	admin := s.echo.Group("/admin")
	admin.GET("/dashboard", s.handleDashboard)
	admin.GET("/password", s.handlePasswordForm)
	admin.POST("/password", s.handlePasswordChange)
	admin.POST("/logout", s.handleLogout)
}

// ServeHTTP dispatches a request. Exposed so tests can exercise the
// full routing stack without a listener.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

// Start begins serving on the configured address. It returns an error
// channel that receives any failure after startup and closes on
// graceful shutdown.
func (s *Server) Start() (<-chan error, error) {
	if !s.running.CompareAndSwap(false, true) {
		return nil, oops.Errorf("web server already running")
	}

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		if err := s.echo.Start(s.cfg.Addr); err != nil && err != http.ErrServerClosed {
			s.deps.Logger.Error("web server error", "error", err)
			errCh <- err
		}
	}()

	s.deps.Logger.Info("web server started", "addr", s.cfg.Addr)
	return errCh, nil
}

// Stop gracefully shuts down the web server.
func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	if err := s.echo.Shutdown(ctx); err != nil {
		s.running.Store(true)
		return oops.With("operation", "shutdown_web_server").Wrap(err)
	}
	s.deps.Logger.Info("web server stopped")
	return nil
}
