// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/observability"
)

// User-facing notices. The wording is part of the UI contract and is
// asserted by tests, do not rephrase casually.
const (
	flashAuthFailed        = "Authentication failed"
	flashLoggedOut         = "You have successfully logged out."
	flashFieldsMismatch    = "Password fields must match."
	flashCurrentIncorrect  = "Current password is incorrect."
	flashPasswordChanged   = "Your password has been changed."
	flashPasswordLengthFmt = "New password must be between %d and %d characters."
)

func (s *Server) handleLoginForm(c echo.Context) error {
	flash := s.deps.Flash.Pop(c.Response(), c.Request())
	return renderPage(c, "login", pageData{Flash: flash})
}

// handleLogin validates the submitted credentials. Success rotates
// the session and lands on the dashboard; a bad username or password
// bounces back to the form with the same notice for both cases.
func (s *Server) handleLogin(c echo.Context) error {
	ctx := c.Request().Context()

	creds := auth.Credentials{
		Username: c.FormValue("username"),
		Password: auth.NewSecret(c.FormValue("password")),
	}

	identity, err := s.deps.Validator.Validate(ctx, creds)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			s.deps.Metrics.LoginAttempts.WithLabelValues(observability.OutcomeFailure).Inc()
			s.deps.Flash.Set(c.Response(), flashAuthFailed)
			return c.Redirect(http.StatusSeeOther, "/login")
		}
		s.deps.Metrics.LoginAttempts.WithLabelValues(observability.OutcomeError).Inc()
		s.deps.Logger.ErrorContext(ctx, "login failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	token, err := s.deps.Guard.Establish(ctx, s.sessionToken(c), identity.UserID)
	if err != nil {
		s.deps.Metrics.LoginAttempts.WithLabelValues(observability.OutcomeError).Inc()
		s.deps.Logger.ErrorContext(ctx, "failed to establish session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	s.deps.Metrics.LoginAttempts.WithLabelValues(observability.OutcomeSuccess).Inc()
	s.setSessionCookie(c, token)
	return c.Redirect(http.StatusSeeOther, "/admin/dashboard")
}

// requireUser resolves the session or redirects to the login form.
// The returned bool reports whether the caller may proceed.
func (s *Server) requireUser(c echo.Context) (*auth.VerifiedIdentity, bool, error) {
	identity, err := s.deps.Guard.Require(c.Request().Context(), s.sessionToken(c))
	if err != nil {
		if errors.Is(err, auth.ErrAnonymous) {
			return nil, false, c.Redirect(http.StatusSeeOther, "/login")
		}
		s.deps.Logger.ErrorContext(c.Request().Context(), "session lookup failed", "error", err)
		return nil, false, echo.NewHTTPError(http.StatusInternalServerError)
	}
	return identity, true, nil
}

func (s *Server) handleDashboard(c echo.Context) error {
	identity, ok, err := s.requireUser(c)
	if !ok {
		return err
	}

	username, err := s.deps.Users.GetUsername(c.Request().Context(), identity.UserID)
	if err != nil {
		s.deps.Logger.ErrorContext(c.Request().Context(), "failed to resolve username", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	return renderPage(c, "dashboard", pageData{Username: username})
}

func (s *Server) handleLogout(c echo.Context) error {
	if _, ok, err := s.requireUser(c); !ok {
		return err
	}

	if err := s.deps.Guard.Terminate(c.Request().Context(), s.sessionToken(c)); err != nil {
		s.deps.Logger.ErrorContext(c.Request().Context(), "failed to terminate session", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	s.clearSessionCookie(c)
	s.deps.Flash.Set(c.Response(), flashLoggedOut)
	return c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) handlePasswordForm(c echo.Context) error {
	if _, ok, err := s.requireUser(c); !ok {
		return err
	}
	flash := s.deps.Flash.Pop(c.Response(), c.Request())
	return renderPage(c, "password", pageData{Flash: flash})
}

func (s *Server) handlePasswordChange(c echo.Context) error {
	identity, ok, err := s.requireUser(c)
	if !ok {
		return err
	}
	ctx := c.Request().Context()

	err = s.deps.Passwords.ChangePassword(ctx,
		identity.UserID,
		s.sessionToken(c),
		auth.NewSecret(c.FormValue("current_password")),
		auth.NewSecret(c.FormValue("new_password")),
		auth.NewSecret(c.FormValue("new_password_check")),
	)

	switch {
	case errors.Is(err, auth.ErrPasswordFieldsMismatch):
		s.deps.Flash.Set(c.Response(), flashFieldsMismatch)
	case errors.Is(err, auth.ErrPasswordLength):
		s.deps.Flash.Set(c.Response(), fmt.Sprintf(flashPasswordLengthFmt,
			auth.MinPasswordLength, auth.MaxPasswordLength))
	case errors.Is(err, auth.ErrCurrentPasswordIncorrect):
		s.deps.Flash.Set(c.Response(), flashCurrentIncorrect)
	case err != nil:
		s.deps.Logger.ErrorContext(ctx, "password change failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	default:
		s.deps.Metrics.PasswordChanges.Inc()
		s.deps.Flash.Set(c.Response(), flashPasswordChanged)
	}

	return c.Redirect(http.StatusSeeOther, "/admin/password")
}
