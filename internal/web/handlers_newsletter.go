// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/newsletter"
)

type publishRequest struct {
	Title   string `json:"title"`
	Content struct {
		Text string `json:"text"`
		HTML string `json:"html"`
	} `json:"content"`
}

func unauthorized(c echo.Context) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, `Basic realm="publish"`)
	return echo.NewHTTPError(http.StatusUnauthorized)
}

// handlePublish delivers an issue to every confirmed subscriber. The
// caller authenticates with basic auth on every request; there is no
// session here.
func (s *Server) handlePublish(c echo.Context) error {
	ctx := c.Request().Context()

	creds, err := auth.ParseBasicAuth(c.Request().Header.Get(echo.HeaderAuthorization))
	if err != nil {
		return unauthorized(c)
	}

	if _, err := s.deps.Validator.Validate(ctx, creds); err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			return unauthorized(c)
		}
		s.deps.Logger.ErrorContext(ctx, "publisher authentication failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	var req publishRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid issue payload")
	}

	sent, err := s.deps.Publisher.Publish(ctx, newsletter.Issue{
		Title:       req.Title,
		TextContent: req.Content.Text,
		HTMLContent: req.Content.HTML,
	})
	if err != nil {
		s.deps.Logger.ErrorContext(ctx, "issue delivery failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	s.deps.Metrics.IssuesPublished.Inc()
	s.deps.Metrics.IssueEmailsSent.Add(float64(sent))
	return c.NoContent(http.StatusOK)
}

// handleSubscribe records a new subscriber from a form submission.
func (s *Server) handleSubscribe(c echo.Context) error {
	ctx := c.Request().Context()

	_, err := s.deps.Subscriptions.Subscribe(ctx, c.FormValue("name"), c.FormValue("email"))
	switch {
	case errors.Is(err, newsletter.ErrInvalidName), errors.Is(err, newsletter.ErrInvalidEmail):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, newsletter.ErrDuplicateSubscriber):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case err != nil:
		s.deps.Logger.ErrorContext(ctx, "subscription failed", "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError)
	}

	s.deps.Metrics.SubscriptionsTotal.Inc()
	return c.NoContent(http.StatusOK)
}
