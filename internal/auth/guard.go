// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Guard resolves session tokens to identities and manages the session
// lifecycle. Tokens are rotated on every Establish so a session fixed
// before login is worthless after it.
type Guard struct {
	sessions SessionStore
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

// NewGuard creates a Guard. A non-positive ttl falls back to
// DefaultSessionTTL.
func NewGuard(sessions SessionStore, ttl time.Duration, logger *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &Guard{
		sessions: sessions,
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Current resolves a session token to an identity. An empty, unknown,
// or expired token yields (nil, nil): the caller is anonymous, which
// is not an error here. Storage failures are returned as errors.
func (g *Guard) Current(ctx context.Context, token string) (*VerifiedIdentity, error) {
	if token == "" {
		return nil, nil
	}

	session, err := g.sessions.GetByTokenHash(ctx, HashSessionToken(token))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, nil
		}
		return nil, oops.Code("AUTH_SESSION_LOOKUP_FAILED").Wrap(err)
	}

	if session.Expired(g.now()) {
		if err := g.sessions.DeleteByTokenHash(ctx, session.TokenHash); err != nil {
			g.logger.WarnContext(ctx, "failed to remove expired session", "error", err)
		}
		return nil, nil
	}

	return &VerifiedIdentity{UserID: session.UserID}, nil
}

// Require resolves a session token to an identity, failing with
// ErrAnonymous when there is no valid session.
func (g *Guard) Require(ctx context.Context, token string) (*VerifiedIdentity, error) {
	identity, err := g.Current(ctx, token)
	if err != nil {
		return nil, err
	}
	if identity == nil {
		return nil, ErrAnonymous
	}
	return identity, nil
}

// Establish creates a fresh session for the user and returns the new
// token. Any session behind oldToken is destroyed first, so the token
// a client held before authenticating never names an authenticated
// session.
func (g *Guard) Establish(ctx context.Context, oldToken string, userID uuid.UUID) (string, error) {
	if oldToken != "" {
		if err := g.sessions.DeleteByTokenHash(ctx, HashSessionToken(oldToken)); err != nil {
			return "", oops.Code("AUTH_SESSION_ROTATE_FAILED").Wrap(err)
		}
	}

	token, err := GenerateSessionToken()
	if err != nil {
		return "", err
	}

	now := g.now()
	session := &Session{
		TokenHash: HashSessionToken(token),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(g.ttl),
	}
	if err := g.sessions.Insert(ctx, session); err != nil {
		return "", oops.Code("AUTH_SESSION_CREATE_FAILED").Wrap(err)
	}

	return token, nil
}

// Terminate destroys the session behind the token. Terminating a
// token with no session is a no-op.
func (g *Guard) Terminate(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	if err := g.sessions.DeleteByTokenHash(ctx, HashSessionToken(token)); err != nil {
		return oops.Code("AUTH_SESSION_DELETE_FAILED").Wrap(err)
	}
	return nil
}
