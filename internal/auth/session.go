// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

const (
	// SessionTokenBytes is the entropy of a session token before
	// encoding.
	SessionTokenBytes = 32

	// DefaultSessionTTL is how long a session stays valid without
	// being re-established.
	DefaultSessionTTL = 24 * time.Hour
)

// Session is a server-side authenticated session record. Only the
// SHA-256 hash of the token is stored; the token itself exists solely
// in the client's cookie.
type Session struct {
	TokenHash string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// GenerateSessionToken creates a cryptographically random session
// token, URL-safe base64 encoded.
func GenerateSessionToken() (string, error) {
	b := make([]byte, SessionTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", oops.Code("AUTH_TOKEN_FAILED").Wrap(err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashSessionToken returns the hex-encoded SHA-256 of a token. A
// database leak exposes only hashes, never usable tokens.
func HashSessionToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// SessionStore persists session records keyed by token hash.
type SessionStore interface {
	// Insert stores a new session.
	Insert(ctx context.Context, session *Session) error

	// GetByTokenHash retrieves a session. Returns ErrNotFound when no
	// session has that token hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*Session, error)

	// DeleteByTokenHash removes one session. Deleting a session that
	// does not exist is not an error.
	DeleteByTokenHash(ctx context.Context, tokenHash string) error

	// DeleteOthers removes every session of the user except the one
	// with keepTokenHash. Used after a password change so other
	// devices are signed out.
	DeleteOthers(ctx context.Context, userID uuid.UUID, keepTokenHash string) error

	// DeleteByUser removes every session of the user.
	DeleteByUser(ctx context.Context, userID uuid.UUID) error

	// DeleteExpired removes sessions past their expiry and reports how
	// many were removed.
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
