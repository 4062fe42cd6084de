// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"

	"github.com/google/uuid"
)

// Credentials is a single authentication attempt. It is constructed
// per request and never persisted.
type Credentials struct {
	Username string
	Password Secret
}

// VerifiedIdentity is the sole output of a successful credential
// validation. It carries no claims beyond the user ID.
type VerifiedIdentity struct {
	UserID uuid.UUID
}

// StoredCredential is the durable credential record for a user.
type StoredCredential struct {
	UserID       uuid.UUID
	Username     string
	PasswordHash string
}

// CredentialStore reads and updates stored credential records.
type CredentialStore interface {
	// Lookup retrieves the credential record for a username.
	// Returns ErrNotFound when no such user exists; any other error
	// indicates a storage failure.
	Lookup(ctx context.Context, username string) (*StoredCredential, error)

	// GetUsername resolves a user ID back to its username.
	// Returns ErrNotFound when the user does not exist.
	GetUsername(ctx context.Context, userID uuid.UUID) (string, error)

	// UpdateHash overwrites the stored password hash for a user.
	// Returns ErrNotFound when the user does not exist.
	UpdateHash(ctx context.Context, userID uuid.UUID, newHash string) error
}
