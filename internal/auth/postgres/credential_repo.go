// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/samber/oops"

	"github.com/inkpress/inkpress/internal/auth"
)

// CredentialRepository implements auth.CredentialStore using PostgreSQL.
type CredentialRepository struct {
	pool poolIface
}

// NewCredentialRepository creates a new CredentialRepository.
func NewCredentialRepository(pool poolIface) *CredentialRepository {
	return &CredentialRepository{pool: pool}
}

// Create stores a new user with a precomputed password hash.
func (r *CredentialRepository) Create(ctx context.Context, cred *auth.StoredCredential) error {
	now := time.Now().UTC()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`, cred.UserID.String(), cred.Username, cred.PasswordHash, now, now)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").
			With("operation", "insert user").
			With("username", cred.Username).
			Wrap(err)
	}
	return nil
}

// Lookup retrieves the credential record for a username.
func (r *CredentialRepository) Lookup(ctx context.Context, username string) (*auth.StoredCredential, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, username, password_hash
		FROM users
		WHERE username = $1
	`, username)

	cred, err := r.scanCredential(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, oops.Code("USER_NOT_FOUND").Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").
			With("operation", "lookup user by username").
			Wrap(err)
	}
	return cred, nil
}

// GetUsername resolves a user ID back to its username.
func (r *CredentialRepository) GetUsername(ctx context.Context, userID uuid.UUID) (string, error) {
	var username string
	err := r.pool.QueryRow(ctx, `
		SELECT username FROM users WHERE id = $1
	`, userID.String()).Scan(&username)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", oops.Code("USER_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	if err != nil {
		return "", oops.Code("USER_GET_USERNAME_FAILED").
			With("operation", "get username by id").
			With("user_id", userID.String()).
			Wrap(err)
	}
	return username, nil
}

// UpdateHash overwrites the stored password hash for a user.
func (r *CredentialRepository) UpdateHash(ctx context.Context, userID uuid.UUID, newHash string) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE users SET password_hash = $2, updated_at = $3
		WHERE id = $1
	`, userID.String(), newHash, time.Now().UTC())
	if err != nil {
		return oops.Code("USER_UPDATE_HASH_FAILED").
			With("operation", "update password_hash").
			With("user_id", userID.String()).
			Wrap(err)
	}
	if result.RowsAffected() == 0 {
		return oops.Code("USER_NOT_FOUND").
			With("user_id", userID.String()).
			Wrap(auth.ErrNotFound)
	}
	return nil
}

// scanCredential scans a single row into a StoredCredential.
// Callers are responsible for handling pgx.ErrNoRows.
func (r *CredentialRepository) scanCredential(row pgx.Row) (*auth.StoredCredential, error) {
	var (
		idStr        string
		username     string
		passwordHash string
	)

	err := row.Scan(&idStr, &username, &passwordHash)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err //nolint:wrapcheck // Callers wrap with context-specific info
		}
		return nil, oops.Code("USER_SCAN_FAILED").
			With("operation", "scan user").
			Wrap(err)
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("USER_INVALID_ID").
			With("operation", "parse user id").
			With("id", idStr).
			Wrap(err)
	}

	return &auth.StoredCredential{
		UserID:       id,
		Username:     username,
		PasswordHash: passwordHash,
	}, nil
}

// Compile-time interface check.
var _ auth.CredentialStore = (*CredentialRepository)(nil)
