// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// Password length bounds, counted in Unicode code points.
const (
	MinPasswordLength = 12
	MaxPasswordLength = 128
)

// PasswordService changes a user's password after re-proving the
// current one.
type PasswordService struct {
	store     CredentialStore
	sessions  SessionStore
	validator *CredentialValidator
	hasher    PasswordHasher
	pool      *HashWorkerPool
	logger    *slog.Logger
}

// NewPasswordService creates a PasswordService.
func NewPasswordService(
	store CredentialStore,
	sessions SessionStore,
	validator *CredentialValidator,
	hasher PasswordHasher,
	pool *HashWorkerPool,
	logger *slog.Logger,
) *PasswordService {
	return &PasswordService{
		store:     store,
		sessions:  sessions,
		validator: validator,
		hasher:    hasher,
		pool:      pool,
		logger:    logger,
	}
}

// ChangePassword replaces the user's password. The caller must supply
// the current password, the new password twice, and the token of the
// session performing the change, which is the only session that
// survives.
//
// Checks run in order: field match, length bounds, current password.
// Each failure maps to its own sentinel so the caller can show the
// right message without parsing error text.
func (s *PasswordService) ChangePassword(
	ctx context.Context,
	userID uuid.UUID,
	currentSessionToken string,
	current, newPassword, confirm Secret,
) error {
	if !newPassword.Equal(confirm) {
		return ErrPasswordFieldsMismatch
	}

	length := utf8.RuneCountInString(newPassword.Expose())
	if length < MinPasswordLength || length > MaxPasswordLength {
		return ErrPasswordLength
	}

	username, err := s.store.GetUsername(ctx, userID)
	if err != nil {
		return oops.Code("AUTH_STORE_FAILED").
			With("operation", "resolve username").
			Wrap(err)
	}

	_, err = s.validator.Validate(ctx, Credentials{Username: username, Password: current})
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			return ErrCurrentPasswordIncorrect
		}
		return err
	}

	var newHash string
	if err := s.pool.Do(ctx, func() error {
		var hashErr error
		newHash, hashErr = s.hasher.Hash(newPassword)
		return hashErr
	}); err != nil {
		return oops.Code("AUTH_HASH_FAILED").Wrap(err)
	}

	if err := s.store.UpdateHash(ctx, userID, newHash); err != nil {
		return oops.Code("AUTH_STORE_FAILED").
			With("operation", "update password hash").
			Wrap(err)
	}

	// Sign out every other device. The session making the change keeps
	// working so the user sees the confirmation.
	keep := HashSessionToken(currentSessionToken)
	if err := s.sessions.DeleteOthers(ctx, userID, keep); err != nil {
		s.logger.WarnContext(ctx, "failed to revoke other sessions after password change",
			"user_id", userID, "error", err)
	}

	s.logger.InfoContext(ctx, "password changed", "user_id", userID)
	return nil
}
