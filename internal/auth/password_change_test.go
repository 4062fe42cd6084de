// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/auth/mocks"
)

func TestPasswordService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	hasher := auth.NewArgon2idHasher()
	pool := auth.NewHashWorkerPool(2, 8)
	t.Cleanup(pool.Close)

	userID := uuid.New()
	currentPassword := "the current password"
	currentHash, err := hasher.Hash(auth.NewSecret(currentPassword))
	require.NoError(t, err)

	stored := &auth.StoredCredential{
		UserID:       userID,
		Username:     "margot",
		PasswordHash: currentHash,
	}

	newService := func(t *testing.T, store *mocks.MockCredentialStore, sessions auth.SessionStore) *auth.PasswordService {
		validator := auth.NewCredentialValidator(store, hasher, pool, discardLogger())
		return auth.NewPasswordService(store, sessions, validator, hasher, pool, discardLogger())
	}

	t.Run("mismatched new-password fields", func(t *testing.T) {
		store := mocks.NewMockCredentialStore(t)
		svc := newService(t, store, auth.NewMemorySessionStore())

		err := svc.ChangePassword(ctx, userID, "tok",
			auth.NewSecret(currentPassword),
			auth.NewSecret("a long enough password"),
			auth.NewSecret("a different password!!"),
		)
		assert.ErrorIs(t, err, auth.ErrPasswordFieldsMismatch)
	})

	t.Run("new password too short", func(t *testing.T) {
		store := mocks.NewMockCredentialStore(t)
		svc := newService(t, store, auth.NewMemorySessionStore())

		short := auth.NewSecret("elevenchars") // 11 runes
		err := svc.ChangePassword(ctx, userID, "tok",
			auth.NewSecret(currentPassword), short, short)
		assert.ErrorIs(t, err, auth.ErrPasswordLength)
	})

	t.Run("new password too long", func(t *testing.T) {
		store := mocks.NewMockCredentialStore(t)
		svc := newService(t, store, auth.NewMemorySessionStore())

		long := auth.NewSecret(strings.Repeat("x", 129))
		err := svc.ChangePassword(ctx, userID, "tok",
			auth.NewSecret(currentPassword), long, long)
		assert.ErrorIs(t, err, auth.ErrPasswordLength)
	})

	t.Run("length is counted in runes, not bytes", func(t *testing.T) {
		store := mocks.NewMockCredentialStore(t)
		store.On("Lookup", mock.Anything, "margot").Return(stored, nil)
		store.On("GetUsername", mock.Anything, userID).Return("margot", nil)
		store.On("UpdateHash", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)

		svc := newService(t, store, auth.NewMemorySessionStore())

		// 12 runes, well over 12 bytes.
		twelveRunes := auth.NewSecret(strings.Repeat("ü", 12))
		err := svc.ChangePassword(ctx, userID, "tok",
			auth.NewSecret(currentPassword), twelveRunes, twelveRunes)
		assert.NoError(t, err)
	})

	t.Run("wrong current password", func(t *testing.T) {
		store := mocks.NewMockCredentialStore(t)
		store.On("Lookup", mock.Anything, "margot").Return(stored, nil)
		store.On("GetUsername", mock.Anything, userID).Return("margot", nil)

		svc := newService(t, store, auth.NewMemorySessionStore())

		next := auth.NewSecret("a perfectly fine password")
		err := svc.ChangePassword(ctx, userID, "tok",
			auth.NewSecret("not the current password"), next, next)
		assert.ErrorIs(t, err, auth.ErrCurrentPasswordIncorrect)
	})

	t.Run("success stores a verifiable hash and keeps only this session", func(t *testing.T) {
		var updatedHash string
		store := mocks.NewMockCredentialStore(t)
		store.On("Lookup", mock.Anything, "margot").Return(stored, nil)
		store.On("GetUsername", mock.Anything, userID).Return("margot", nil)
		store.On("UpdateHash", mock.Anything, userID, mock.AnythingOfType("string")).
			Run(func(args mock.Arguments) { updatedHash = args.String(2) }).
			Return(nil)

		sessions := auth.NewMemorySessionStore()
		now := time.Now()
		insert := func(hash string) {
			require.NoError(t, sessions.Insert(ctx, &auth.Session{
				TokenHash: hash,
				UserID:    userID,
				CreatedAt: now,
				ExpiresAt: now.Add(time.Hour),
			}))
		}
		currentToken := "current-device-token"
		insert(auth.HashSessionToken(currentToken))
		insert(auth.HashSessionToken("other-device-token"))

		svc := newService(t, store, sessions)

		next := auth.NewSecret("a perfectly fine password")
		err := svc.ChangePassword(ctx, userID, currentToken,
			auth.NewSecret(currentPassword), next, next)
		require.NoError(t, err)

		ok, err := hasher.Verify(next, updatedHash)
		require.NoError(t, err)
		assert.True(t, ok, "stored hash must verify against the new password")

		_, err = sessions.GetByTokenHash(ctx, auth.HashSessionToken(currentToken))
		assert.NoError(t, err, "the changing session survives")
		_, err = sessions.GetByTokenHash(ctx, auth.HashSessionToken("other-device-token"))
		assert.ErrorIs(t, err, auth.ErrNotFound, "other sessions are revoked")
	})
}
