// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"context"
	"errors"
	"log/slog"

	"github.com/samber/oops"
)

// fallbackDummyHash is a precomputed argon2id record used when hashing
// a fresh dummy at startup fails. Verification against it always
// mismatches, which is all the equalizer needs.
const fallbackDummyHash = "$argon2id$v=19$m=65536,t=1,p=4$" +
	"AAAAAAAAAAAAAAAAAAAAAA$AAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"

// CredentialValidator checks username/password pairs against the
// credential store. Every attempt performs exactly one argon2id
// verification so response timing does not reveal whether the
// username exists.
type CredentialValidator struct {
	store  CredentialStore
	hasher PasswordHasher
	pool   *HashWorkerPool
	logger *slog.Logger

	dummyHash string
}

// NewCredentialValidator creates a validator. The dummy hash used for
// unknown usernames is computed once here so the per-request cost is
// identical to a real verification.
func NewCredentialValidator(store CredentialStore, hasher PasswordHasher, pool *HashWorkerPool, logger *slog.Logger) *CredentialValidator {
	dummy, err := hasher.Hash(NewSecret("dummy password to equalize timing"))
	if err != nil {
		logger.Warn("failed to precompute dummy hash, using fallback", "error", err)
		dummy = fallbackDummyHash
	}

	return &CredentialValidator{
		store:     store,
		hasher:    hasher,
		pool:      pool,
		logger:    logger,
		dummyHash: dummy,
	}
}

// Validate verifies the credentials and returns the verified identity.
//
// Unknown usernames and wrong passwords both return
// ErrInvalidCredentials, and both cost one full argon2id verification.
// Any other error is an infrastructure failure (storage, dispatch) and
// must not be shown to the caller as a credential problem.
func (v *CredentialValidator) Validate(ctx context.Context, creds Credentials) (*VerifiedIdentity, error) {
	found := false
	expectedHash := v.dummyHash
	var identity VerifiedIdentity

	stored, err := v.store.Lookup(ctx, creds.Username)
	switch {
	case err == nil:
		found = true
		expectedHash = stored.PasswordHash
		identity = VerifiedIdentity{UserID: stored.UserID}
	case errors.Is(err, ErrNotFound):
		// Keep the dummy hash so the verification below still runs.
	default:
		return nil, oops.Code("AUTH_STORE_FAILED").
			With("operation", "lookup credentials").
			Wrap(err)
	}

	var ok bool
	var verifyErr error
	err = v.pool.Do(ctx, func() error {
		ok, verifyErr = v.hasher.Verify(creds.Password, expectedHash)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if verifyErr != nil {
		// A hash record we cannot parse is indistinguishable from a
		// wrong password to the caller. The cause is logged for the
		// operator: it means a corrupt row, not a user mistake.
		v.logger.ErrorContext(ctx, "stored password hash is unusable",
			"username", creds.Username, "error", verifyErr)
		ok = false
	}

	// The found check happens only after the hash verification so the
	// two failure modes take the same time.
	if !found || !ok {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}

	return &identity, nil
}
