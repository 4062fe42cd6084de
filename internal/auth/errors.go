// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import "errors"

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned when a username/password pair
	// fails validation. It deliberately does not distinguish an unknown
	// username from a wrong password.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAnonymous is returned by Guard.Require when the request
	// carries no authenticated identity.
	ErrAnonymous = errors.New("not authenticated")

	// ErrPasswordFieldsMismatch is returned by ChangePassword when the
	// two new-password fields differ.
	ErrPasswordFieldsMismatch = errors.New("password fields do not match")

	// ErrPasswordLength is returned by ChangePassword when the new
	// password is outside the allowed length range.
	ErrPasswordLength = errors.New("password length out of range")

	// ErrCurrentPasswordIncorrect is returned by ChangePassword when
	// the caller fails to prove knowledge of the current password.
	ErrCurrentPasswordIncorrect = errors.New("current password is incorrect")
)

// IsInvalidCredentials reports whether err represents a failed
// username/password validation.
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
