// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import "log/slog"

// redacted replaces secret material in any textual output.
const redacted = "[REDACTED]"

// Secret wraps a sensitive string so it cannot leak through logging,
// formatting, or error messages. The wrapped value is only reachable
// through an explicit Expose call.
type Secret struct {
	value string
}

// NewSecret wraps v as a Secret.
func NewSecret(v string) Secret {
	return Secret{value: v}
}

// Expose returns the wrapped value. Callers must not store or log the
// result.
func (s Secret) Expose() string {
	return s.value
}

// Equal compares two secrets without exposing either.
func (s Secret) Equal(other Secret) bool {
	return s.value == other.value
}

// String implements fmt.Stringer and always redacts.
func (s Secret) String() string {
	return redacted
}

// GoString implements fmt.GoStringer so %#v does not leak the value.
func (s Secret) GoString() string {
	return "auth.Secret(" + redacted + ")"
}

// LogValue implements slog.LogValuer so structured logs never carry
// the wrapped value.
func (s Secret) LogValue() slog.Value {
	return slog.StringValue(redacted)
}
