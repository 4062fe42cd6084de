// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"net/http"
	"strings"
)

// flashCookieName carries one-time notices across a redirect.
const flashCookieName = "_flash"

// Flasher signs and verifies flash cookies. Signing stops a client
// from forging notices that the UI renders as if the server wrote
// them.
type Flasher struct {
	key []byte
}

// NewFlasher creates a Flasher with the given HMAC key.
func NewFlasher(key []byte) *Flasher {
	return &Flasher{key: key}
}

func (f *Flasher) sign(msg string) string {
	mac := hmac.New(sha256.New, f.key)
	mac.Write([]byte(msg))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}

// Set attaches a flash message to the response. It survives exactly
// one redirect: the next Pop clears it.
func (f *Flasher) Set(w http.ResponseWriter, msg string) {
	value := base64.RawURLEncoding.EncodeToString([]byte(msg)) + "." + f.sign(msg)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Pop reads and clears the flash message. A missing, malformed, or
// badly signed cookie yields "".
func (f *Flasher) Pop(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil {
		return ""
	}

	// Clear regardless of validity.
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	encoded, sig, ok := strings.Cut(cookie.Value, ".")
	if !ok {
		return ""
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return ""
	}
	msg := string(raw)
	if !hmac.Equal([]byte(f.sign(msg)), []byte(sig)) {
		return ""
	}
	return msg
}
