// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package auth

import (
	"encoding/base64"
	"strings"
	"unicode/utf8"

	"github.com/samber/oops"
)

// ParseBasicAuth extracts credentials from an Authorization header
// value using the Basic scheme. The password may contain colons; only
// the first colon separates username from password.
func ParseBasicAuth(header string) (Credentials, error) {
	const prefix = "Basic "

	if !strings.HasPrefix(header, prefix) {
		return Credentials{}, oops.Code("AUTH_BASIC_SCHEME").
			Errorf("authorization scheme was not 'Basic'")
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return Credentials{}, oops.Code("AUTH_BASIC_ENCODING").
			Wrapf(err, "failed to base64-decode basic credentials")
	}
	if !utf8.Valid(decoded) {
		return Credentials{}, oops.Code("AUTH_BASIC_ENCODING").
			Errorf("decoded credentials were not valid UTF-8")
	}

	username, password, ok := strings.Cut(string(decoded), ":")
	if !ok {
		return Credentials{}, oops.Code("AUTH_BASIC_FORMAT").
			Errorf("a username and password must be provided in basic auth")
	}
	if username == "" {
		return Credentials{}, oops.Code("AUTH_BASIC_FORMAT").
			Errorf("a username must be provided in basic auth")
	}

	return Credentials{
		Username: username,
		Password: NewSecret(password),
	}, nil
}
