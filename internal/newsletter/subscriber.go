// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package newsletter

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/rivo/uniseg"
)

// MaxNameGraphemes bounds a subscriber name, counted in grapheme
// clusters so combined emoji and accented characters count as one.
const MaxNameGraphemes = 256

var (
	// ErrInvalidName is returned when a subscriber name fails
	// validation.
	ErrInvalidName = errors.New("invalid subscriber name")

	// ErrInvalidEmail is returned when a subscriber email fails
	// validation.
	ErrInvalidEmail = errors.New("invalid subscriber email")

	// ErrDuplicateSubscriber is returned when the email is already
	// subscribed.
	ErrDuplicateSubscriber = errors.New("email is already subscribed")
)

// forbiddenNameChars would allow injection into delivery headers or
// templates if let through.
const forbiddenNameChars = `/()"<>\{}`

var emailValidate = validator.New(validator.WithRequiredStructEnabled())

// SubscriberName is a validated display name.
type SubscriberName struct {
	value string
}

// ParseSubscriberName validates a raw name. It must be non-blank, at
// most MaxNameGraphemes long, and free of characters with special
// meaning in markup.
func ParseSubscriberName(raw string) (SubscriberName, error) {
	if strings.TrimSpace(raw) == "" {
		return SubscriberName{}, ErrInvalidName
	}
	if uniseg.GraphemeClusterCount(raw) > MaxNameGraphemes {
		return SubscriberName{}, ErrInvalidName
	}
	if strings.ContainsAny(raw, forbiddenNameChars) {
		return SubscriberName{}, ErrInvalidName
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string { return n.value }

// SubscriberEmail is a validated email address.
type SubscriberEmail struct {
	value string
}

// ParseSubscriberEmail validates a raw email address.
func ParseSubscriberEmail(raw string) (SubscriberEmail, error) {
	if err := emailValidate.Var(raw, "required,email"); err != nil {
		return SubscriberEmail{}, ErrInvalidEmail
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string { return e.value }

// StoredSubscriber is a subscriber row as persisted. Name and email
// are raw strings: they were valid when written but are re-parsed
// before any use that depends on validity.
type StoredSubscriber struct {
	ID           uuid.UUID
	Email        string
	Name         string
	Status       string
	SubscribedAt time.Time
}

// Subscriber statuses.
const (
	StatusConfirmed = "confirmed"
)
