// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package newsletter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"
)

// SubscriberStore persists subscriber records.
type SubscriberStore interface {
	// Insert stores a new subscriber. Returns ErrDuplicateSubscriber
	// when the email is already present.
	Insert(ctx context.Context, sub *StoredSubscriber) error

	// ListConfirmed retrieves every confirmed subscriber.
	ListConfirmed(ctx context.Context) ([]*StoredSubscriber, error)
}

// SubscriptionService records new subscribers.
type SubscriptionService struct {
	store  SubscriberStore
	logger *slog.Logger
	now    func() time.Time
}

// NewSubscriptionService creates a SubscriptionService.
func NewSubscriptionService(store SubscriberStore, logger *slog.Logger) *SubscriptionService {
	return &SubscriptionService{
		store:  store,
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe validates the name and email and stores a confirmed
// subscriber. Validation failures return ErrInvalidName or
// ErrInvalidEmail; an already-subscribed email returns
// ErrDuplicateSubscriber.
func (s *SubscriptionService) Subscribe(ctx context.Context, rawName, rawEmail string) (*StoredSubscriber, error) {
	name, err := ParseSubscriberName(rawName)
	if err != nil {
		return nil, err
	}
	email, err := ParseSubscriberEmail(rawEmail)
	if err != nil {
		return nil, err
	}

	sub := &StoredSubscriber{
		ID:           uuid.New(),
		Email:        email.String(),
		Name:         name.String(),
		Status:       StatusConfirmed,
		SubscribedAt: s.now().UTC(),
	}

	if err := s.store.Insert(ctx, sub); err != nil {
		if errors.Is(err, ErrDuplicateSubscriber) {
			return nil, ErrDuplicateSubscriber
		}
		return nil, oops.Code("NEWSLETTER_SUBSCRIBE_FAILED").
			With("operation", "insert subscriber").
			Wrap(err)
	}

	s.logger.InfoContext(ctx, "new subscriber recorded", "subscriber_id", sub.ID)
	return sub, nil
}
