// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package newsletter

import (
	"context"
	"log/slog"

	"github.com/samber/oops"
)

// Issue is a newsletter edition to deliver.
type Issue struct {
	Title       string
	TextContent string
	HTMLContent string
}

// EmailSender delivers one email to one recipient.
type EmailSender interface {
	Send(ctx context.Context, recipient SubscriberEmail, subject, textBody, htmlBody string) error
}

// Publisher delivers issues to confirmed subscribers.
type Publisher struct {
	store  SubscriberStore
	sender EmailSender
	logger *slog.Logger
}

// NewPublisher creates a Publisher.
func NewPublisher(store SubscriberStore, sender EmailSender, logger *slog.Logger) *Publisher {
	return &Publisher{
		store:  store,
		sender: sender,
		logger: logger,
	}
}

// Publish sends the issue to every confirmed subscriber and returns
// the number of deliveries.
//
// A stored email that no longer parses is skipped with a warning:
// one bad row written under older validation rules must not block
// delivery to everyone else. A delivery failure, by contrast, aborts
// the run so the operator sees it.
func (p *Publisher) Publish(ctx context.Context, issue Issue) (int, error) {
	subscribers, err := p.store.ListConfirmed(ctx)
	if err != nil {
		return 0, oops.Code("NEWSLETTER_PUBLISH_FAILED").
			With("operation", "list confirmed subscribers").
			Wrap(err)
	}

	sent := 0
	for _, sub := range subscribers {
		email, err := ParseSubscriberEmail(sub.Email)
		if err != nil {
			p.logger.WarnContext(ctx,
				"skipping a confirmed subscriber, their stored contact details are invalid",
				"subscriber_id", sub.ID, "error", err)
			continue
		}

		if err := p.sender.Send(ctx, email, issue.Title, issue.TextContent, issue.HTMLContent); err != nil {
			return sent, oops.Code("NEWSLETTER_DELIVERY_FAILED").
				With("operation", "send issue").
				With("subscriber_id", sub.ID.String()).
				Wrap(err)
		}
		sent++
	}

	p.logger.InfoContext(ctx, "issue published", "title", issue.Title, "sent", sent)
	return sent, nil
}
