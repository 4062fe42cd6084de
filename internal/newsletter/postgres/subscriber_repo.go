// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

// Package postgres implements the newsletter package's storage
// interfaces on PostgreSQL.
package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/samber/oops"

	"github.com/inkpress/inkpress/internal/newsletter"
)

// poolIface is the subset of pgxpool.Pool the repository uses. It is
// satisfied by both *pgxpool.Pool and pgxmock.PgxPoolIface.
type poolIface interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SubscriberRepository implements newsletter.SubscriberStore using
// PostgreSQL.
type SubscriberRepository struct {
	pool poolIface
}

// NewSubscriberRepository creates a new SubscriberRepository.
func NewSubscriberRepository(pool poolIface) *SubscriberRepository {
	return &SubscriberRepository{pool: pool}
}

// Insert stores a new subscriber. A unique violation on the email
// column maps to newsletter.ErrDuplicateSubscriber.
func (r *SubscriberRepository) Insert(ctx context.Context, sub *newsletter.StoredSubscriber) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO subscriptions (id, email, name, status, subscribed_at)
		VALUES ($1, $2, $3, $4, $5)
	`,
		sub.ID.String(),
		sub.Email,
		sub.Name,
		sub.Status,
		sub.SubscribedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return oops.Code("SUBSCRIBER_DUPLICATE").Wrap(newsletter.ErrDuplicateSubscriber)
		}
		return oops.Code("SUBSCRIBER_CREATE_FAILED").
			With("operation", "insert subscriber").
			Wrap(err)
	}
	return nil
}

// ListConfirmed retrieves every confirmed subscriber.
func (r *SubscriberRepository) ListConfirmed(ctx context.Context) ([]*newsletter.StoredSubscriber, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, email, name, status, subscribed_at
		FROM subscriptions
		WHERE status = $1
		ORDER BY subscribed_at
	`, newsletter.StatusConfirmed)
	if err != nil {
		return nil, oops.Code("SUBSCRIBER_LIST_FAILED").
			With("operation", "list confirmed subscribers").
			Wrap(err)
	}
	defer rows.Close()

	var subs []*newsletter.StoredSubscriber
	for rows.Next() {
		sub, err := r.scanSubscriberRow(rows)
		if err != nil {
			return nil, oops.Code("SUBSCRIBER_SCAN_FAILED").
				With("operation", "scan subscriber row").
				Wrap(err)
		}
		subs = append(subs, sub)
	}

	if err := rows.Err(); err != nil {
		return nil, oops.Code("SUBSCRIBER_ROWS_ERROR").
			With("operation", "iterate subscriber rows").
			Wrap(err)
	}

	return subs, nil
}

// scanSubscriberRow scans a row from a rows iterator into a
// StoredSubscriber.
func (r *SubscriberRepository) scanSubscriberRow(rows pgx.Rows) (*newsletter.StoredSubscriber, error) {
	var (
		idStr        string
		email        string
		name         string
		status       string
		subscribedAt time.Time
	)

	if err := rows.Scan(&idStr, &email, &name, &status, &subscribedAt); err != nil {
		return nil, err //nolint:wrapcheck // Caller wraps with context-specific info
	}

	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, oops.Code("SUBSCRIBER_INVALID_ID").
			With("operation", "parse subscriber id").
			With("id", idStr).
			Wrap(err)
	}

	return &newsletter.StoredSubscriber{
		ID:           id,
		Email:        email,
		Name:         name,
		Status:       status,
		SubscribedAt: subscribedAt,
	}, nil
}

// Compile-time interface check.
var _ newsletter.SubscriberStore = (*SubscriberRepository)(nil)
