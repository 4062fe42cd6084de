// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/newsletter"
)

func testSubscriber() *newsletter.StoredSubscriber {
	return &newsletter.StoredSubscriber{
		ID:           uuid.New(),
		Email:        "ursula@domain.com",
		Name:         "Ursula",
		Status:       newsletter.StatusConfirmed,
		SubscribedAt: time.Now().UTC(),
	}
}

func TestSubscriberRepository_Insert(t *testing.T) {
	t.Run("inserts a subscriber", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		sub := testSubscriber()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WithArgs(sub.ID.String(), sub.Email, sub.Name, sub.Status, sub.SubscribedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		repo := NewSubscriberRepository(mock)
		require.NoError(t, repo.Insert(context.Background(), sub))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unique violation maps to ErrDuplicateSubscriber", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		sub := testSubscriber()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WithArgs(sub.ID.String(), sub.Email, sub.Name, sub.Status, sub.SubscribedAt).
			WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation})

		repo := NewSubscriberRepository(mock)
		err = repo.Insert(context.Background(), sub)
		assert.ErrorIs(t, err, newsletter.ErrDuplicateSubscriber)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("other database errors are wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		sub := testSubscriber()
		mock.ExpectExec(`INSERT INTO subscriptions`).
			WithArgs(sub.ID.String(), sub.Email, sub.Name, sub.Status, sub.SubscribedAt).
			WillReturnError(errors.New("connection refused"))

		repo := NewSubscriberRepository(mock)
		err = repo.Insert(context.Background(), sub)
		require.Error(t, err)
		assert.NotErrorIs(t, err, newsletter.ErrDuplicateSubscriber)
		assert.Contains(t, err.Error(), "connection refused")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestSubscriberRepository_ListConfirmed(t *testing.T) {
	t.Run("returns confirmed subscribers", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		id1, id2 := uuid.New(), uuid.New()
		now := time.Now().UTC()
		rows := pgxmock.NewRows([]string{"id", "email", "name", "status", "subscribed_at"}).
			AddRow(id1.String(), "one@domain.com", "One", "confirmed", now).
			AddRow(id2.String(), "two@domain.com", "Two", "confirmed", now)
		mock.ExpectQuery(`SELECT id, email, name, status, subscribed_at`).
			WithArgs(newsletter.StatusConfirmed).
			WillReturnRows(rows)

		repo := NewSubscriberRepository(mock)
		subs, err := repo.ListConfirmed(context.Background())
		require.NoError(t, err)
		require.Len(t, subs, 2)
		assert.Equal(t, id1, subs[0].ID)
		assert.Equal(t, "two@domain.com", subs[1].Email)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty result is not an error", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, email, name, status, subscribed_at`).
			WithArgs(newsletter.StatusConfirmed).
			WillReturnRows(pgxmock.NewRows([]string{"id", "email", "name", "status", "subscribed_at"}))

		repo := NewSubscriberRepository(mock)
		subs, err := repo.ListConfirmed(context.Background())
		require.NoError(t, err)
		assert.Empty(t, subs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error is wrapped", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		mock.ExpectQuery(`SELECT id, email, name, status, subscribed_at`).
			WithArgs(newsletter.StatusConfirmed).
			WillReturnError(errors.New("timeout"))

		repo := NewSubscriberRepository(mock)
		_, err = repo.ListConfirmed(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unparseable id fails the scan", func(t *testing.T) {
		mock, err := pgxmock.NewPool()
		require.NoError(t, err)
		defer mock.Close()

		rows := pgxmock.NewRows([]string{"id", "email", "name", "status", "subscribed_at"}).
			AddRow("not-a-uuid", "one@domain.com", "One", "confirmed", time.Now().UTC())
		mock.ExpectQuery(`SELECT id, email, name, status, subscribed_at`).
			WithArgs(newsletter.StatusConfirmed).
			WillReturnRows(rows)

		repo := NewSubscriberRepository(mock)
		_, err = repo.ListConfirmed(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid UUID")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
