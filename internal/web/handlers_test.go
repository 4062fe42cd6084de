// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Inkpress Contributors

package web_test

import (
	"context"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/inkpress/inkpress/internal/auth"
	"github.com/inkpress/inkpress/internal/auth/mocks"
	"github.com/inkpress/inkpress/internal/newsletter"
	"github.com/inkpress/inkpress/internal/observability"
	"github.com/inkpress/inkpress/internal/web"
)

type fakeSubscriberStore struct {
	subs    []*newsletter.StoredSubscriber
	byEmail map[string]bool
}

func (f *fakeSubscriberStore) Insert(_ context.Context, sub *newsletter.StoredSubscriber) error {
	if f.byEmail[sub.Email] {
		return newsletter.ErrDuplicateSubscriber
	}
	f.byEmail[sub.Email] = true
	f.subs = append(f.subs, sub)
	return nil
}

func (f *fakeSubscriberStore) ListConfirmed(_ context.Context) ([]*newsletter.StoredSubscriber, error) {
	return f.subs, nil
}

type fakeSender struct {
	recipients []string
}

func (f *fakeSender) Send(_ context.Context, recipient newsletter.SubscriberEmail, _, _, _ string) error {
	f.recipients = append(f.recipients, recipient.String())
	return nil
}

type testEnv struct {
	server *web.Server
	store  *mocks.MockCredentialStore
	subs   *fakeSubscriberStore
	sender *fakeSender
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := slog.New(slog.DiscardHandler)

	hasher := auth.NewArgon2idHasher()
	pool := auth.NewHashWorkerPool(2, 8)
	t.Cleanup(pool.Close)

	store := mocks.NewMockCredentialStore(t)
	sessions := auth.NewMemorySessionStore()
	validator := auth.NewCredentialValidator(store, hasher, pool, logger)
	guard := auth.NewGuard(sessions, time.Hour, logger)
	passwords := auth.NewPasswordService(store, sessions, validator, hasher, pool, logger)

	subs := &fakeSubscriberStore{byEmail: make(map[string]bool)}
	sender := &fakeSender{}

	server := web.NewServer(
		web.Config{Addr: "127.0.0.1:0", SessionTTL: time.Hour},
		web.Deps{
			Validator:     validator,
			Guard:         guard,
			Passwords:     passwords,
			Users:         store,
			Subscriptions: newsletter.NewSubscriptionService(subs, logger),
			Publisher:     newsletter.NewPublisher(subs, sender, logger),
			Flash:         web.NewFlasher([]byte("test-key")),
			Metrics:       observability.NewMetrics(prometheus.NewRegistry()),
			Logger:        logger,
		},
	)

	return &testEnv{server: server, store: store, subs: subs, sender: sender}
}

// seedUser registers Lookup expectations for a user with the given
// password and returns its id.
func (e *testEnv) seedUser(t *testing.T, username, password string) uuid.UUID {
	t.Helper()
	hasher := auth.NewArgon2idHasher()
	hash, err := hasher.Hash(auth.NewSecret(password))
	require.NoError(t, err)

	userID := uuid.New()
	e.store.On("Lookup", mock.Anything, username).Return(&auth.StoredCredential{
		UserID:       userID,
		Username:     username,
		PasswordHash: hash,
	}, nil).Maybe()
	return userID
}

func (e *testEnv) do(req *http.Request, cookies []*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.server.ServeHTTP(rec, req)
	return rec
}

func formRequest(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// login performs a full login and returns the cookies of the new
// session.
func (e *testEnv) login(t *testing.T, username, password string) []*http.Cookie {
	t.Helper()
	rec := e.do(formRequest("/login", url.Values{
		"username": {username},
		"password": {password},
	}), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	require.Equal(t, "/admin/dashboard", rec.Result().Header.Get("Location"))
	return rec.Result().Cookies()
}

func body(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	b, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(b)
}

func TestLogin(t *testing.T) {
	t.Run("valid credentials land on the dashboard", func(t *testing.T) {
		env := newTestEnv(t)
		userID := env.seedUser(t, "margot", "a fine password here")
		env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil)

		cookies := env.login(t, "margot", "a fine password here")

		rec := env.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), cookies)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, body(t, rec), "Welcome margot")
	})

	t.Run("bad password bounces back with a notice", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "margot", "a fine password here")

		rec := env.do(formRequest("/login", url.Values{
			"username": {"margot"},
			"password": {"wrong"},
		}), nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Result().Header.Get("Location"))

		form := env.do(httptest.NewRequest(http.MethodGet, "/login", nil), rec.Result().Cookies())
		require.Equal(t, http.StatusOK, form.Code)
		assert.Contains(t, body(t, form), "Authentication failed")
	})

	t.Run("unknown username gets the same notice", func(t *testing.T) {
		env := newTestEnv(t)
		env.store.On("Lookup", mock.Anything, "nobody").Return(nil, auth.ErrNotFound)

		rec := env.do(formRequest("/login", url.Values{
			"username": {"nobody"},
			"password": {"whatever"},
		}), nil)
		require.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Result().Header.Get("Location"))
	})

	t.Run("login rotates the session token", func(t *testing.T) {
		env := newTestEnv(t)
		userID := env.seedUser(t, "margot", "a fine password here")
		env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil)

		first := env.login(t, "margot", "a fine password here")
		second := env.login(t, "margot", "a fine password here")
		require.NotEqual(t, first[0].Value, second[0].Value)
	})
}

func TestAdminRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method, path string
	}{
		{http.MethodGet, "/admin/dashboard"},
		{http.MethodGet, "/admin/password"},
		{http.MethodPost, "/admin/password"},
		{http.MethodPost, "/admin/logout"},
	} {
		rec := env.do(httptest.NewRequest(tc.method, tc.path, nil), nil)
		assert.Equal(t, http.StatusSeeOther, rec.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "/login", rec.Result().Header.Get("Location"), "%s %s", tc.method, tc.path)
	}
}

func TestLogout(t *testing.T) {
	env := newTestEnv(t)
	userID := env.seedUser(t, "margot", "a fine password here")
	env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil).Maybe()

	cookies := env.login(t, "margot", "a fine password here")

	rec := env.do(formRequest("/admin/logout", url.Values{}), cookies)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Result().Header.Get("Location"))

	form := env.do(httptest.NewRequest(http.MethodGet, "/login", nil), rec.Result().Cookies())
	assert.Contains(t, body(t, form), "You have successfully logged out.")

	// The old session no longer grants access.
	after := env.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), cookies)
	assert.Equal(t, http.StatusSeeOther, after.Code)
	assert.Equal(t, "/login", after.Result().Header.Get("Location"))
}

func TestPasswordChange(t *testing.T) {
	const current = "the current password"

	followFlash := func(t *testing.T, env *testEnv, rec *httptest.ResponseRecorder, session []*http.Cookie) string {
		t.Helper()
		require.Equal(t, http.StatusSeeOther, rec.Code)
		require.Equal(t, "/admin/password", rec.Result().Header.Get("Location"))
		cookies := append(rec.Result().Cookies(), session...)
		form := env.do(httptest.NewRequest(http.MethodGet, "/admin/password", nil), cookies)
		require.Equal(t, http.StatusOK, form.Code)
		return body(t, form)
	}

	t.Run("mismatched fields", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "margot", current)
		session := env.login(t, "margot", current)

		rec := env.do(formRequest("/admin/password", url.Values{
			"current_password":   {current},
			"new_password":       {"one new password!"},
			"new_password_check": {"another password!!"},
		}), session)
		assert.Contains(t, followFlash(t, env, rec, session), "Password fields must match.")
	})

	t.Run("too short", func(t *testing.T) {
		env := newTestEnv(t)
		userID := env.seedUser(t, "margot", current)
		env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil).Maybe()
		session := env.login(t, "margot", current)

		rec := env.do(formRequest("/admin/password", url.Values{
			"current_password":   {current},
			"new_password":       {"short"},
			"new_password_check": {"short"},
		}), session)
		assert.Contains(t, followFlash(t, env, rec, session),
			"New password must be between 12 and 128 characters.")
	})

	t.Run("wrong current password", func(t *testing.T) {
		env := newTestEnv(t)
		userID := env.seedUser(t, "margot", current)
		env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil)
		session := env.login(t, "margot", current)

		rec := env.do(formRequest("/admin/password", url.Values{
			"current_password":   {"not the current one"},
			"new_password":       {"a fine new password"},
			"new_password_check": {"a fine new password"},
		}), session)
		assert.Contains(t, followFlash(t, env, rec, session), "Current password is incorrect.")
	})

	t.Run("success", func(t *testing.T) {
		env := newTestEnv(t)
		userID := env.seedUser(t, "margot", current)
		env.store.On("GetUsername", mock.Anything, userID).Return("margot", nil)
		env.store.On("UpdateHash", mock.Anything, userID, mock.AnythingOfType("string")).Return(nil)
		session := env.login(t, "margot", current)

		rec := env.do(formRequest("/admin/password", url.Values{
			"current_password":   {current},
			"new_password":       {"a fine new password"},
			"new_password_check": {"a fine new password"},
		}), session)
		assert.Contains(t, followFlash(t, env, rec, session), "Your password has been changed.")

		// The session that made the change still works.
		dash := env.do(httptest.NewRequest(http.MethodGet, "/admin/dashboard", nil), session)
		assert.Equal(t, http.StatusOK, dash.Code)
	})
}

func basicAuthHeader(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func TestPublish(t *testing.T) {
	const payload = `{"title":"Issue #1","content":{"text":"plain","html":"<p>html</p>"}}`

	publishReq := func(authHeader string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/newsletters", strings.NewReader(payload))
		req.Header.Set("Content-Type", "application/json")
		if authHeader != "" {
			req.Header.Set("Authorization", authHeader)
		}
		return req
	}

	t.Run("missing credentials are challenged", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(publishReq(""), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="publish"`, rec.Result().Header.Get("WWW-Authenticate"))
	})

	t.Run("wrong credentials are challenged", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "margot", "a fine password here")

		rec := env.do(publishReq(basicAuthHeader("margot", "wrong")), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, `Basic realm="publish"`, rec.Result().Header.Get("WWW-Authenticate"))
	})

	t.Run("valid credentials deliver to subscribers", func(t *testing.T) {
		env := newTestEnv(t)
		env.seedUser(t, "margot", "a fine password here")
		require.NoError(t, env.subs.Insert(context.Background(), &newsletter.StoredSubscriber{
			ID:     uuid.New(),
			Email:  "ursula@domain.com",
			Name:   "Ursula",
			Status: newsletter.StatusConfirmed,
		}))

		rec := env.do(publishReq(basicAuthHeader("margot", "a fine password here")), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"ursula@domain.com"}, env.sender.recipients)
	})
}

func TestSubscribe(t *testing.T) {
	t.Run("valid form subscribes", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(formRequest("/subscriptions", url.Values{
			"name":  {"Ursula"},
			"email": {"ursula@domain.com"},
		}), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, env.subs.subs, 1)
		assert.Equal(t, "ursula@domain.com", env.subs.subs[0].Email)
	})

	t.Run("invalid email is rejected", func(t *testing.T) {
		env := newTestEnv(t)

		rec := env.do(formRequest("/subscriptions", url.Values{
			"name":  {"Ursula"},
			"email": {"not-an-email"},
		}), nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		env := newTestEnv(t)

		form := url.Values{"name": {"Ursula"}, "email": {"ursula@domain.com"}}
		require.Equal(t, http.StatusOK, env.do(formRequest("/subscriptions", form), nil).Code)
		assert.Equal(t, http.StatusConflict, env.do(formRequest("/subscriptions", form), nil).Code)
	})
}
