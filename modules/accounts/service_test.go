package accounts_test

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/modules/accounts"
	"github.com/dmitrymomot/authzkit/pkg/authtoken"
)

func newService(t *testing.T, opts ...accounts.ServiceOption) *accounts.Service {
	t.Helper()

	tokens, err := authtoken.New([]byte("test-signing-key-0123456789abcdef"))
	require.NoError(t, err)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return accounts.NewService(accounts.NewStorage(nil), nil, tokens, log, opts...)
}

func post(h http.Handler, target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	h := newService(t).Handle()

	t.Run("malformed body", func(t *testing.T) {
		t.Parallel()

		rec := post(h, "/register", `{nope`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("invalid email", func(t *testing.T) {
		t.Parallel()

		rec := post(h, "/register", `{"email":"not-an-email","password":"longenough"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "client_error")
	})

	t.Run("short password", func(t *testing.T) {
		t.Parallel()

		rec := post(h, "/register", `{"email":"a@example.com","password":"short"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestSuperuserServiceHasNoRegistration(t *testing.T) {
	t.Parallel()

	h := newService(t, accounts.AsSuperuser()).Handle()

	rec := post(h, "/register", `{"email":"a@example.com","password":"longenough"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLoginMalformedBody(t *testing.T) {
	t.Parallel()

	h := newService(t).Handle()

	rec := post(h, "/login", `{nope`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
