package authtoken_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/authzkit/pkg/authtoken"
)

func newService(t *testing.T, opts ...authtoken.Option) *authtoken.Service {
	t.Helper()
	svc, err := authtoken.New([]byte("0123456789abcdef0123456789abcdef"), opts...)
	require.NoError(t, err)
	return svc
}

func sampleClaims() authtoken.Claims {
	return authtoken.Claims{
		Subject:     "user@acme.test",
		Permissions: []string{"read_role", "create_role"},
		Principal: authtoken.Principal{
			AccountID: uuid.New(),
			Email:     "user@acme.test",
			FullName:  "Test User",
		},
		TenantID: uuid.New(),
	}
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("empty signing key", func(t *testing.T) {
		t.Parallel()
		_, err := authtoken.New(nil)
		assert.ErrorIs(t, err, authtoken.ErrMissingSigningKey)
	})
}

func TestIssueVerify(t *testing.T) {
	t.Parallel()

	t.Run("round trip preserves claims", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		want := sampleClaims()

		raw, err := svc.Issue(want)
		require.NoError(t, err)
		require.Len(t, strings.Split(raw, "."), 3)

		got, err := svc.Verify(raw)
		require.NoError(t, err)
		assert.Equal(t, want.Subject, got.Subject)
		assert.Equal(t, want.Permissions, got.Permissions)
		assert.Equal(t, want.Principal, got.Principal)
		assert.Equal(t, want.TenantID, got.TenantID)
		assert.False(t, got.Superuser)
		assert.Greater(t, got.ExpiresAt, got.IssuedAt)
	})

	t.Run("issue requires subject", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		_, err := svc.Issue(authtoken.Claims{})
		assert.ErrorIs(t, err, authtoken.ErrMissingSubject)
	})

	t.Run("issue overrides caller-provided expiry", func(t *testing.T) {
		t.Parallel()

		svc := newService(t, authtoken.WithValidity(time.Hour))
		claims := sampleClaims()
		claims.ExpiresAt = time.Now().Add(100 * time.Hour).Unix()

		raw, err := svc.Issue(claims)
		require.NoError(t, err)

		got, err := svc.Verify(raw)
		require.NoError(t, err)
		assert.LessOrEqual(t, got.ExpiresAt, time.Now().Add(time.Hour+time.Minute).Unix())
	})

	t.Run("expired token is rejected", func(t *testing.T) {
		t.Parallel()

		past := time.Now().Add(-24 * time.Hour)
		issuer := newService(t, authtoken.WithClock(func() time.Time { return past }))

		raw, err := issuer.Issue(sampleClaims())
		require.NoError(t, err)

		verifier := newService(t)
		_, err = verifier.Verify(raw)
		assert.ErrorIs(t, err, authtoken.ErrExpiredToken)
	})

	t.Run("tampered payload fails signature check", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		raw, err := svc.Issue(sampleClaims())
		require.NoError(t, err)

		parts := strings.Split(raw, ".")
		parts[1] = parts[1][:len(parts[1])-2] + "xx"

		_, err = svc.Verify(strings.Join(parts, "."))
		assert.ErrorIs(t, err, authtoken.ErrInvalidSignature)
	})

	t.Run("different key fails verification", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		raw, err := svc.Issue(sampleClaims())
		require.NoError(t, err)

		other, err := authtoken.New([]byte("another-signing-key-of-32-bytes!"))
		require.NoError(t, err)

		_, err = other.Verify(raw)
		assert.ErrorIs(t, err, authtoken.ErrInvalidSignature)
	})

	t.Run("malformed token", func(t *testing.T) {
		t.Parallel()

		svc := newService(t)
		_, err := svc.Verify("not.a-token")
		assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
	})
}

func TestHasPermission(t *testing.T) {
	t.Parallel()

	claims := sampleClaims()
	assert.True(t, claims.HasPermission("read_role"))
	assert.False(t, claims.HasPermission("delete_role"))
}

func TestFromRequest(t *testing.T) {
	t.Parallel()

	t.Run("extracts bearer token", func(t *testing.T) {
		t.Parallel()

		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer abc.def.ghi")

		token, err := authtoken.FromRequest(req)
		require.NoError(t, err)
		assert.Equal(t, "abc.def.ghi", token)
	})

	t.Run("missing header", func(t *testing.T) {
		t.Parallel()

		req, _ := http.NewRequest("GET", "/", nil)
		_, err := authtoken.FromRequest(req)
		assert.ErrorIs(t, err, authtoken.ErrNoToken)
	})

	t.Run("wrong scheme", func(t *testing.T) {
		t.Parallel()

		req, _ := http.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
		_, err := authtoken.FromRequest(req)
		assert.ErrorIs(t, err, authtoken.ErrInvalidToken)
	})
}
