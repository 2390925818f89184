//go:build !integration

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-billing/internal/config"
	"workforce-billing/internal/domain"
)

func newAuth(t *testing.T) *JWTAuthenticator {
	t.Helper()
	a, err := NewJWTAuthenticator(config.AuthConfig{JWTSecret: "s3cret", CookieName: "sb-access-token"})
	require.NoError(t, err)
	return a
}

func TestViewer(t *testing.T) {
	a := newAuth(t)
	tok, err := a.Mint("user-1", "u@example.com", time.Hour)
	require.NoError(t, err)

	t.Run("should read the bearer header", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		id, err := a.Viewer(r)
		require.NoError(t, err)
		require.NotNil(t, id)
		assert.Equal(t, "user-1", id.UserID)
		assert.Equal(t, "u@example.com", id.Email)
	})

	t.Run("should read the session cookie", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(&http.Cookie{Name: "sb-access-token", Value: tok})
		id, err := a.Viewer(r)
		require.NoError(t, err)
		assert.Equal(t, "user-1", id.UserID)
	})

	t.Run("should treat a missing token as anonymous", func(t *testing.T) {
		id, err := a.Viewer(httptest.NewRequest(http.MethodGet, "/", nil))
		assert.NoError(t, err)
		assert.Nil(t, id)
	})

	t.Run("should reject expired tokens", func(t *testing.T) {
		old := a.now
		a.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		expired, err := a.Mint("user-1", "", time.Hour)
		a.now = old
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+expired)
		_, err = a.Viewer(r)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("should reject other signing methods", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "user-1"})
		s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+s)
		_, err = a.Viewer(r)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("should reject a wrong issuer", func(t *testing.T) {
		strict, err := NewJWTAuthenticator(config.AuthConfig{JWTSecret: "s3cret", Issuer: "https://auth.example.com"})
		require.NoError(t, err)
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.Header.Set("Authorization", "Bearer "+tok)
		_, err = strict.Viewer(r)
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})
}
