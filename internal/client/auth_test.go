package client

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "ana@rep.br",
		"exp": exp.Unix(),
	})
	s, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return s
}

func TestAuthContext_SetAndClear(t *testing.T) {
	auth := NewAuthContext()

	_, ok := auth.Authorization()
	assert.False(t, ok)

	auth.Set("tok", "")
	authz, ok := auth.Authorization()
	require.True(t, ok)
	assert.Equal(t, "Bearer tok", authz)

	auth.Clear()
	_, ok = auth.Authorization()
	assert.False(t, ok)
}

func TestAuthContext_Expired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	auth := NewAuthContext()

	auth.Set(signedToken(t, now.Add(time.Hour)), "Bearer")
	assert.False(t, auth.Expired(now))

	exp, ok := auth.ExpiresAt()
	require.True(t, ok)
	assert.Equal(t, now.Add(time.Hour).Unix(), exp.Unix())

	auth.Set(signedToken(t, now.Add(-time.Minute)), "Bearer")
	assert.True(t, auth.Expired(now))
}

func TestAuthContext_ExpiredOpaqueToken(t *testing.T) {
	auth := NewAuthContext()
	auth.Set("not-a-jwt", "Bearer")

	// Tokens without a readable exp claim are left for the server to reject.
	assert.False(t, auth.Expired(time.Now()))
	_, ok := auth.ExpiresAt()
	assert.False(t, ok)
}
