package client

import (
	"errors"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned when the upstream API rejects the session
// token. The stored token is cleared before this error is returned.
var ErrUnauthorized = errors.New("client: session is not authorized")

// AuthContext holds the bearer token for the upstream API. It is safe for
// concurrent use; the HTTP client reads it on every request and clears it
// when the API answers 401.
type AuthContext struct {
	mu        sync.RWMutex
	token     string
	tokenType string
}

// NewAuthContext returns an empty auth context.
func NewAuthContext() *AuthContext {
	return &AuthContext{}
}

// Set stores the token obtained from the login endpoint. An empty tokenType
// defaults to "Bearer".
func (a *AuthContext) Set(token, tokenType string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if tokenType == "" {
		tokenType = "Bearer"
	}
	a.token = token
	a.tokenType = tokenType
}

// Clear drops the stored token. Called on logout and on 401 responses.
func (a *AuthContext) Clear() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.token = ""
	a.tokenType = ""
}

// Authorization returns the value for the Authorization header and whether
// a token is present.
func (a *AuthContext) Authorization() (string, bool) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.token == "" {
		return "", false
	}
	return a.tokenType + " " + a.token, true
}

// ExpiresAt reports the token's exp claim. The token is issued by the
// upstream API and only relayed here, so the signature is not verified;
// the claim is used to avoid sending requests that are known to fail.
func (a *AuthContext) ExpiresAt() (time.Time, bool) {
	a.mu.RLock()
	token := a.token
	a.mu.RUnlock()
	if token == "" {
		return time.Time{}, false
	}

	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Expired reports whether the stored token is past its exp claim. Tokens
// without a readable exp claim are treated as live and left to the server
// to reject.
func (a *AuthContext) Expired(now time.Time) bool {
	exp, ok := a.ExpiresAt()
	if !ok {
		return false
	}
	return !now.Before(exp)
}
