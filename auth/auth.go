// Package auth manages the access token that gates the search flow. The
// token is opaque to the gateway; when it happens to parse as a JWT its
// expiry claim is honoured, otherwise presence alone counts as signed in.
package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/medlinkr/medlinkr-api/interfaces"
	"github.com/medlinkr/medlinkr-api/logging"
)

// Compile-time check to ensure TokenStore implements TokenSource
var _ interfaces.TokenSource = (*TokenStore)(nil)

const tokenKey = "accessToken"

// TokenStore persists the access token in the durable key-value store and
// answers the signed-in question for the search gate.
type TokenStore struct {
	store interfaces.KeyValueStore

	// onSignOut hooks run after the token is cleared so dependent state
	// (search sessions, cached results) can be reset with it
	onSignOut []func()
}

// NewTokenStore creates a token store over the given durable store.
func NewTokenStore(store interfaces.KeyValueStore) *TokenStore {
	return &TokenStore{store: store}
}

// OnSignOut registers a hook invoked whenever SignOut clears the token.
func (t *TokenStore) OnSignOut(fn func()) {
	t.onSignOut = append(t.onSignOut, fn)
}

// SignIn stores the access token.
func (t *TokenStore) SignIn(token string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("access token cannot be empty")
	}
	if err := t.store.Set(tokenKey, token); err != nil {
		return fmt.Errorf("failed to persist access token: %w", err)
	}
	return nil
}

// SignOut clears the token and runs the registered hooks. Clearing an
// already-absent token is not an error.
func (t *TokenStore) SignOut() error {
	if err := t.store.Delete(tokenKey); err != nil {
		return fmt.Errorf("failed to clear access token: %w", err)
	}
	for _, fn := range t.onSignOut {
		fn()
	}
	return nil
}

// Token returns the stored access token when it is present and, for JWT
// tokens, not yet expired. An expired JWT counts as signed out.
func (t *TokenStore) Token() (string, bool) {
	token, ok := t.store.Get(tokenKey)
	if !ok || token == "" {
		return "", false
	}

	if expired, known := jwtExpired(token); known && expired {
		logging.Debug("Stored access token is expired")
		return "", false
	}

	return token, true
}

// jwtExpired inspects the exp claim without verifying the signature; the
// backend remains the authority on token validity. The second return value
// is false when the token is not a parseable JWT.
func jwtExpired(token string) (expired bool, known bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return false, false
	}

	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false, false
	}

	return exp.Before(time.Now()), true
}
