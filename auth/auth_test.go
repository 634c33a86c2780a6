package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	values  map[string]string
	updated map[string]time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{values: make(map[string]string), updated: make(map[string]time.Time)}
}

func (m *memoryStore) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

func (m *memoryStore) Set(key, value string) error {
	m.values[key] = value
	m.updated[key] = time.Now().UTC()
	return nil
}

func (m *memoryStore) Delete(key string) error {
	delete(m.values, key)
	delete(m.updated, key)
	return nil
}

func (m *memoryStore) UpdatedAt(key string) (time.Time, bool) {
	t, ok := m.updated[key]
	return t, ok
}

func signedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "user-1",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestSignInAndToken(t *testing.T) {
	ts := NewTokenStore(newMemoryStore())

	_, ok := ts.Token()
	assert.False(t, ok, "no token before sign in")

	require.NoError(t, ts.SignIn("opaque-token-123"))

	token, ok := ts.Token()
	require.True(t, ok)
	assert.Equal(t, "opaque-token-123", token)
}

func TestSignInRejectsEmptyToken(t *testing.T) {
	ts := NewTokenStore(newMemoryStore())

	assert.Error(t, ts.SignIn("   "))
}

func TestSignOutClearsTokenAndRunsHooks(t *testing.T) {
	ts := NewTokenStore(newMemoryStore())
	hookRuns := 0
	ts.OnSignOut(func() { hookRuns++ })

	require.NoError(t, ts.SignIn("opaque-token-123"))
	require.NoError(t, ts.SignOut())

	_, ok := ts.Token()
	assert.False(t, ok)
	assert.Equal(t, 1, hookRuns)
}

func TestTokenHonoursJWTExpiry(t *testing.T) {
	ts := NewTokenStore(newMemoryStore())

	require.NoError(t, ts.SignIn(signedJWT(t, time.Now().Add(time.Hour))))
	_, ok := ts.Token()
	assert.True(t, ok, "valid JWT counts as signed in")

	require.NoError(t, ts.SignIn(signedJWT(t, time.Now().Add(-time.Hour))))
	_, ok = ts.Token()
	assert.False(t, ok, "expired JWT counts as signed out")
}

func TestNonJWTTokenIsAcceptedByPresence(t *testing.T) {
	ts := NewTokenStore(newMemoryStore())

	require.NoError(t, ts.SignIn("not.a.jwt-but-close"))
	_, ok := ts.Token()
	assert.True(t, ok)
}
