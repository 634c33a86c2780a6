package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSetAndGet(t *testing.T) {
	s := openTestStore(t)

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok, "missing key reads as absent")

	require.NoError(t, s.Set(KeyAccessToken, "tok-123"))

	value, ok := s.Get(KeyAccessToken)
	require.True(t, ok)
	assert.Equal(t, "tok-123", value)
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set(KeyLocationName, "Pune, Maharashtra"))
	require.NoError(t, s.Set(KeyLocationName, "Mumbai, Maharashtra"))

	value, ok := s.Get(KeyLocationName)
	require.True(t, ok)
	assert.Equal(t, "Mumbai, Maharashtra", value)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set(KeyAccessToken, "tok"))
	require.NoError(t, s.Delete(KeyAccessToken))

	_, ok := s.Get(KeyAccessToken)
	assert.False(t, ok)

	assert.NoError(t, s.Delete(KeyAccessToken), "deleting an absent key is not an error")
}

func TestUpdatedAt(t *testing.T) {
	s := openTestStore(t)

	_, ok := s.UpdatedAt(KeyLocationName)
	assert.False(t, ok)

	before := time.Now().UTC().Add(-time.Second)
	require.NoError(t, s.Set(KeyLocationName, "Pune, Maharashtra"))
	after := time.Now().UTC().Add(time.Second)

	updated, ok := s.UpdatedAt(KeyLocationName)
	require.True(t, ok)
	assert.True(t, updated.After(before) && updated.Before(after), "timestamp tracks the write")
}

func TestValuesSurviveReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persist.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Set(KeyAccessToken, "durable-token"))
	require.NoError(t, s.Close())

	reopened, err := Open(path)
	require.NoError(t, err)
	defer reopened.Close()

	value, ok := reopened.Get(KeyAccessToken)
	require.True(t, ok)
	assert.Equal(t, "durable-token", value)
}
