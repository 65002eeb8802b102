package kv

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("", true)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGet(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("session:1", "alice"))
	value, err := s.Get("session:1")
	require.NoError(t, err)
	assert.Equal(t, "alice", value)
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)

	_, err := s.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetOverwrites(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("k", "one"))
	require.NoError(t, s.Set("k", "two"))

	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "two", value)
}

func TestSetTTLExpires(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.SetTTL("temp", "v", 50*time.Millisecond))

	value, err := s.Get("temp")
	require.NoError(t, err)
	assert.Equal(t, "v", value)

	time.Sleep(100 * time.Millisecond)
	_, err = s.Get("temp")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestExists(t *testing.T) {
	s := openTestStore(t)

	ok, err := s.Exists("k")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Set("k", "v"))
	ok, err = s.Exists("k")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)

	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Delete("k"))

	_, err := s.Get("k")
	assert.ErrorIs(t, err, ErrNotFound)

	// Absent keys delete without error.
	assert.NoError(t, s.Delete("k"))
}

func TestOpenPersistent(t *testing.T) {
	dir := t.TempDir()

	s, err := Open(dir, false)
	require.NoError(t, err)
	require.NoError(t, s.Set("k", "v"))
	require.NoError(t, s.Close())

	s, err = Open(dir, false)
	require.NoError(t, err)
	defer s.Close()

	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v", value)
}
