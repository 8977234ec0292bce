package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "storage.yaml")

	s := NewFileStore(path)
	_, err := s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, s.Set(TokenKey, "T"))
	require.NoError(t, s.Set("other", "value"))

	reopened := NewFileStore(path)
	token, err := reopened.Get(TokenKey)
	require.NoError(t, err)
	assert.Equal(t, "T", token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestFileStore_Remove(t *testing.T) {
	s := NewFileStore(filepath.Join(t.TempDir(), "storage.yaml"))

	// removing from a store that was never written is a no-op
	require.NoError(t, s.Remove(TokenKey))

	require.NoError(t, s.Set(TokenKey, "T"))
	require.NoError(t, s.Set("other", "value"))
	require.NoError(t, s.Remove(TokenKey))

	_, err := s.Get(TokenKey)
	assert.ErrorIs(t, err, ErrNotFound)

	other, err := s.Get("other")
	require.NoError(t, err)
	assert.Equal(t, "value", other)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.yaml")
	require.NoError(t, os.WriteFile(path, []byte("authToken: [unterminated"), 0600))

	s := NewFileStore(path)
	_, err := s.Get(TokenKey)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
