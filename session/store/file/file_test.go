package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveLoadClear(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "nested", "token"))

	_, ok, err := store.Load()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save("tok-abc"))
	token, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "tok-abc", token)

	require.NoError(t, store.Clear())
	_, ok, err = store.Load()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSaveOverwrites(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "token"))

	require.NoError(t, store.Save("first"))
	require.NoError(t, store.Save("second"))

	token, ok, err := store.Load()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "second", token)
}

func TestTokenFileMode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	store := New(path)
	require.NoError(t, store.Save("tok"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestClearMissingFileIsFine(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "token"))
	assert.NoError(t, store.Clear())
}

func TestLoadIgnoresWhitespaceOnlyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("\n\t \n"), 0o600))

	_, ok, err := New(path).Load()
	require.NoError(t, err)
	assert.False(t, ok)
}
