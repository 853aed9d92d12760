package artifacts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilesystemStoreSave(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFilesystemStore(dir)
	require.NoError(t, err)

	name, err := store.Save([]byte("MThd fake midi"))
	require.NoError(t, err)

	assert.Regexp(t, `^generated_[0-9a-f]{8}\.mid$`, name)

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, []byte("MThd fake midi"), data)
}

func TestFilesystemStoreUniqueNames(t *testing.T) {
	store, err := NewFilesystemStore(t.TempDir())
	require.NoError(t, err)

	seen := make(map[string]bool)
	for i := 0; i < 20; i++ {
		name, err := store.Save([]byte{0x00})
		require.NoError(t, err)
		assert.False(t, seen[name], "duplicate artifact name %s", name)
		seen[name] = true
	}
}

func TestNewFilesystemStoreCreatesNestedDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "static", "midi")
	store, err := NewFilesystemStore(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, store.Dir())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
