package artifact

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_WriteOverwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dest", "generated_app.py")
	store := NewStore(path)

	_, err := store.Write("print('v1')\n")
	require.NoError(t, err)
	got, err := store.Write("print('v2')\n")
	require.NoError(t, err)
	assert.Equal(t, path, got.Path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "print('v2')\n", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestStore_ReadMissing(t *testing.T) {
	_, err := NewStore(filepath.Join(t.TempDir(), "missing.py")).Read()
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
