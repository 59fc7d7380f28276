package catalog

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirCatalog_Lookup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tile_map.py"), []byte("class TileMap: pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "collision.py"), []byte("def collide(): pass\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	got, err := NewDirCatalog(dir, 0).Lookup(context.Background(), "snake game")
	require.NoError(t, err)

	assert.Less(t, strings.Index(got, "collision.py"), strings.Index(got, "tile_map.py"))
	assert.Contains(t, got, "class TileMap: pass")
	assert.NotContains(t, got, "ignored")
}

func TestDirCatalog_RespectsMaxBytes(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.py"), []byte(strings.Repeat("a", 50)), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.py"), []byte(strings.Repeat("b", 50)), 0o644))

	got, err := NewDirCatalog(dir, 120).Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Contains(t, got, "a.py")
	assert.NotContains(t, got, "b.py")
}

func TestDirCatalog_MissingDirIsEmpty(t *testing.T) {
	got, err := NewDirCatalog(filepath.Join(t.TempDir(), "none"), 0).Lookup(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, got)
}
