package workspace_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicobject/codesearch/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRegistry(t *testing.T) *workspace.Registry {
	t.Helper()
	r := workspace.NewResolver(t.TempDir())
	return workspace.NewRegistry(r)
}

func TestRegistryTouchAndList(t *testing.T) {
	reg := newTestRegistry(t)

	t.Run("touching a new workspace creates an entry", func(t *testing.T) {
		// Arrange
		now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

		// Act
		err := reg.Touch("/workspace/one", now)
		require.NoError(t, err)
		entries, err := reg.List()
		require.NoError(t, err)

		// Assert
		require.Len(t, entries, 1)
		assert.Equal(t, "/workspace/one", entries[0].OriginalPath)
		assert.Equal(t, now, entries[0].CreatedAt)
		assert.Equal(t, now, entries[0].LastUsed)
	})

	t.Run("touching again preserves CreatedAt but bumps LastUsed", func(t *testing.T) {
		// Arrange
		first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		second := first.Add(24 * time.Hour)
		require.NoError(t, reg.Touch("/workspace/two", first))

		// Act
		require.NoError(t, reg.Touch("/workspace/two", second))
		entries, err := reg.List()
		require.NoError(t, err)

		// Assert
		var found *workspace.Entry
		for i := range entries {
			if entries[i].OriginalPath == "/workspace/two" {
				found = &entries[i]
			}
		}
		require.NotNil(t, found)
		assert.Equal(t, first, found.CreatedAt)
		assert.Equal(t, second, found.LastUsed)
	})

	t.Run("most recently used comes first", func(t *testing.T) {
		reg := newTestRegistry(t)
		older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		newer := older.Add(time.Hour)

		require.NoError(t, reg.Touch("/workspace/older", older))
		require.NoError(t, reg.Touch("/workspace/newer", newer))

		entries, err := reg.List()
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, "/workspace/newer", entries[0].OriginalPath)
		assert.Equal(t, "/workspace/older", entries[1].OriginalPath)
	})
}

func TestRegistryRemove(t *testing.T) {
	reg := newTestRegistry(t)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, reg.Touch("/workspace/one", now))

	require.NoError(t, reg.Remove("/workspace/one"))

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRegistryListOnMissingFile(t *testing.T) {
	dir := t.TempDir()
	r := workspace.NewResolver(filepath.Join(dir, "nested"))
	reg := workspace.NewRegistry(r)

	entries, err := reg.List()
	require.NoError(t, err)
	assert.Empty(t, entries)
}
