package mcpserver

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicobject/codesearch/pkg/config"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	base := t.TempDir()
	workspace := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(workspace, "main.go"), []byte("package main\n\nfunc HandleRequest() {}\n"), 0o644))

	cfg := config.Default()
	cfg.BasePath = base

	svc, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { svc.Close(context.Background()) })

	return svc, workspace
}

func TestServiceIndexAndSearch(t *testing.T) {
	t.Run("indexing a workspace makes its content searchable", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)

		// Act
		result, err := svc.IndexWorkspace(context.Background(), workspace)

		// Assert
		require.NoError(t, err)
		assert.True(t, result.Success)
		assert.Equal(t, 1, result.IndexedCount)

		results, err := svc.Search(context.Background(), "text", workspace, "HandleRequest", 10)
		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Equal(t, "main.go", results[0].RelativePath)
	})

	t.Run("indexing twice does not duplicate pipelines", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)

		// Act
		_, err := svc.IndexWorkspace(context.Background(), workspace)
		require.NoError(t, err)
		_, err = svc.IndexWorkspace(context.Background(), workspace)

		// Assert
		require.NoError(t, err)
		svc.mu.Lock()
		count := len(svc.pipelines)
		svc.mu.Unlock()
		assert.Equal(t, 1, count)
	})

	t.Run("unknown query kind is an error", func(t *testing.T) {
		svc, workspace := newTestService(t)
		_, err := svc.Search(context.Background(), "bogus", workspace, "x", 10)
		assert.Error(t, err)
	})
}

func TestServiceStatistics(t *testing.T) {
	t.Run("reports document count and healthy state after indexing", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)
		_, err := svc.IndexWorkspace(context.Background(), workspace)
		require.NoError(t, err)

		// Act
		stats, health, err := svc.Statistics(context.Background(), workspace)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 1, stats.DocumentCount)
		assert.Equal(t, "Healthy", string(health))
	})
}

func TestServiceExtractTypes(t *testing.T) {
	t.Run("returns the methods recorded for an indexed file", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)
		_, err := svc.IndexWorkspace(context.Background(), workspace)
		require.NoError(t, err)

		// Act
		types, methods, err := svc.ExtractTypes(context.Background(), workspace, filepath.Join(workspace, "main.go"))

		// Assert
		require.NoError(t, err)
		assert.Empty(t, types)
		require.Len(t, methods, 1)
		assert.Equal(t, "HandleRequest", methods[0].Name)
	})
}

func TestServiceWorkspacesAndRemove(t *testing.T) {
	t.Run("indexed workspaces appear in the registry and can be removed", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)
		_, err := svc.IndexWorkspace(context.Background(), workspace)
		require.NoError(t, err)

		// Act
		entries, err := svc.Workspaces()

		// Assert
		require.NoError(t, err)
		require.Len(t, entries, 1)

		require.NoError(t, svc.RemoveWorkspace(workspace))
		entries, err = svc.Workspaces()
		require.NoError(t, err)
		assert.Len(t, entries, 0)
	})
}

func TestServiceDoctor(t *testing.T) {
	t.Run("sweeping a service with no stale locks reports nothing removed", func(t *testing.T) {
		// Arrange
		svc, workspace := newTestService(t)
		_, err := svc.IndexWorkspace(context.Background(), workspace)
		require.NoError(t, err)

		// Act
		report, err := svc.Doctor()

		// Assert
		require.NoError(t, err)
		assert.Equal(t, 0, report.WorkspaceLocksRemoved)
	})
}
