package indexer_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicobject/codesearch/pkg/config"
	"github.com/atomicobject/codesearch/pkg/index"
	"github.com/atomicobject/codesearch/pkg/indexer"
	"github.com/atomicobject/codesearch/pkg/lock"
	"github.com/atomicobject/codesearch/pkg/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIndexer(t *testing.T, root string) (*indexer.Indexer, *index.Manager) {
	t.Helper()
	resolver := workspace.NewResolver(t.TempDir())
	lockMgr := lock.NewManager(config.LockManagerConfig{TestArtifactMinAgeM: 1, WorkspaceMinAgeM: 5, StuckLockAgeM: 15})
	m, err := index.NewManager(resolver, lockMgr, 4)
	require.NoError(t, err)

	cfg := config.Default()
	buffer := index.NewBatchBuffer(m, 500, time.Hour)
	return indexer.New(cfg, buffer), m
}

func TestIndexerRunIndexesEligibleFiles(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "main.go"), []byte("package main"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "readme.bin"), []byte{0xff, 0xfe, 0x00}, 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "node_modules", "dep.go"), []byte("package dep"), 0o644))

	ix, m := newTestIndexer(t, root)
	ctx := context.Background()

	result, err := ix.Run(ctx, root)
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, 1, result.IndexedCount)
	assert.GreaterOrEqual(t, result.SkippedCount, 1)

	stats, err := m.Statistics(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
}

func TestIndexerSkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	big := make([]byte, 200)
	for i := range big {
		big[i] = 'a'
	}
	require.NoError(t, os.WriteFile(filepath.Join(root, "big.go"), big, 0o644))

	resolver := workspace.NewResolver(t.TempDir())
	lockMgr := lock.NewManager(config.LockManagerConfig{TestArtifactMinAgeM: 1, WorkspaceMinAgeM: 5, StuckLockAgeM: 15})
	m, err := index.NewManager(resolver, lockMgr, 4)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.MaxFileSizeBytes = 10
	buffer := index.NewBatchBuffer(m, 500, time.Hour)
	ix := indexer.New(cfg, buffer)

	result, err := ix.Run(context.Background(), root)
	require.NoError(t, err)
	assert.Equal(t, 0, result.IndexedCount)
	assert.Equal(t, 1, result.SkippedCount)
}

func TestIndexerRunAttachesExtractedTypes(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "greeter.go"), []byte("package main\n\nfunc Greet() string { return \"hi\" }\n"), 0o644))

	ix, m := newTestIndexer(t, root)
	ctx := context.Background()

	result, err := ix.Run(ctx, root)
	require.NoError(t, err)
	require.Equal(t, 1, result.IndexedCount)

	types, methods, err := m.Types(ctx, root, filepath.Join(root, "greeter.go"))
	require.NoError(t, err)
	assert.Empty(t, types)
	require.Len(t, methods, 1)
	assert.Equal(t, "Greet", methods[0].Name)
}

func TestIndexerIndexFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "single.go")
	require.NoError(t, os.WriteFile(path, []byte("package single"), 0o644))

	ix, m := newTestIndexer(t, root)
	ctx := context.Background()

	require.NoError(t, ix.IndexFile(ctx, root, path))

	stats, err := m.Statistics(ctx, root)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
}
