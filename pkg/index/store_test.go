package index_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/atomicobject/codesearch/pkg/index"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *index.Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "segments.sqlite")
	store, err := index.OpenStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func sampleDoc(path, content string) index.Document {
	return index.Document{
		Path:         path,
		RelativePath: filepath.Base(path),
		Filename:     filepath.Base(path),
		Extension:    filepath.Ext(path),
		Size:         int64(len(content)),
		LastModified: time.Now(),
		Content:      content,
	}
}

func TestStoreIndexAndSearch(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{
		sampleDoc("/ws/foo.go", "func FooBarBaz() {}"),
		sampleDoc("/ws/other.go", "package main"),
	}))
	require.NoError(t, store.Commit(ctx))

	hits, err := store.Search(ctx, "foobarbaz", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "/ws/foo.go", hits[0].Path)
}

func TestStoreReindexIsDeleteThenAdd(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{sampleDoc("/ws/foo.go", "alpha")}))
	require.NoError(t, store.Commit(ctx))

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{sampleDoc("/ws/foo.go", "bravo")}))
	require.NoError(t, store.Commit(ctx))

	hits, err := store.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	hits, err = store.Search(ctx, "bravo", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestStoreDeleteDocument(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{sampleDoc("/ws/foo.go", "alpha")}))
	require.NoError(t, store.Commit(ctx))

	require.NoError(t, store.DeleteDocument(ctx, "/ws/foo.go"))
	require.NoError(t, store.Commit(ctx))

	hits, err := store.Search(ctx, "alpha", 10)
	require.NoError(t, err)
	assert.Empty(t, hits)

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
}

func TestStoreSearchBeforeCommitIsInvisible(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{sampleDoc("/ws/foo.go", "uncommitted")}))

	hits, err := store.Search(ctx, "uncommitted", 10)
	require.NoError(t, err)
	assert.Empty(t, hits, "a search must not observe an in-flight writer batch")
}

func TestStoreStatisticsByExtension(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{
		sampleDoc("/ws/a.go", "x"),
		sampleDoc("/ws/b.go", "y"),
		sampleDoc("/ws/c.py", "z"),
	}))
	require.NoError(t, store.Commit(ctx))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.DocumentCount)
	assert.Equal(t, 2, stats.ByExtension[".go"])
	assert.Equal(t, 1, stats.ByExtension[".py"])
}

func TestStoreClear(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.IndexDocuments(ctx, []index.Document{sampleDoc("/ws/a.go", "x")}))
	require.NoError(t, store.Commit(ctx))

	require.NoError(t, store.Clear(ctx))

	stats, err := store.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
}

func TestStoreValidate(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Validate(context.Background()))
}
