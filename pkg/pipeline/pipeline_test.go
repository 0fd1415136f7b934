package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atomicobject/codesearch/pkg/config"
)

type fakeIndexer struct {
	mu      sync.Mutex
	indexed []string
}

func (f *fakeIndexer) IndexFile(_ context.Context, _ string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, path)
	return nil
}

func (f *fakeIndexer) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.indexed))
	copy(out, f.indexed)
	return out
}

type fakeDeleter struct {
	mu      sync.Mutex
	deleted []string
	commits int
}

func (f *fakeDeleter) DeleteDocument(_ context.Context, _ string, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, path)
	return nil
}

func (f *fakeDeleter) Commit(_ context.Context, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func (f *fakeDeleter) calls() ([]string, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.deleted))
	copy(out, f.deleted)
	return out, f.commits
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.FileWatcher.DebounceMS = 20
	cfg.FileWatcher.AtomicWriteWindowMS = 50
	cfg.FileWatcher.DeleteQuietPeriodS = 0 // overridden per-test via direct tracker calls where sub-second precision matters
	cfg.FileWatcher.BatchSize = 50
	return cfg
}

func newTestPipeline(t *testing.T, workspace string, ix fileIndexer, del documentDeleter) *Pipeline {
	t.Helper()
	cfg := testConfig()
	return &Pipeline{
		workspace:  workspace,
		cfg:        cfg,
		watcherCfg: cfg.FileWatcher,
		ix:         ix,
		deleter:    del,
		queue:      newEventQueue(),
		pending:    newPendingDeleteTracker(),
	}
}

func TestPipelineIsEligibleFiltersByExtensionAndExcludedDir(t *testing.T) {
	// Arrange
	p := newTestPipeline(t, "/ws", &fakeIndexer{}, &fakeDeleter{})

	// Act + Assert
	assert.True(t, p.isEligible("/ws/main.go"))
	assert.False(t, p.isEligible("/ws/README.md"))
	assert.False(t, p.isEligible("/ws/node_modules/pkg/index.js"))
	assert.True(t, p.isEligible("/ws/src/app.ts"))
}

func TestPipelineClassifyCreatedCancelsPendingDelete(t *testing.T) {
	// Arrange
	p := newTestPipeline(t, "/ws", &fakeIndexer{}, &fakeDeleter{})
	p.pending.CreateOrRefresh("/ws/a.go", time.Now())

	// Act
	p.classify(fsnotifyCreateEvent("/ws/a.go"))

	// Assert
	due := p.pending.DueForVerification(time.Now().Add(time.Hour), 0)
	require.Len(t, due, 1)
	assert.True(t, due[0].Cancelled)
	assert.Equal(t, 1, p.QueueDepth())
}

func TestPipelineClassifyDeletedCreatesPendingEntry(t *testing.T) {
	// Arrange
	p := newTestPipeline(t, "/ws", &fakeIndexer{}, &fakeDeleter{})

	// Act
	p.classify(fsnotifyRemoveEvent("/ws/a.go"))

	// Assert
	assert.Equal(t, 1, p.PendingDeleteCount())
	assert.Equal(t, 1, p.QueueDepth())
}

func TestPipelineClassifyIgnoresIneligiblePath(t *testing.T) {
	// Arrange
	p := newTestPipeline(t, "/ws", &fakeIndexer{}, &fakeDeleter{})

	// Act
	p.classify(fsnotifyCreateEvent("/ws/README.md"))

	// Assert
	assert.Equal(t, 0, p.QueueDepth())
}

func TestPipelineScanPendingDeletesReindexesTransientDelete(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	filePath := filepath.Join(dir, "a.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package a"), 0o644))

	ix := &fakeIndexer{}
	del := &fakeDeleter{}
	p := newTestPipeline(t, dir, ix, del)
	p.pending.CreateOrRefresh(filePath, time.Now().Add(-time.Hour))

	// Act - the file still exists, so the delete was transient
	p.scanPendingDeletes(context.Background())

	// Assert
	assert.Contains(t, ix.calls(), filePath)
	deleted, commits := del.calls()
	assert.Empty(t, deleted)
	assert.Equal(t, 0, commits)
}

func TestPipelineScanPendingDeletesAppliesConfirmedDelete(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	filePath := filepath.Join(dir, "gone.go")

	ix := &fakeIndexer{}
	del := &fakeDeleter{}
	p := newTestPipeline(t, dir, ix, del)
	p.pending.CreateOrRefresh(filePath, time.Now().Add(-time.Hour))

	// Act - the file does not exist on disk, so the delete is confirmed
	p.scanPendingDeletes(context.Background())

	// Assert
	deleted, commits := del.calls()
	assert.Contains(t, deleted, filePath)
	assert.Equal(t, 1, commits)
}

func TestPipelineScanPendingDeletesSkipsCancelledEntries(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	filePath := filepath.Join(dir, "gone.go")

	ix := &fakeIndexer{}
	del := &fakeDeleter{}
	p := newTestPipeline(t, dir, ix, del)
	p.pending.CreateOrRefresh(filePath, time.Now().Add(-time.Hour))
	p.pending.Cancel(filePath)

	// Act
	p.scanPendingDeletes(context.Background())

	// Assert
	deleted, commits := del.calls()
	assert.Empty(t, deleted)
	assert.Equal(t, 0, commits)
	assert.Empty(t, ix.calls())
}

func TestPipelineProcessBatchAppliesNonDeleteEventsAndCancelsPending(t *testing.T) {
	// Arrange
	ix := &fakeIndexer{}
	del := &fakeDeleter{}
	p := newTestPipeline(t, "/ws", ix, del)
	p.pending.CreateOrRefresh("/ws/a.go", time.Now())

	batch := []ChangeEvent{
		{Path: "/ws/a.go", Workspace: "/ws", Kind: Modified, Timestamp: time.Now()},
	}

	// Act
	p.processBatch(context.Background(), batch)

	// Assert
	assert.Contains(t, ix.calls(), "/ws/a.go")
	due := p.pending.DueForVerification(time.Now().Add(time.Hour), 0)
	require.Len(t, due, 1)
	assert.True(t, due[0].Cancelled)
}

func TestPipelineStartStopEndToEnd(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	ix := &fakeIndexer{}
	del := &fakeDeleter{}

	cfg := testConfig()
	p := &Pipeline{
		workspace:  dir,
		cfg:        cfg,
		watcherCfg: cfg.FileWatcher,
		ix:         ix,
		deleter:    del,
		queue:      newEventQueue(),
		pending:    newPendingDeleteTracker(),
	}
	p.newWatcher = defaultWatcherFactory(t)

	require.NoError(t, p.Start(context.Background()))
	defer p.Stop()

	// Act - create a real file and give the watcher + worker time to react
	filePath := filepath.Join(dir, "new.go")
	require.NoError(t, os.WriteFile(filePath, []byte("package new"), 0o644))

	require.Eventually(t, func() bool {
		for _, c := range ix.calls() {
			if c == filePath {
				return true
			}
		}
		return false
	}, 2*time.Second, 20*time.Millisecond)
}
