// Package pipeline implements the ChangePipeline from spec §4.7: it
// translates noisy OS file events into correct, minimal-cost index
// mutations, handling atomic-write editors (delete+create of the same
// path within milliseconds) and spurious transient deletes. Grounded on
// the teacher's pkg/cache/service.go watchLoop/markDirty machinery,
// generalized from "mark dirty for later Refresh()" to "apply immediately,
// verify deletes after a quiet period" since this domain indexes source
// code rather than reconciling an in-memory note cache.
package pipeline

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/atomicobject/codesearch/pkg/config"
	"github.com/atomicobject/codesearch/pkg/index"
	"github.com/atomicobject/codesearch/pkg/indexer"
)

// fileIndexer is the subset of *indexer.Indexer the pipeline depends on,
// so tests can substitute a recording fake without a real Manager/Store.
type fileIndexer interface {
	IndexFile(ctx context.Context, workspacePath string, path string) error
}

// documentDeleter is the subset of *index.Manager used to apply a verified
// delete.
type documentDeleter interface {
	DeleteDocument(ctx context.Context, workspacePath string, path string) error
	Commit(ctx context.Context, workspacePath string) error
}

// Pipeline watches one workspace and keeps its index in sync with the
// filesystem (spec §4.7).
type Pipeline struct {
	workspace string
	cfg       config.Config
	watcherCfg config.FileWatcherConfig

	ix      fileIndexer
	deleter documentDeleter

	queue   *eventQueue
	pending *pendingDeleteTracker

	newWatcher func() (*fsnotify.Watcher, error)

	cancel context.CancelFunc
	done   chan struct{}
}

// New builds a Pipeline for workspacePath. ix applies Created/Modified
// events; deleter applies verified Deleted events.
func New(cfg config.Config, workspacePath string, ix *indexer.Indexer, deleter *index.Manager) *Pipeline {
	return &Pipeline{
		workspace:  workspacePath,
		cfg:        cfg,
		watcherCfg: cfg.FileWatcher,
		ix:         ix,
		deleter:    deleter,
		queue:      newEventQueue(),
		pending:    newPendingDeleteTracker(),
		newWatcher: fsnotify.NewWatcher,
	}
}

// Start begins watching the workspace and processing events until ctx is
// canceled or Stop is called.
func (p *Pipeline) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.done = make(chan struct{})

	watcher, err := p.newWatcher()
	if err != nil {
		cancel()
		return err
	}
	if err := p.addWatchesRecursive(watcher, p.workspace); err != nil {
		_ = watcher.Close()
		cancel()
		return err
	}

	go p.watchLoop(runCtx, watcher)
	go p.workerLoop(runCtx)

	return nil
}

// Stop cancels the pipeline's background goroutines and waits for them to
// exit.
func (p *Pipeline) Stop() {
	if p.cancel != nil {
		p.cancel()
	}
	if p.done != nil {
		<-p.done
	}
}

func (p *Pipeline) addWatchesRecursive(watcher *fsnotify.Watcher, root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			if path != root && p.isExcludedDir(info.Name()) {
				return filepath.SkipDir
			}
			_ = watcher.Add(path)
		}
		return nil
	})
}

func (p *Pipeline) isExcludedDir(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, ".") {
		return true
	}
	for _, excluded := range p.cfg.ExcludedDirectories {
		if strings.ToLower(excluded) == lower {
			return true
		}
	}
	return false
}

func (p *Pipeline) isEligible(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, s := range p.cfg.SupportedExtensions {
		if strings.ToLower(s) == ext {
			supported = true
			break
		}
	}
	if !supported {
		return false
	}
	for _, segment := range strings.Split(filepath.ToSlash(path), "/") {
		if p.isExcludedDir(segment) {
			return false
		}
	}
	return true
}

// watchLoop translates fsnotify events into ChangeEvents on the shared
// queue (spec §4.7's classification step), restarting the watcher with a
// 1-second wait on watcher-level errors.
func (p *Pipeline) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer close(p.done)
	defer func() { _ = watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return

		case evt, ok := <-watcher.Events:
			if !ok {
				return
			}
			p.classify(evt)
			if evt.Op&fsnotify.Create == fsnotify.Create {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() && !p.isExcludedDir(info.Name()) {
					_ = watcher.Add(evt.Name)
				}
			}

		case _, ok := <-watcher.Errors:
			if !ok {
				return
			}
			_ = watcher.Close()
			newWatcher, err := p.restartWatcher(ctx)
			if err != nil {
				log.Printf("pipeline: watcher restart failed for %s: %v", p.workspace, err)
				return
			}
			watcher = newWatcher
		}
	}
}

// restartWatcher waits 1 second and builds a fresh watcher with the same
// configuration (spec §4.7's error-handling rule); watchLoop closes the
// current watcher before calling it.
func (p *Pipeline) restartWatcher(ctx context.Context) (*fsnotify.Watcher, error) {
	time.Sleep(1 * time.Second)

	watcher, err := p.newWatcher()
	if err != nil {
		return nil, err
	}
	if err := p.addWatchesRecursive(watcher, p.workspace); err != nil {
		_ = watcher.Close()
		return nil, err
	}
	return watcher, nil
}

func (p *Pipeline) classify(evt fsnotify.Event) {
	if !p.isEligible(evt.Name) {
		return
	}
	now := time.Now()

	switch {
	case evt.Op&fsnotify.Create == fsnotify.Create:
		p.pending.Cancel(evt.Name)
		p.queue.Push(ChangeEvent{Path: evt.Name, Workspace: p.workspace, Kind: Created, Timestamp: now})

	case evt.Op&fsnotify.Write == fsnotify.Write:
		p.pending.Cancel(evt.Name)
		p.queue.Push(ChangeEvent{Path: evt.Name, Workspace: p.workspace, Kind: Modified, Timestamp: now})

	case evt.Op&fsnotify.Remove == fsnotify.Remove:
		p.pending.CreateOrRefresh(evt.Name, now)
		p.queue.Push(ChangeEvent{Path: evt.Name, Workspace: p.workspace, Kind: Deleted, Timestamp: now})

	case evt.Op&fsnotify.Rename == fsnotify.Rename:
		// fsnotify reports a rename as a Rename event on the old path; the
		// corresponding Create on the new path arrives separately. Treat the
		// old path the same as a delete-pending-verification.
		p.pending.CreateOrRefresh(evt.Name, now)
		p.queue.Push(ChangeEvent{Path: evt.Name, Workspace: p.workspace, Kind: Deleted, Timestamp: now})
	}
}

// workerLoop is the single worker task of spec §4.7: drain up to
// batch_size events (debounce_interval as the first wait, 10ms between
// subsequent drains), process the batch, scan pending deletes, repeat.
func (p *Pipeline) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		batch := p.drainBatch(ctx)
		if len(batch) > 0 {
			p.processBatch(ctx, batch)
		}
		p.scanPendingDeletes(ctx)

		if len(batch) == 0 {
			time.Sleep(p.watcherCfg.DebounceInterval())
		}
	}
}

func (p *Pipeline) drainBatch(ctx context.Context) []ChangeEvent {
	batchSize := p.watcherCfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	if p.queue.Empty() {
		time.Sleep(p.watcherCfg.DebounceInterval())
	}

	var batch []ChangeEvent
	for len(batch) < batchSize {
		select {
		case <-ctx.Done():
			return batch
		default:
		}
		chunk := p.queue.DrainAvailable(batchSize - len(batch))
		if len(chunk) == 0 {
			break
		}
		batch = append(batch, chunk...)
		if len(batch) < batchSize {
			time.Sleep(10 * time.Millisecond)
		}
	}
	return batch
}

func (p *Pipeline) processBatch(ctx context.Context, batch []ChangeEvent) {
	coalesced := coalesce(batch, p.watcherCfg.AtomicWriteWindow())

	for _, evt := range coalesced {
		if evt.Kind == Deleted {
			continue // deletes stay pending for verification
		}
		p.pending.Cancel(evt.Path)
		if err := p.ix.IndexFile(ctx, p.workspace, evt.Path); err != nil {
			log.Printf("pipeline: index %s failed: %v", evt.Path, err)
		}
	}
}

// scanPendingDeletes implements spec §4.7's pending-delete scan: any entry
// whose quiet period has elapsed is re-checked against the filesystem. If
// the file exists, the delete was transient (re-index it); if not, apply
// the delete and commit.
func (p *Pipeline) scanPendingDeletes(ctx context.Context) {
	due := p.pending.DueForVerification(time.Now(), p.watcherCfg.DeleteQuietPeriod())
	for _, entry := range due {
		if entry.Cancelled {
			continue
		}
		if _, err := os.Stat(entry.Path); err == nil {
			if reindexErr := p.ix.IndexFile(ctx, p.workspace, entry.Path); reindexErr != nil {
				log.Printf("pipeline: re-index after transient delete %s failed: %v", entry.Path, reindexErr)
			}
			continue
		}
		if err := p.deleter.DeleteDocument(ctx, p.workspace, entry.Path); err != nil {
			log.Printf("pipeline: delete %s failed: %v", entry.Path, err)
			continue
		}
		if err := p.deleter.Commit(ctx, p.workspace); err != nil {
			log.Printf("pipeline: commit after delete %s failed: %v", entry.Path, err)
		}
	}
}

// PendingDeleteCount reports how many deletes are awaiting verification,
// for diagnostics and tests.
func (p *Pipeline) PendingDeleteCount() int {
	return p.pending.Len()
}

// QueueDepth reports how many events are queued and not yet processed, for
// diagnostics and tests.
func (p *Pipeline) QueueDepth() int {
	return p.queue.Len()
}
