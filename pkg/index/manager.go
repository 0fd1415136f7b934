package index

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru"

	"github.com/atomicobject/codesearch/pkg/errs"
	"github.com/atomicobject/codesearch/pkg/fsutil"
	"github.com/atomicobject/codesearch/pkg/lock"
	"github.com/atomicobject/codesearch/pkg/workspace"
)

// HealthState is one of the index health states from spec §3.
type HealthState string

const (
	HealthMissing   HealthState = "Missing"
	HealthHealthy   HealthState = "Healthy"
	HealthDegraded  HealthState = "Degraded"
	HealthUnhealthy HealthState = "Unhealthy"
	HealthLocked    HealthState = "Locked"
)

// DefaultMaxOpenHandles is the default IndexHandle LRU cap.
const DefaultMaxOpenHandles = 32

// IndexHandle holds one workspace's open writer/reader pair: the
// underlying Store, its last-use time, and a mutex serializing writer
// operations on this handle (spec §4.3). Go's sync.Mutex starves only
// under pathological contention, which is close enough to the "fair
// mutex" the spec calls for.
type IndexHandle struct {
	mu       sync.Mutex
	store    *Store
	lastUse  time.Time
	workspace string
	indexDir string
}

// Manager is the IndexStore component: owns a map workspace_hash ->
// IndexHandle with LRU eviction, grounded on the teacher's
// embeddings/sqlite.Store for the underlying SQL operations and extended
// here with the multi-workspace handle cache spec §4.3 requires.
type Manager struct {
	resolver *workspace.Resolver
	locks    *lock.Manager

	mu     sync.Mutex
	cache  *lru.Cache
}

// NewManager builds a Manager backed by resolver for on-disk layout, with
// at most maxHandles IndexHandles open concurrently (least-recently-used
// eviction beyond that).
func NewManager(resolver *workspace.Resolver, locks *lock.Manager, maxHandles int) (*Manager, error) {
	if maxHandles <= 0 {
		maxHandles = DefaultMaxOpenHandles
	}
	m := &Manager{resolver: resolver, locks: locks}

	cache, err := lru.NewWithEvict(maxHandles, m.onEvict)
	if err != nil {
		return nil, err
	}
	m.cache = cache
	return m, nil
}

func (m *Manager) onEvict(key interface{}, value interface{}) {
	handle, ok := value.(*IndexHandle)
	if !ok {
		return
	}
	handle.mu.Lock()
	defer handle.mu.Unlock()
	_ = handle.store.Commit(context.Background())
	_ = handle.store.Close()
	_ = os.Remove(filepath.Join(handle.indexDir, lock.LockFileName))
}

// OpenOrReuse is idempotent: it creates the index directory and an empty
// index on first call for a workspace, and simply bumps last-use on
// subsequent ones (spec §4.3's `open_or_reuse`).
func (m *Manager) OpenOrReuse(workspacePath string) (*IndexHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	hash := workspace.Hash(workspacePath)
	if cached, ok := m.cache.Get(hash); ok {
		handle := cached.(*IndexHandle)
		handle.lastUse = time.Now()
		return handle, nil
	}

	indexDir := m.resolver.IndexDir(workspacePath)
	if err := os.MkdirAll(indexDir, 0o755); err != nil {
		return nil, errs.New(errs.InitializationFailed, "could not create index directory", err)
	}

	lockPath := filepath.Join(indexDir, lock.LockFileName)
	if err := writeLockFile(lockPath); err != nil {
		return nil, errs.New(errs.InitializationFailed, "could not create writer lock", err)
	}

	segmentPath := filepath.Join(indexDir, SegmentFileName)
	store, err := OpenStore(segmentPath)
	if err != nil {
		_ = os.Remove(lockPath)
		return nil, errs.StuckLockError(lockPath, err)
	}

	handle := &IndexHandle{
		store:     store,
		lastUse:   time.Now(),
		workspace: workspacePath,
		indexDir:  indexDir,
	}
	m.cache.Add(hash, handle)
	return handle, nil
}

// writeLockFile creates indexDir's write.lock, recording this process's PID
// and start time so a LockManager.Sweep run after a crash has a real
// on-disk artifact to age out (spec §4.2). Its mtime, not its contents, is
// what the sweep actually keys its tiers on.
func writeLockFile(lockPath string) error {
	contents := []byte(fmt.Sprintf("pid=%d\nopened=%s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339)))
	return fsutil.WriteFileAtomic(lockPath, contents, 0o644)
}

func (m *Manager) handle(workspacePath string) (*IndexHandle, error) {
	return m.OpenOrReuse(workspacePath)
}

// IndexDocuments indexes docs for workspacePath (spec §4.3).
func (m *Manager) IndexDocuments(ctx context.Context, workspacePath string, docs []Document) error {
	h, err := m.handle(workspacePath)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUse = time.Now()
	return h.store.IndexDocuments(ctx, docs)
}

// DeleteDocument removes a single document by path (spec §4.3).
func (m *Manager) DeleteDocument(ctx context.Context, workspacePath string, path string) error {
	h, err := m.handle(workspacePath)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastUse = time.Now()
	return h.store.DeleteDocument(ctx, path)
}

// Commit flushes pending mutations for workspacePath (spec §4.3).
func (m *Manager) Commit(ctx context.Context, workspacePath string) error {
	h, err := m.handle(workspacePath)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Commit(ctx)
}

// Search obtains a reader snapshot consistent with the last commit (spec
// §4.3): readers never observe an in-flight writer batch because WAL mode
// gives every read its own consistent snapshot independent of the writer's
// open transaction.
func (m *Manager) Search(ctx context.Context, workspacePath string, matchExpr string, limit int) ([]SearchHit, error) {
	h, err := m.handle(workspacePath)
	if err != nil {
		return nil, err
	}
	return h.store.Search(ctx, matchExpr, limit)
}

// ContentTokens returns the tokenized content recorded for path, for the
// similarity query kind.
func (m *Manager) ContentTokens(ctx context.Context, workspacePath string, path string) (string, error) {
	h, err := m.handle(workspacePath)
	if err != nil {
		return "", err
	}
	return h.store.ContentTokens(ctx, path)
}

// Types returns the TypeExtractor result stored for path at index time.
func (m *Manager) Types(ctx context.Context, workspacePath string, path string) ([]ExtractedType, []ExtractedMethod, error) {
	h, err := m.handle(workspacePath)
	if err != nil {
		return nil, nil, err
	}
	return h.store.Types(ctx, path)
}

// WorkspaceStats extends Stats with the human-readable size and segment
// count the `statistics` operation in spec §4.3 asks for.
type WorkspaceStats struct {
	Stats
	HumanSize string
}

// Statistics returns live document count, size on disk, and per-extension
// distribution for workspacePath (spec §4.3).
func (m *Manager) Statistics(ctx context.Context, workspacePath string) (WorkspaceStats, error) {
	h, err := m.handle(workspacePath)
	if err != nil {
		return WorkspaceStats{}, err
	}

	stats, err := h.store.Statistics(ctx)
	if err != nil {
		return WorkspaceStats{}, err
	}

	size, err := fsutil.DirSize(h.indexDir)
	if err != nil {
		size = 0
	}
	stats.SizeOnDiskBytes = size
	stats.SegmentCount = 1 // one SQLite file per workspace in this design

	return WorkspaceStats{Stats: stats, HumanSize: humanize.Bytes(uint64(size))}, nil
}

// Health derives {Missing | Healthy | Degraded | Unhealthy | Locked} from
// the presence of the index directory, the writer lock's age, and a cheap
// validation pass (spec §4.3). A workspace this same process already has
// an open IndexHandle for is never reported Locked: the lock file it sees
// is this process's own, not a foreign writer's.
func (m *Manager) Health(workspacePath string) HealthState {
	indexDir := m.resolver.IndexDir(workspacePath)
	info, err := os.Stat(indexDir)
	if err != nil || !info.IsDir() {
		return HealthMissing
	}

	m.mu.Lock()
	_, ownHandle := m.cache.Peek(workspace.Hash(workspacePath))
	m.mu.Unlock()

	if !ownHandle {
		lockPath := filepath.Join(indexDir, lock.LockFileName)
		if lockInfo, err := os.Stat(lockPath); err == nil {
			if time.Since(lockInfo.ModTime()) < time.Minute {
				return HealthLocked
			}
		}
	}

	segmentPath := filepath.Join(indexDir, SegmentFileName)
	store, err := OpenStore(segmentPath)
	if err != nil {
		return HealthUnhealthy
	}
	defer store.Close()

	if err := store.Validate(context.Background()); err != nil {
		return HealthDegraded
	}
	return HealthHealthy
}

// Clear removes every document for workspacePath and commits (spec §4.3).
func (m *Manager) Clear(ctx context.Context, workspacePath string) error {
	h, err := m.handle(workspacePath)
	if err != nil {
		return err
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.store.Clear(ctx)
}

// CloseLeastRecentlyUsed evicts the oldest handle in the cache, flushing it
// first (spec §4.3's `close_least_recently_used`).
func (m *Manager) CloseLeastRecentlyUsed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.RemoveOldest()
}

// CloseAll evicts every open handle, committing and releasing its writer
// lock file. Callers should run this on graceful shutdown so a clean exit
// never leaves a write.lock behind for the next LockManager.Sweep to chew
// on.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cache.Purge()
}

// RepairReport summarizes a Repair run.
type RepairReport struct {
	BackupPath string
	Validated  bool
	Rebuilt    bool
}

// Repair implements spec §4.3's explicit repair operation: backup the index
// directory, run a validation pass, and if validation fails, rebuild the
// segment file from scratch (the caller is expected to re-index afterward,
// since a rebuilt segment file starts empty).
func (m *Manager) Repair(workspacePath string) (RepairReport, error) {
	indexDir := m.resolver.IndexDir(workspacePath)
	hash := workspace.Hash(workspacePath)

	m.mu.Lock()
	m.cache.Remove(hash)
	m.mu.Unlock()

	backupDir := m.resolver.BackupDir(uuid.NewString())
	if err := copyDir(indexDir, backupDir); err != nil {
		return RepairReport{}, fmt.Errorf("backup index directory: %w", err)
	}

	report := RepairReport{BackupPath: backupDir}

	segmentPath := filepath.Join(indexDir, SegmentFileName)
	store, err := OpenStore(segmentPath)
	if err != nil {
		if removeErr := os.Remove(segmentPath); removeErr == nil {
			report.Rebuilt = true
		}
		return report, nil
	}
	defer store.Close()

	if err := store.Validate(context.Background()); err != nil {
		store.Close()
		if removeErr := os.Remove(segmentPath); removeErr == nil {
			report.Rebuilt = true
		}
		return report, nil
	}

	report.Validated = true
	return report, nil
}

func copyDir(src, dst string) error {
	if _, err := os.Stat(src); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if info.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		return fsutil.WriteFileAtomic(target, content, info.Mode())
	})
}
