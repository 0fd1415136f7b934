// Package lock implements the tiered stale-writer-lock sweep described in
// spec §4.2: on startup, clean up lock files left behind by crashed or
// killed processes without disturbing an index a live process still holds.
package lock

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atomicobject/codesearch/pkg/config"
)

// LockFileName is the name IndexStore gives its per-index writer lock.
const LockFileName = "write.lock"

// Record is a single observation the sweep made about one lock file, used
// both for the tier-1/tier-2 removal log and the tier-3 diagnostic list.
type Record struct {
	Path      string
	Workspace string
	Age       time.Duration
	SizeBytes int64
	Accessible bool
	Removed   bool
	Reason    string
}

// Report summarizes one sweep.
type Report struct {
	TestArtifactsRemoved int
	WorkspaceLocksRemoved int
	StuckLocksFound      int
	Records              []Record
}

// Manager sweeps a tree of per-workspace index directories for abandoned
// writer locks.
type Manager struct {
	cfg config.LockManagerConfig

	// clock and stat are swappable for tests, mirroring the teacher's
	// UserConfigDirectory pattern of substituting OS calls.
	now  func() time.Time
	stat func(path string) (os.FileInfo, error)
}

// NewManager builds a Manager using cfg's tier thresholds.
func NewManager(cfg config.LockManagerConfig) *Manager {
	return &Manager{
		cfg:  cfg,
		now:  time.Now,
		stat: os.Stat,
	}
}

var testArtifactSegments = []string{"bin/debug", "bin/release", "testprojects"}

func isTestArtifactPath(path string) bool {
	normalized := filepath.ToSlash(strings.ToLower(path))
	for _, seg := range testArtifactSegments {
		if strings.Contains(normalized, seg) {
			return true
		}
	}
	for _, segment := range strings.Split(normalized, "/") {
		if strings.HasPrefix(segment, "test") {
			return true
		}
	}
	return false
}

// Sweep walks indexRoot (the "<base>/indexes" directory) looking for
// LockFileName files one level below each workspace-hash directory and
// applies the three tiers in order.
func (m *Manager) Sweep(indexRoot string) (Report, error) {
	var report Report

	entries, err := os.ReadDir(indexRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return report, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		lockPath := filepath.Join(indexRoot, entry.Name(), LockFileName)
		info, err := m.stat(lockPath)
		if err != nil {
			continue // no lock in this workspace directory, nothing to do
		}

		rec := Record{
			Path:      lockPath,
			Workspace: entry.Name(),
			Age:       m.now().Sub(info.ModTime()),
			SizeBytes: info.Size(),
		}

		m.applyTiers(&rec, &report)
		report.Records = append(report.Records, rec)
	}

	return report, nil
}

func (m *Manager) applyTiers(rec *Record, report *Report) {
	switch {
	case isTestArtifactPath(rec.Path) && rec.Age >= m.cfg.TestArtifactMinAge():
		if err := os.Remove(rec.Path); err == nil {
			rec.Removed = true
			rec.Reason = "test artifact"
			report.TestArtifactsRemoved++
		}

	case rec.Age >= m.cfg.WorkspaceMinAge():
		if m.safeToRemove(rec.Path, rec.SizeBytes) {
			if err := os.Remove(rec.Path); err == nil {
				rec.Removed = true
				rec.Reason = "stale workspace lock"
				report.WorkspaceLocksRemoved++
				return
			}
		}
		if rec.Age >= m.cfg.StuckLockAge() {
			rec.Accessible = m.isAccessible(rec.Path)
			rec.Reason = "stuck lock, not removed"
			report.StuckLocksFound++
		}

	default:
		rec.Reason = "below threshold, left alone"
	}
}

// safeToRemove implements tier-2's safety gate: the lock file's size must be
// stable across a short pause (a change means an active writer is still
// appending), and isAccessible must succeed in opening it.
func (m *Manager) safeToRemove(path string, observedSize int64) bool {
	time.Sleep(20 * time.Millisecond)

	info, err := m.stat(path)
	if err != nil {
		return false
	}
	if info.Size() != observedSize {
		return false
	}

	return m.isAccessible(path)
}

// isAccessible reports whether path can be opened for reading and writing.
// The open is not exclusive: on Unix it succeeds even while another process
// holds the file open, so it does not detect a live writer there.
func (m *Manager) isAccessible(path string) bool {
	f, err := os.OpenFile(path, os.O_RDWR, 0o644)
	if err != nil {
		return false
	}
	f.Close()
	return true
}

// ForceRemove is the operator-invoked escape hatch: apply the tier-2 safety
// check once, and if it fails, retry plain removal up to three times with
// increasing back-off. A failure here is reported, never fatal to a caller.
func (m *Manager) ForceRemove(path string) error {
	info, err := m.stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	if m.safeToRemove(path, info.Size()) {
		if err := os.Remove(path); err == nil {
			return nil
		}
	}

	var lastErr error
	backoff := 50 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		time.Sleep(backoff)
		if err := os.Remove(path); err == nil {
			return nil
		} else {
			lastErr = err
		}
		backoff *= 2
	}
	return lastErr
}
