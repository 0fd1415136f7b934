package pipeline

import (
	"sync"
	"time"
)

// pendingDeleteTracker is the concurrent map `pending_deletes` of spec
// §4.7: one entry per path whose delete is awaiting verification.
type pendingDeleteTracker struct {
	mu      sync.Mutex
	entries map[string]*PendingDelete
}

func newPendingDeleteTracker() *pendingDeleteTracker {
	return &pendingDeleteTracker{entries: make(map[string]*PendingDelete)}
}

// CreateOrRefresh creates a new PendingDelete for path, or bumps
// LastActivityTime and clears Cancelled on an existing one.
func (t *pendingDeleteTracker) CreateOrRefresh(path string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if existing, ok := t.entries[path]; ok {
		existing.LastActivityTime = now
		existing.Cancelled = false
		return
	}
	t.entries[path] = &PendingDelete{
		Path:             path,
		FirstSeenTime:    now,
		LastActivityTime: now,
	}
}

// Cancel marks path's pending delete (if any) as cancelled, per spec
// §4.7's "Created/Modified... if a PendingDelete exists for the path, mark
// it cancelled."
func (t *pendingDeleteTracker) Cancel(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if existing, ok := t.entries[path]; ok {
		existing.Cancelled = true
	}
}

// DueForVerification returns every entry whose quiet period has elapsed,
// removing them from the tracker (cancelled or not — the caller decides
// what to do with a cancelled one, typically nothing).
func (t *pendingDeleteTracker) DueForVerification(now time.Time, quietPeriod time.Duration) []*PendingDelete {
	t.mu.Lock()
	defer t.mu.Unlock()

	var due []*PendingDelete
	for path, entry := range t.entries {
		if now.Sub(entry.LastActivityTime) >= quietPeriod {
			due = append(due, entry)
			delete(t.entries, path)
		}
	}
	return due
}

// Len reports how many deletes are currently pending verification.
func (t *pendingDeleteTracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}
