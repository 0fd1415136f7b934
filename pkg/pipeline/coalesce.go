package pipeline

import (
	"sort"
	"time"
)

// coalesce implements spec §4.7 step 2: group events by path; within a
// path's events, a Delete+Create pair within atomicWriteWindow collapses to
// one Modified event at the create's timestamp; otherwise multiple events
// for a path collapse to just the last one (by timestamp).
func coalesce(events []ChangeEvent, atomicWriteWindow time.Duration) []ChangeEvent {
	byPath := make(map[string][]ChangeEvent)
	var order []string
	for _, evt := range events {
		if _, seen := byPath[evt.Path]; !seen {
			order = append(order, evt.Path)
		}
		byPath[evt.Path] = append(byPath[evt.Path], evt)
	}

	result := make([]ChangeEvent, 0, len(order))
	for _, path := range order {
		group := byPath[path]
		sort.Slice(group, func(i, j int) bool { return group[i].Timestamp.Before(group[j].Timestamp) })

		if modified, ok := coalesceAtomicWrite(group, atomicWriteWindow); ok {
			result = append(result, modified)
			continue
		}
		result = append(result, group[len(group)-1])
	}
	return result
}

// coalesceAtomicWrite finds a Delete and a Create in group whose timestamps
// differ by at most window, and if found, returns a single synthesized
// Modified event at the create's timestamp.
func coalesceAtomicWrite(group []ChangeEvent, window time.Duration) (ChangeEvent, bool) {
	var del, create *ChangeEvent
	for i := range group {
		switch group[i].Kind {
		case Deleted:
			if del == nil {
				del = &group[i]
			}
		case Created:
			create = &group[i]
		}
	}
	if del == nil || create == nil {
		return ChangeEvent{}, false
	}

	diff := create.Timestamp.Sub(del.Timestamp)
	if diff < 0 {
		diff = -diff
	}
	if diff > window {
		return ChangeEvent{}, false
	}

	return ChangeEvent{
		Path:      create.Path,
		Workspace: create.Workspace,
		Kind:      Modified,
		Timestamp: create.Timestamp,
	}, true
}
