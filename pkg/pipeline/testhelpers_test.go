package pipeline

import (
	"testing"

	"github.com/fsnotify/fsnotify"
)

func fsnotifyCreateEvent(path string) fsnotify.Event {
	return fsnotify.Event{Name: path, Op: fsnotify.Create}
}

func fsnotifyRemoveEvent(path string) fsnotify.Event {
	return fsnotify.Event{Name: path, Op: fsnotify.Remove}
}

// defaultWatcherFactory returns a newWatcher func that builds a real
// fsnotify.Watcher, for the one end-to-end test that exercises the
// filesystem directly.
func defaultWatcherFactory(t *testing.T) func() (*fsnotify.Watcher, error) {
	t.Helper()
	return fsnotify.NewWatcher
}
