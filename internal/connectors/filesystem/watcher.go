package filesystem

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/deskmate-labs/deskmate-cli/internal/logger"
)

// debounceWindow coalesces the burst of write events editors emit when
// saving a file into a single change notification.
const debounceWindow = 500 * time.Millisecond

// Watcher reports changed support documents under a directory.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string
}

// NewWatcher creates a watcher over the given directory.
func NewWatcher(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsw.Add(root); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watching %s: %w", root, err)
	}
	return &Watcher{fsw: fsw, root: root}, nil
}

// Watch blocks until ctx is cancelled, invoking onChange with the path
// of each loadable file that was created or written. Events for the
// same path within the debounce window collapse into one call.
func (w *Watcher) Watch(ctx context.Context, onChange func(path string)) error {
	var mu sync.Mutex
	pending := make(map[string]*time.Timer)

	defer func() {
		mu.Lock()
		defer mu.Unlock()
		for _, t := range pending {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
				continue
			}
			if !Loadable(event.Name) {
				continue
			}

			path := event.Name
			mu.Lock()
			if timer, exists := pending[path]; exists {
				timer.Reset(debounceWindow)
			} else {
				pending[path] = time.AfterFunc(debounceWindow, func() {
					mu.Lock()
					delete(pending, path)
					mu.Unlock()
					onChange(path)
				})
			}
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}
