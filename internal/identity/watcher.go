package identity

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the watcher waits after the last write before
// notifying. The options UI writes the record and the selection pointer in
// quick succession; one notification should cover both.
const watchDebounce = 500 * time.Millisecond

// Watcher notifies when the options UI rewrites identity records, so long
// lived sessions pick up edits without restarting.
type Watcher struct {
	watcher *fsnotify.Watcher
	onEdit  func()
}

// NewWatcher creates a watcher over the store's record directory and its
// root. The root carries the selection pointer, so a selection change with no
// record edit still notifies.
func NewWatcher(store *Store, onEdit func()) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("identity: create watcher: %w", err)
	}
	for _, dir := range []string{store.Dir(), store.Root()} {
		if err := w.Add(dir); err != nil {
			w.Close()
			return nil, fmt.Errorf("identity: watch %q: %w", dir, err)
		}
	}
	return &Watcher{watcher: w, onEdit: onEdit}, nil
}

// Run watches for record changes. Blocks until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var debounce *time.Timer

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Remove) {
				if debounce != nil {
					debounce.Stop()
				}
				debounce = time.AfterFunc(watchDebounce, w.onEdit)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stderr, "identity watcher error: %v\n", err)
		}
	}
}
