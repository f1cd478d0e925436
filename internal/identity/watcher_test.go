package identity

import (
	"context"
	"testing"
	"time"

	"github.com/januspriv/janus/internal/model"
)

func startWatcher(t *testing.T, store *Store) (<-chan struct{}, context.CancelFunc) {
	t.Helper()
	fired := make(chan struct{}, 1)
	w, err := NewWatcher(store, func() {
		select {
		case fired <- struct{}{}:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewWatcher: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	// Give the watch loop a moment to start before mutating the store.
	time.Sleep(50 * time.Millisecond)
	return fired, cancel
}

func waitFired(t *testing.T, fired <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-fired:
	case <-time.After(3 * time.Second):
		t.Fatalf("no watcher notification after %s", what)
	}
}

func TestWatcherFiresOnRecordWrite(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	fired, cancel := startWatcher(t, store)
	defer cancel()

	if err := store.Save(&model.Identity{Name: "Work"}); err != nil {
		t.Fatal(err)
	}
	waitFired(t, fired, "record write")
}

func TestWatcherFiresOnSelectionChange(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := &model.Identity{Name: "Work"}
	if err := store.Save(rec); err != nil {
		t.Fatal(err)
	}

	fired, cancel := startWatcher(t, store)
	defer cancel()

	// A pure selection change touches only the pointer file at the store
	// root, never a record.
	if err := store.Select(rec.ID); err != nil {
		t.Fatal(err)
	}
	waitFired(t, fired, "selection change")
}
