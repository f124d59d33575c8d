package corpus

import (
	"context"
	"fmt"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ormasoftchile/stepwise/pkg/schema"
)

// Event reports an article reload (or a reload failure) observed by the watcher.
type Event struct {
	Path    string
	Article *schema.Article // nil on error
	Err     error
}

// Watcher monitors the corpus directory and hot-reloads changed article
// files into the store. Events for the same file are debounced so editors
// that write in bursts produce a single reload.
type Watcher struct {
	store    *Store
	watcher  *fsnotify.Watcher
	events   chan Event
	debounce time.Duration
}

// NewWatcher creates a watcher over the store's directory.
func NewWatcher(store *Store) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	return &Watcher{
		store:    store,
		watcher:  fsWatcher,
		events:   make(chan Event, 10),
		debounce: 100 * time.Millisecond,
	}, nil
}

// Events returns the channel that receives reload events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins watching. The run loop exits when ctx is done.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.watcher.Add(w.store.Dir()); err != nil {
		return fmt.Errorf("watch directory %s: %w", w.store.Dir(), err)
	}
	go w.run(ctx)
	return nil
}

// Stop closes the underlying fsnotify watcher. The run loop drains out and
// closes the event channel itself, so no send can race the close.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.events)

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isArticleFile(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				pending[event.Name] = time.Now()
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.events <- Event{Err: err}

		case <-ticker.C:
			now := time.Now()
			for path, stamp := range pending {
				if now.Sub(stamp) < w.debounce {
					continue
				}
				delete(pending, path)
				a, err := w.store.reloadFile(path)
				w.events <- Event{Path: path, Article: a, Err: err}
			}
		}
	}
}
