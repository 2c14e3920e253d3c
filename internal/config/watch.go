package config

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultWatchDebounce is how long a file must stay quiet after a change
// before its reload runs.
const DefaultWatchDebounce = 500 * time.Millisecond

// Watcher reloads files when they change on disk. It watches each file's
// directory so that editors which save by rename are seen too.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
	onError  func(error)

	mu      sync.Mutex
	files   map[string]func() error
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

// NewWatcher creates a Watcher. onError receives watch and reload
// errors and may be nil. A non-positive debounce selects
// DefaultWatchDebounce.
func NewWatcher(debounce time.Duration, onError func(error)) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultWatchDebounce
	}
	return &Watcher{
		watcher:  fw,
		debounce: debounce,
		onError:  onError,
		files:    make(map[string]func() error),
	}, nil
}

// Add calls reload after path is written, created or renamed into
// place. Add must be called before Start.
func (w *Watcher) Add(path string, reload func() error) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(abs), err)
	}
	w.mu.Lock()
	w.files[abs] = reload
	w.mu.Unlock()
	return nil
}

// Start runs the event loop in a goroutine. Calling Start on a running
// Watcher does nothing.
func (w *Watcher) Start() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running {
		return
	}
	w.running = true
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.loop(w.stopCh, w.doneCh)
}

// Stop ends the event loop and waits for it.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	stopCh, doneCh := w.stopCh, w.doneCh
	w.mu.Unlock()

	close(stopCh)
	<-doneCh
}

// Close stops the Watcher and releases the underlying fsnotify watcher.
func (w *Watcher) Close() error {
	w.Stop()
	return w.watcher.Close()
}

func (w *Watcher) loop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	pending := make(map[string]bool)
	var timer *time.Timer
	var timerCh <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-stopCh:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			w.mu.Lock()
			_, watched := w.files[abs]
			w.mu.Unlock()
			if !watched {
				continue
			}

			pending[abs] = true
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(w.debounce)
			timerCh = timer.C

		case <-timerCh:
			timer, timerCh = nil, nil
			for path := range pending {
				w.mu.Lock()
				reload := w.files[path]
				w.mu.Unlock()
				if err := reload(); err != nil {
					w.report(fmt.Errorf("reloading %s: %w", path, err))
				}
			}
			clear(pending)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.report(err)
		}
	}
}

func (w *Watcher) report(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
