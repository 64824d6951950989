// Package watch delivers save events for notes and runs the filing
// pipeline on them. The watcher debounces rapid write bursts on the
// same note into a single event; the daemon combines the watcher with
// an optional fixed-interval rescan.
package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"notesort/internal/log"
)

// Event represents a coalesced note modification.
type Event struct {
	Path      string
	Info      os.FileInfo
	Timestamp time.Time
}

// Watcher monitors directories for note changes using fsnotify. Rapid
// repeated writes to the same path within the debounce window collapse
// into one delivered Event.
type Watcher struct {
	directories []string
	events      chan Event
	stopChan    chan struct{}
	fsWatcher   *fsnotify.Watcher
	debounce    time.Duration

	mu      sync.RWMutex
	running bool

	pendingMu sync.Mutex
	pending   map[string]*time.Timer
}

// New creates a watcher with the given debounce window. A zero or
// negative window still defers delivery by a minimal tick so a save
// burst from an editor lands as one event.
func New(debounce time.Duration) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if debounce <= 0 {
		debounce = 10 * time.Millisecond
	}
	return &Watcher{
		directories: []string{},
		events:      make(chan Event, 16),
		stopChan:    make(chan struct{}),
		fsWatcher:   fsWatcher,
		debounce:    debounce,
		pending:     make(map[string]*time.Timer),
	}, nil
}

// AddDirectory adds a directory to watch.
func (w *Watcher) AddDirectory(dir string) error {
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("error accessing directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("failed to add directory %s to watcher: %w", dir, err)
	}

	w.mu.Lock()
	found := false
	for _, existing := range w.directories {
		if existing == dir {
			found = true
			break
		}
	}
	if !found {
		w.directories = append(w.directories, dir)
	}
	w.mu.Unlock()
	log.LogWithFields(log.F("directory", dir)).Info("watching directory")
	return nil
}

// Events returns the channel that delivers debounced note events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins the watching process.
func (w *Watcher) Start() error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return fmt.Errorf("watcher already running")
	}
	w.running = true
	w.stopChan = make(chan struct{})
	w.mu.Unlock()

	go func() {
		log.Debug("watcher event loop started")
		for {
			select {
			case event, ok := <-w.fsWatcher.Events:
				if !ok {
					return
				}
				if event.Op.Has(fsnotify.Create) && w.watchIfDirectory(event.Name) {
					continue
				}
				if event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write) {
					w.schedule(event.Name)
				}

			case err, ok := <-w.fsWatcher.Errors:
				if !ok {
					return
				}
				log.LogWithFields(log.F("error", err)).Error("fsnotify watcher error")

			case <-w.stopChan:
				log.Debug("watcher event loop received stop signal")
				return
			}
		}
	}()

	log.Info("watcher started")
	return nil
}

// watchIfDirectory registers a freshly created folder so notes saved
// inside it keep triggering events; fsnotify watches are not recursive,
// and folders can appear after Start (the engine itself creates rule
// targets on demand). Hidden folders are skipped. Reports whether the
// path was a directory.
func (w *Watcher) watchIfDirectory(path string) bool {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return false
	}
	base := filepath.Base(path)
	if len(base) > 1 && base[0] == '.' {
		return true
	}
	if err := w.AddDirectory(path); err != nil {
		log.LogWithFields(log.F("directory", path), log.F("error", err)).Warn("cannot watch new directory")
	}
	return true
}

// schedule arms (or re-arms) the per-path debounce timer. Each write
// within the window pushes delivery back, so a burst of saves produces
// a single event after the burst ends.
func (w *Watcher) schedule(path string) {
	w.pendingMu.Lock()
	defer w.pendingMu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Reset(w.debounce)
		return
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.deliver(path)
	})
}

func (w *Watcher) deliver(path string) {
	w.pendingMu.Lock()
	delete(w.pending, path)
	w.pendingMu.Unlock()

	// The note may be gone by the time the window closes.
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return
	}

	// Holding the read lock keeps Stop from closing the channel
	// between the running check and the send.
	w.mu.RLock()
	defer w.mu.RUnlock()
	if !w.running {
		return
	}

	select {
	case w.events <- Event{Path: path, Info: info, Timestamp: time.Now()}:
	default:
		log.LogWithFields(log.F("file", path)).Warn("event channel is full, dropped event")
	}
}

// Stop halts the watching process and cancels pending debounce timers.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.running {
		return
	}
	w.running = false

	close(w.stopChan)
	if err := w.fsWatcher.Close(); err != nil {
		log.LogWithFields(log.F("error", err)).Error("error closing fsnotify watcher")
	}

	w.pendingMu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.pendingMu.Unlock()

	close(w.events)
	log.Info("watcher stopped")
}

// IsRunning returns whether the watcher is currently active.
func (w *Watcher) IsRunning() bool {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.running
}

// Directories returns the list of directories being watched.
func (w *Watcher) Directories() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make([]string, len(w.directories))
	copy(out, w.directories)
	return out
}
