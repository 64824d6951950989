package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"notesort/internal/config"
	"notesort/internal/log"
	"notesort/internal/organize"
	"notesort/pkg/types"
)

// DaemonStatus represents the current status of the daemon.
type DaemonStatus struct {
	Running          bool
	WatchDirectories []string
	LastActivity     time.Time
	FilesProcessed   int
	FilesMoved       int
}

// Daemon runs the filing pipeline in the background: debounced save
// events from the watcher, plus an optional fixed-interval rescan of
// the whole vault. Events are consumed one at a time; overlapping
// triggers on the same note are tolerated because the engine's
// already-at-destination check makes the second invocation a no-op.
type Daemon struct {
	cfg     *config.Config
	watcher *Watcher
	engine  *organize.Engine

	processed    int
	moved        int
	lastActivity time.Time

	// Callback invoked after each processed note.
	callback func(types.MoveResult)

	mutex   sync.RWMutex
	running bool

	intervalStop chan struct{}
	wg           sync.WaitGroup
}

// NewDaemon creates a background filing service for the configured vault.
func NewDaemon(cfg *config.Config) (*Daemon, error) {
	watcher, err := New(time.Duration(cfg.DebounceMs) * time.Millisecond)
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher for daemon: %w", err)
	}
	return &Daemon{
		cfg:          cfg,
		watcher:      watcher,
		engine:       organize.NewWithConfig(cfg),
		lastActivity: time.Now(),
	}, nil
}

// SetCallback sets a function to be called after each processed note.
func (d *Daemon) SetCallback(cb func(types.MoveResult)) {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	d.callback = cb
}

// SetDryRun sets whether to run in dry run mode.
func (d *Daemon) SetDryRun(dryRun bool) {
	d.engine.SetDryRun(dryRun)
}

// Start initiates the daemon: the save watcher when the save trigger is
// enabled, and the interval rescan when the interval trigger is.
func (d *Daemon) Start() error {
	d.mutex.Lock()
	if d.running {
		d.mutex.Unlock()
		return fmt.Errorf("daemon is already running")
	}
	d.running = true
	d.mutex.Unlock()

	if d.cfg.Triggers.OnSave {
		if err := d.watchTree(d.engine.Root()); err != nil {
			d.mutex.Lock()
			d.running = false
			d.mutex.Unlock()
			return err
		}
		if err := d.watcher.Start(); err != nil {
			d.mutex.Lock()
			d.running = false
			d.mutex.Unlock()
			return fmt.Errorf("error starting watcher: %w", err)
		}
		d.wg.Add(1)
		go d.processEvents()
	}

	if d.cfg.Triggers.OnInterval {
		d.intervalStop = make(chan struct{})
		d.wg.Add(1)
		go d.runInterval()
	}

	if !d.cfg.Triggers.OnSave && !d.cfg.Triggers.OnInterval {
		d.mutex.Lock()
		d.running = false
		d.mutex.Unlock()
		return fmt.Errorf("no triggers enabled")
	}
	return nil
}

// Stop halts the daemon. It prevents new scans from starting but does
// not cancel a move already in flight.
func (d *Daemon) Stop() {
	d.mutex.Lock()
	if !d.running {
		d.mutex.Unlock()
		return
	}
	d.running = false
	d.mutex.Unlock()

	if d.cfg.Triggers.OnSave {
		d.watcher.Stop()
	}
	if d.intervalStop != nil {
		close(d.intervalStop)
	}
	d.wg.Wait()
}

// Status returns the current status of the daemon.
func (d *Daemon) Status() DaemonStatus {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return DaemonStatus{
		Running:          d.running,
		WatchDirectories: d.watcher.Directories(),
		LastActivity:     d.lastActivity,
		FilesProcessed:   d.processed,
		FilesMoved:       d.moved,
	}
}

// watchTree registers the root and every folder below it. fsnotify
// watches are not recursive on their own.
func (d *Daemon) watchTree(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Debugf("daemon: skipping %s: %v", path, err)
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := filepath.Base(path)
		if path != root && len(base) > 1 && base[0] == '.' {
			return filepath.SkipDir
		}
		return d.watcher.AddDirectory(path)
	})
}

// processEvents consumes debounced save events sequentially.
func (d *Daemon) processEvents() {
	defer d.wg.Done()
	for event := range d.watcher.Events() {
		if !d.isCandidate(event.Path) {
			continue
		}

		d.mutex.Lock()
		d.lastActivity = event.Timestamp
		d.mutex.Unlock()

		d.handle(d.engine.ProcessFile(event.Path))
	}
}

// runInterval rescans the vault on the configured interval until stopped.
func (d *Daemon) runInterval() {
	defer d.wg.Done()
	ticker := time.NewTicker(time.Duration(d.cfg.Triggers.IntervalMinutes) * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.ScanAll()
		case <-d.intervalStop:
			return
		}
	}
}

// ScanAll runs the pipeline over every candidate note under the vault
// root, strictly sequentially, and returns the moved count. Failures in
// batch mode are logged, not surfaced per note.
func (d *Daemon) ScanAll() int {
	files, err := organize.Collect(d.engine.Root(), d.cfg.Scan)
	if err != nil {
		log.LogWithError(err).Error("interval scan failed")
		return 0
	}

	moved := 0
	for _, path := range files {
		res := d.engine.ProcessFile(path)
		d.handle(res)
		if res.Moved {
			moved++
		}
	}
	return moved
}

// handle updates stats and notifies the callback for one result.
func (d *Daemon) handle(res types.MoveResult) {
	d.mutex.Lock()
	d.processed++
	if res.Moved {
		d.moved++
	}
	cb := d.callback
	d.mutex.Unlock()

	if res.Error != nil {
		log.LogWithError(res.Error).Warn("daemon: note not moved")
	}
	if cb != nil {
		cb(res)
	}
}

// isCandidate applies the scan include/exclude globs to a single path.
func (d *Daemon) isCandidate(path string) bool {
	rel, err := filepath.Rel(d.engine.Root(), path)
	if err != nil {
		return false
	}
	return organize.MatchScan(filepath.ToSlash(rel), d.cfg.Scan)
}
