package watch_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"notesort/internal/config"
	"notesort/internal/watch"
	"notesort/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func daemonConfig(root string) *config.Config {
	cfg := config.New()
	cfg.Root = root
	cfg.DebounceMs = 20
	cfg.Rules = []types.Rule{{
		ID:      "journal",
		Enabled: true,
		Conditions: []types.Condition{
			{Field: "type", Value: "journal", Match: types.MatchExact},
		},
		Operator:     types.OperatorAnd,
		Target:       "Journal",
		CreateFolder: true,
	}}
	return cfg
}

// resultCollector records callback results for assertion across goroutines.
type resultCollector struct {
	mu      sync.Mutex
	results []types.MoveResult
}

func (c *resultCollector) add(res types.MoveResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.results = append(c.results, res)
}

func (c *resultCollector) moved() []types.MoveResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []types.MoveResult
	for _, r := range c.results {
		if r.Moved {
			out = append(out, r)
		}
	}
	return out
}

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestDaemonLifecycle(t *testing.T) {
	tmp := t.TempDir()
	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)

	require.NoError(t, d.Start())
	assert.True(t, d.Status().Running)
	assert.Error(t, d.Start(), "double start must be rejected")

	d.Stop()
	assert.False(t, d.Status().Running)
	d.Stop() // second stop is a no-op
}

func TestDaemonRequiresATrigger(t *testing.T) {
	cfg := daemonConfig(t.TempDir())
	cfg.Triggers.OnSave = false
	cfg.Triggers.OnInterval = false

	d, err := watch.NewDaemon(cfg)
	require.NoError(t, err)
	assert.Error(t, d.Start())
}

func TestDaemonFilesSavedNotes(t *testing.T) {
	tmp := t.TempDir()
	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)

	collector := &resultCollector{}
	d.SetCallback(collector.add)

	require.NoError(t, d.Start())
	defer d.Stop()

	path := filepath.Join(tmp, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntype: journal\n---\n"), 0644))

	waitFor(t, func() bool { return len(collector.moved()) == 1 },
		"note was never filed")

	moved := collector.moved()[0]
	assert.Equal(t, path, moved.Source)
	assert.Equal(t, filepath.Join(tmp, "Journal", "note.md"), moved.Destination)
	_, err = os.Stat(moved.Destination)
	assert.NoError(t, err)
	_, err = os.Stat(path)
	assert.ErrorIs(t, err, os.ErrNotExist)

	status := d.Status()
	assert.GreaterOrEqual(t, status.FilesProcessed, 1)
	assert.Equal(t, 1, status.FilesMoved)
}

func TestDaemonFollowsNewFolders(t *testing.T) {
	tmp := t.TempDir()
	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)

	collector := &resultCollector{}
	d.SetCallback(collector.add)

	require.NoError(t, d.Start())
	defer d.Stop()

	// A folder created after Start — the engine does this itself when a
	// rule's target does not exist yet.
	inbox := filepath.Join(tmp, "inbox")
	require.NoError(t, os.Mkdir(inbox, 0755))
	waitFor(t, func() bool {
		for _, dir := range d.Status().WatchDirectories {
			if dir == inbox {
				return true
			}
		}
		return false
	}, "new folder was never watched")

	path := filepath.Join(inbox, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntype: journal\n---\n"), 0644))

	waitFor(t, func() bool { return len(collector.moved()) == 1 },
		"note saved in the new folder was never filed")
	assert.Equal(t, filepath.Join(tmp, "Journal", "note.md"),
		collector.moved()[0].Destination)
}

func TestDaemonIgnoresNonCandidates(t *testing.T) {
	tmp := t.TempDir()
	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)

	collector := &resultCollector{}
	d.SetCallback(collector.add)

	require.NoError(t, d.Start())
	defer d.Stop()

	// Not a note: the scan patterns only include *.md.
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "data.txt"),
		[]byte("---\ntype: journal\n---\n"), 0644))

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, collector.moved())
}

func TestDaemonDryRun(t *testing.T) {
	tmp := t.TempDir()
	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)
	d.SetDryRun(true)

	collector := &resultCollector{}
	d.SetCallback(collector.add)

	require.NoError(t, d.Start())
	defer d.Stop()

	path := filepath.Join(tmp, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntype: journal\n---\n"), 0644))

	waitFor(t, func() bool {
		collector.mu.Lock()
		defer collector.mu.Unlock()
		return len(collector.results) > 0
	}, "note was never processed")

	assert.Empty(t, collector.moved())
	_, err = os.Stat(path)
	assert.NoError(t, err, "dry run must leave the note in place")
}

func TestScanAll(t *testing.T) {
	tmp := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "a.md"),
		[]byte("---\ntype: journal\n---\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "b.md"),
		[]byte("---\ntype: recipe\n---\n"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(tmp, "sub"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(tmp, "sub", "c.md"),
		[]byte("---\ntype: journal\n---\n"), 0644))

	d, err := watch.NewDaemon(daemonConfig(tmp))
	require.NoError(t, err)

	moved := d.ScanAll()
	assert.Equal(t, 2, moved)

	_, err = os.Stat(filepath.Join(tmp, "Journal", "a.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmp, "Journal", "c.md"))
	assert.NoError(t, err)
	_, err = os.Stat(filepath.Join(tmp, "b.md"))
	assert.NoError(t, err, "unmatched note stays put")
}
