package watch_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"notesort/internal/watch"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherLifecycle(t *testing.T) {
	w, err := watch.New(20 * time.Millisecond)
	require.NoError(t, err)

	assert.False(t, w.IsRunning())
	require.NoError(t, w.Start())
	assert.True(t, w.IsRunning())

	err = w.Start()
	assert.Error(t, err, "double start must be rejected")

	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop() // second stop is a no-op
}

func TestAddDirectory(t *testing.T) {
	w, err := watch.New(20 * time.Millisecond)
	require.NoError(t, err)
	defer w.Stop()

	tmp := t.TempDir()
	require.NoError(t, w.AddDirectory(tmp))
	assert.Equal(t, []string{tmp}, w.Directories())

	// Adding the same directory twice does not duplicate it.
	require.NoError(t, w.AddDirectory(tmp))
	assert.Len(t, w.Directories(), 1)

	assert.Error(t, w.AddDirectory(filepath.Join(tmp, "missing")))

	file := filepath.Join(tmp, "a.md")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	assert.Error(t, w.AddDirectory(file), "files cannot be watched as directories")
}

func TestWatcherDeliversWriteEvents(t *testing.T) {
	tmp := t.TempDir()

	w, err := watch.New(20 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tmp))
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(tmp, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("---\ntype: x\n---\n"), 0644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, path, ev.Path)
		require.NotNil(t, ev.Info)
		assert.False(t, ev.Info.IsDir())
		assert.WithinDuration(t, time.Now(), ev.Timestamp, 5*time.Second)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}
}

func TestWatcherDebouncesBursts(t *testing.T) {
	tmp := t.TempDir()

	w, err := watch.New(100 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tmp))
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(tmp, "burst.md")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("tick"), 0644))
		time.Sleep(10 * time.Millisecond)
	}

	// The burst collapses into one event...
	select {
	case ev := <-w.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event delivered")
	}

	// ...and no second one trails it.
	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("unexpected extra event for %s", ev.Path)
		}
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherAddsNewDirectories(t *testing.T) {
	tmp := t.TempDir()

	w, err := watch.New(20 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tmp))
	require.NoError(t, w.Start())
	defer w.Stop()

	sub := filepath.Join(tmp, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if len(w.Directories()) == 2 {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	require.Contains(t, w.Directories(), sub, "new folder was never registered")

	path := filepath.Join(sub, "note.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	select {
	case ev := <-w.Events():
		assert.Equal(t, path, ev.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no event for a note inside the new folder")
	}

	t.Run("hidden folders stay unwatched", func(t *testing.T) {
		hidden := filepath.Join(tmp, ".cache")
		require.NoError(t, os.Mkdir(hidden, 0755))
		time.Sleep(200 * time.Millisecond)
		assert.NotContains(t, w.Directories(), hidden)
	})
}

func TestWatcherSkipsDeletedFiles(t *testing.T) {
	tmp := t.TempDir()

	w, err := watch.New(50 * time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.AddDirectory(tmp))
	require.NoError(t, w.Start())
	defer w.Stop()

	path := filepath.Join(tmp, "gone.md")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))
	require.NoError(t, os.Remove(path))

	select {
	case ev, ok := <-w.Events():
		if ok {
			t.Fatalf("event for a deleted file: %s", ev.Path)
		}
	case <-time.After(300 * time.Millisecond):
	}
}
