package runner

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcherRegeneratesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "watched.c", generated("one"))
	other := writeFile(t, dir, "other.c", doc("other"))

	r := newRunner(t, Options{Replace: true})
	w, err := NewWatcher(r, []string{path})
	require.NoError(t, err)
	w.debouncePeriod = 20 * time.Millisecond

	results := make(chan FileResult, 8)
	w.OnResult(func(fr FileResult) { results <- fr })

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Unwatched files in the same directory are ignored
	require.NoError(t, os.WriteFile(other, []byte(doc("changed")), 0o644))
	require.NoError(t, os.WriteFile(path, []byte(doc("two")), 0o644))

	select {
	case fr := <-results:
		require.NoError(t, fr.Err)
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, fr.Path)
		assert.True(t, fr.Changed)
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration after change")
	}

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, generated("two"), readFile(t, path))
	assert.Equal(t, doc("changed"), readFile(t, other))
}

func TestWatcherOwnWriteIsIgnored(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "self.c", generated("x"))

	r := newRunner(t, Options{Replace: true})
	w, err := NewWatcher(r, []string{path})
	require.NoError(t, err)
	defer w.Stop()

	abs, err := filepath.Abs(path)
	require.NoError(t, err)

	require.NoError(t, r.write(path, doc("y")))
	assert.True(t, w.checkOwnWrite(abs))
	assert.False(t, w.checkOwnWrite(abs), "flag is cleared once seen")
}

func TestWatcherStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "a.c", doc("a"))

	w, err := NewWatcher(newRunner(t, Options{Replace: true}), []string{path})
	require.NoError(t, err)

	w.schedule(context.Background(), path)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop())

	// A stopped watcher schedules nothing
	w.schedule(context.Background(), path)
	assert.Len(t, w.timers, 1)
}
