package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func startWatcher(t *testing.T, dir string) *Watcher {
	t.Helper()
	w, err := New([]string{dir}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	t.Cleanup(w.Stop)
	return w
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func awaitReload(t *testing.T, w *Watcher, timeout time.Duration) bool {
	t.Helper()
	select {
	case <-w.Reloads():
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestBurstOfWritesProducesOneReload(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	w, err := New([]string{dir}, 100*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	for i := 0; i < 5; i++ {
		writeFile(t, filepath.Join(dir, "base.yml"), "matches: []")
		time.Sleep(10 * time.Millisecond)
	}

	require.True(t, awaitReload(t, w, 2*time.Second), "expected a reload after the burst settled")

	// The burst must coalesce: no second signal arrives.
	assert.False(t, awaitReload(t, w, 300*time.Millisecond), "burst produced more than one reload")
}

func TestIrrelevantFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	writeFile(t, filepath.Join(dir, "notes.txt"), "not a match file")
	writeFile(t, filepath.Join(dir, ".hidden.yml"), "matches: []")

	assert.False(t, awaitReload(t, w, 500*time.Millisecond), "irrelevant files must not trigger reloads")
}

func TestNewSubdirectoryIsWatched(t *testing.T) {
	dir := t.TempDir()
	w := startWatcher(t, dir)

	sub := filepath.Join(dir, "packages")
	require.NoError(t, os.Mkdir(sub, 0755))

	// Give the watcher a moment to pick up the new directory.
	time.Sleep(100 * time.Millisecond)
	writeFile(t, filepath.Join(sub, "pkg.yaml"), "matches: []")

	assert.True(t, awaitReload(t, w, 2*time.Second), "changes in new subdirectories must trigger reloads")
}

func TestStopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]string{dir}, 50*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}

func TestRelevant(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"base.yml", true},
		{"base.yaml", true},
		{"BASE.YML", true},
		{"base.txt", false},
		{".hidden.yml", false},
		{"dir/nested.yaml", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, relevant(tt.path))
		})
	}
}
