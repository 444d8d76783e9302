package cmd

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

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestDictionaryWatcher(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "dict.yaml", snapshot)

	w, err := newDictionaryWatcher(path)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runs := make(chan struct{}, 8)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, discard(), 10*time.Millisecond, func() error {
			runs <- struct{}{}
			return nil
		})
	}()

	writeFile(t, dir, "other.yaml", snapshot)
	time.Sleep(100 * time.Millisecond)
	assert.Empty(t, runs, "unrelated file triggered regeneration")

	require.NoError(t, os.WriteFile(path, []byte(snapshot+"\n"), 0o644))
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("no regeneration after dictionary write")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestGenerateWatch(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "gen")
	g := &Generate{
		Dictionary: writeFile(t, dir, "dict.yaml", snapshot),
		Output:     out,
		Artifact:   "types",
		Endian:     "BE",
		Debounce:   10 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.watch(ctx, discard()) }()

	require.Eventually(t, func() bool {
		_, err := os.Stat(filepath.Join(out, "sc_types.h"))
		return err == nil
	}, 5*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watch did not stop")
	}
}

func TestNewDictionaryWatcherMissingDir(t *testing.T) {
	_, err := newDictionaryWatcher(filepath.Join(t.TempDir(), "nope", "dict.yaml"))
	assert.ErrorContains(t, err, "watch ")
}
