package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func waitReload(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		require.Equal(t, want, got)
	case <-time.After(5 * time.Second):
		t.Fatalf("no reload of %s", want)
	}
}

func TestWatcherReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	cfgPath := writeFile(t, dir, "devinfo.yaml", "log:\n  level: info\n")
	prefPath := writeFile(t, dir, "preferences.yaml", "theme: dark\n")

	w, err := NewWatcher(50*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	reloads := make(chan string, 8)
	require.NoError(t, w.Add(cfgPath, func() error { reloads <- "config"; return nil }))
	require.NoError(t, w.Add(prefPath, func() error { reloads <- "prefs"; return nil }))
	w.Start()
	w.Start()

	writeFile(t, dir, "devinfo.yaml", "log:\n  level: debug\n")
	waitReload(t, reloads, "config")

	writeFile(t, dir, "preferences.yaml", "theme: light\n")
	waitReload(t, reloads, "prefs")

	writeFile(t, dir, "unrelated.txt", "x")
	select {
	case got := <-reloads:
		t.Fatalf("unexpected reload %s", got)
	case <-time.After(100 * time.Millisecond):
	}
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "devinfo.yaml", "")

	w, err := NewWatcher(200*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()

	reloads := make(chan string, 8)
	require.NoError(t, w.Add(path, func() error { reloads <- "config"; return nil }))
	w.Start()

	for i := 0; i < 5; i++ {
		writeFile(t, dir, "devinfo.yaml", "log:\n  level: debug\n")
	}
	waitReload(t, reloads, "config")

	select {
	case <-reloads:
		t.Fatal("burst of writes reloaded more than once")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestWatcherReportsReloadErrors(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "devinfo.yaml", "")

	errs := make(chan error, 1)
	w, err := NewWatcher(10*time.Millisecond, func(err error) {
		select {
		case errs <- err:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	boom := errors.New("boom")
	require.NoError(t, w.Add(path, func() error { return boom }))
	w.Start()

	writeFile(t, dir, "devinfo.yaml", "x")
	select {
	case err := <-errs:
		require.ErrorIs(t, err, boom)
		require.Contains(t, err.Error(), filepath.Base(path))
	case <-time.After(5 * time.Second):
		t.Fatal("reload error not reported")
	}
}

func TestWatcherStopRestart(t *testing.T) {
	w, err := NewWatcher(0, nil)
	require.NoError(t, err)
	require.Equal(t, DefaultWatchDebounce, w.debounce)

	w.Stop()
	w.Start()
	w.Stop()
	w.Start()
	require.NoError(t, w.Close())
}
