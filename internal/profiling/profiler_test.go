package profiling

import (
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigEnabled(t *testing.T) {
	assert.False(t, Config{}.Enabled())
	assert.True(t, Config{CPUProfilePath: "cpu.prof"}.Enabled())
	assert.True(t, Config{MemProfilePath: "mem.prof"}.Enabled())
}

func TestSessionWritesProfiles(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{
		CPUProfilePath: filepath.Join(dir, "cpu.prof"),
		MemProfilePath: filepath.Join(dir, "mem.prof"),
	}
	s, err := Start(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Stop())

	for _, path := range []string{cfg.CPUProfilePath, cfg.MemProfilePath} {
		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), path)
	}
	assert.ErrorIs(t, s.Stop(), ErrNotRunning)
}

func TestSessionWithoutProfiles(t *testing.T) {
	s, err := Start(Config{})
	require.NoError(t, err)
	assert.NoError(t, s.Stop())
}

func TestStartInvalidPath(t *testing.T) {
	_, err := Start(Config{CPUProfilePath: filepath.Join(t.TempDir(), "missing", "cpu.prof")})
	assert.Error(t, err)
}

func TestStopReportsHeapError(t *testing.T) {
	s, err := Start(Config{MemProfilePath: filepath.Join(t.TempDir(), "missing", "mem.prof")})
	require.NoError(t, err)
	assert.Error(t, s.Stop())
}

func TestDebugServer(t *testing.T) {
	srv, err := ListenDebug("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, nil) }()

	resp, err := http.Get("http://" + srv.Addr() + "/debug/vars")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "memstats")

	cancel()
	assert.NoError(t, <-done)
}
