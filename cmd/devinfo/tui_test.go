package main

import (
	"context"
	"io"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opd-ai/go-devinfo/internal/config"
	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/tui"
)

func newLivePreferences(t *testing.T, ctx context.Context) (*livePreferences, *config.Preferences) {
	t.Helper()
	a := newApp(io.Discard, io.Discard)
	a.sysroot = sysroot(t)
	a.cfg = config.Default()
	dev, err := a.device(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.close() })

	prefs, err := config.OpenPreferences(filepath.Join(t.TempDir(), "devinfo", "preferences.yaml"))
	require.NoError(t, err)
	live := &livePreferences{
		app:     a,
		prefs:   prefs,
		battery: &batteryMonitor{app: a, dev: dev, notifier: notify.NewLogNotifier(a.logger)},
		updates: make(chan tui.Preferences, 1),
	}
	t.Cleanup(live.battery.stop)

	// A second handle on the same file stands in for `devinfo prefs set`.
	writer, err := config.OpenPreferences(prefs.Path())
	require.NoError(t, err)
	return live, writer
}

func save(t *testing.T, p *config.Preferences, kv ...string) {
	t.Helper()
	for i := 0; i < len(kv); i += 2 {
		require.NoError(t, p.Set(kv[i], kv[i+1]))
	}
	require.NoError(t, p.Save())
}

func TestLivePreferencesReload(t *testing.T) {
	ctx := context.Background()
	live, writer := newLivePreferences(t, ctx)

	require.NoError(t, live.apply(ctx, live.prefs.Values()))
	assert.False(t, live.battery.running())

	save(t, writer, config.KeyTheme, "dark", config.KeyRefreshInterval, "250", config.KeyBatteryMonitor, "true")
	require.NoError(t, live.reload(ctx))
	assert.True(t, live.battery.running())
	assert.Equal(t, tui.Preferences{Theme: "dark", DashboardInterval: 250 * time.Millisecond}, <-live.updates,
		"only the latest update is queued")

	save(t, writer, config.KeyBatteryMonitor, "false")
	require.NoError(t, live.reload(ctx))
	assert.False(t, live.battery.running())
}

func TestLivePreferencesConfigIntervalWins(t *testing.T) {
	ctx := context.Background()
	live, writer := newLivePreferences(t, ctx)
	live.app.cfg.Dashboard.Interval = 3 * time.Second

	save(t, writer, config.KeyRefreshInterval, "500")
	require.NoError(t, live.reload(ctx))
	assert.Equal(t, 3*time.Second, (<-live.updates).DashboardInterval)
}

func TestLivePreferencesWatch(t *testing.T) {
	ctx := context.Background()
	live, writer := newLivePreferences(t, ctx)

	w, err := config.NewWatcher(20*time.Millisecond, nil)
	require.NoError(t, err)
	defer w.Close()
	require.NoError(t, live.watch(ctx, w))
	w.Start()

	save(t, writer, config.KeyBatteryMonitor, "true", config.KeyTheme, "light")
	require.Eventually(t, live.battery.running, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, "light", (<-live.updates).Theme)
}
