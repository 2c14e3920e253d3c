package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/config"
	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/tui"
)

func (a *app) tuiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tui [tab]",
		Short: "Open the tabbed terminal UI",
		Long:  "Open the tabbed terminal UI, optionally on one of: " + tabNames() + ".",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := tui.TabDashboard
			if len(args) == 1 {
				t, ok := tui.ParseTab(args[0])
				if !ok {
					return fmt.Errorf("unknown tab %q (want one of %s)", args[0], tabNames())
				}
				start = t
			}
			return a.runTUI(cmd.Context(), start)
		},
	}
}

// runTUI runs the terminal UI. With the battery_monitor preference set,
// the battery monitor runs alongside it. Saved preference changes apply
// to the running UI and monitor.
func (a *app) runTUI(ctx context.Context, start tui.Tab) error {
	provider, err := a.provider(ctx, true)
	if err != nil {
		return err
	}
	prefs, err := a.preferences()
	if err != nil {
		return err
	}

	n := notify.Auto(a.dev.Source, a.dev.Props, a.logger, a.metrics)
	defer n.Close()
	live := &livePreferences{
		app:     a,
		prefs:   prefs,
		battery: &batteryMonitor{app: a, dev: a.dev, notifier: n},
		updates: make(chan tui.Preferences, 1),
	}
	if err := live.apply(ctx, prefs.Values()); err != nil {
		return err
	}
	defer live.battery.stop()

	w, err := config.NewWatcher(config.DefaultWatchDebounce, func(err error) {
		a.logger.Warn("preferences reload failed", "error", err)
	})
	if err != nil {
		return err
	}
	defer w.Close()
	if err := live.watch(ctx, w); err != nil {
		a.logger.Warn("preferences not watched", "path", prefs.Path(), "error", err)
	}
	w.Start()

	return tui.Run(ctx, provider, tui.Options{
		Theme:             prefs.Values().Theme,
		DashboardInterval: provider.Interval(),
		SensorInterval:    a.cfg.Sensors.RefreshInterval,
		Start:             start,
		Logger:            a.logger,
		Preferences:       live.updates,
	})
}

// livePreferences applies reloaded preferences to a running UI and its
// battery monitor.
type livePreferences struct {
	app     *app
	prefs   *config.Preferences
	battery *batteryMonitor
	updates chan tui.Preferences
}

// watch reloads the preferences file when it changes. The directory is
// created so a file saved later is seen.
func (l *livePreferences) watch(ctx context.Context, w *config.Watcher) error {
	path := l.prefs.Path()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return w.Add(path, func() error { return l.reload(ctx) })
}

func (l *livePreferences) reload(ctx context.Context) error {
	if err := l.prefs.Reload(); err != nil {
		return err
	}
	values := l.prefs.Values()
	if err := l.apply(ctx, values); err != nil {
		return err
	}
	l.app.metrics.IncrementConfigReloads()
	l.app.logger.Info("preferences reloaded", "theme", values.Theme,
		"refresh_interval", values.RefreshInterval(), "battery_monitor", values.BatteryMonitor)
	return nil
}

// apply starts or stops the battery monitor and hands the display
// settings to the UI. A pending update not yet read is replaced.
func (l *livePreferences) apply(ctx context.Context, values config.PreferenceValues) error {
	switch running := l.battery.running(); {
	case values.BatteryMonitor && !running:
		if err := l.battery.start(ctx, l.app.cfg.Battery); err != nil {
			return err
		}
	case !values.BatteryMonitor && running:
		l.battery.stop()
	}

	interval := l.app.cfg.Dashboard.Interval
	if interval <= 0 {
		interval = values.RefreshInterval()
	}
	update := tui.Preferences{Theme: values.Theme, DashboardInterval: interval}
	for {
		select {
		case l.updates <- update:
			return nil
		default:
		}
		select {
		case <-l.updates:
		default:
		}
	}
}

func tabNames() string {
	names := make([]string, 0, 8)
	for t := tui.TabDashboard; t <= tui.TabCamera; t++ {
		names = append(names, strings.ToLower(t.String()))
	}
	return strings.Join(names, ", ")
}
