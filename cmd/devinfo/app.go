package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/apps"
	"github.com/opd-ai/go-devinfo/internal/config"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/platform"
	"github.com/opd-ai/go-devinfo/internal/profiling"
	"github.com/opd-ai/go-devinfo/internal/sensors"
	"github.com/opd-ai/go-devinfo/internal/tui"
	"github.com/opd-ai/go-devinfo/pkg/devinfo"
)

// app carries the state shared by every subcommand. setup fills it before
// a command runs; close releases it afterwards.
type app struct {
	stdout io.Writer
	stderr io.Writer

	configPath string
	prefsPath  string
	sysroot    string
	cpuProfile string
	memProfile string

	cfg     config.Config
	logger  devinfo.Logger
	metrics *devinfo.Metrics
	prof    *profiling.Session

	src platform.Source
	dev *monitor.Device

	cancelBg context.CancelFunc
	bg       sync.WaitGroup
	cleanups []func()
}

func newApp(stdout, stderr io.Writer) *app {
	return &app{
		stdout:  stdout,
		stderr:  stderr,
		logger:  devinfo.NopLogger(),
		metrics: devinfo.DefaultMetrics(),
	}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "devinfo",
		Short:         "Device information dashboard, sensors, apps, battery monitor and benchmarks",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runTUI(cmd.Context(), tui.TabDashboard)
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.configPath, "config", "c", "", "config file (.yaml or .lua)")
	pf.StringVar(&a.prefsPath, "prefs", "", "preferences file (default $XDG_CONFIG_HOME/devinfo/preferences.yaml)")
	pf.String("remote", "", "read a remote device over SSH (user@host:port)")
	pf.String("identity", "", "SSH private key for --remote")
	pf.String("known-hosts", "", "known_hosts file for --remote host key verification")
	pf.String("log-level", "", "log level: debug, info, warn, error")
	pf.String("log-format", "", "log format: text, json, zap")
	pf.String("data-path", "", "storage path reported by the dashboard")
	pf.String("external-path", "", "extra path probed for external storage")
	pf.String("debug-addr", "", "serve /debug/vars and /debug/pprof on this address")
	pf.StringVar(&a.cpuProfile, "cpuprofile", "", "write a CPU profile to this file")
	pf.StringVar(&a.memProfile, "memprofile", "", "write a heap profile to this file on exit")
	pf.StringVar(&a.sysroot, "sysroot", "", "read /proc and /sys under this directory")
	_ = pf.MarkHidden("sysroot")

	root.AddCommand(
		a.tuiCmd(),
		a.infoCmd(),
		a.dashboardCmd(),
		a.sensorsCmd(),
		a.appsCmd(),
		a.monitorCmd(),
		a.benchmarkCmd(),
		a.overlayCmd(),
		a.prefsCmd(),
	)
	return root
}

// setup loads the configuration and starts the process-wide services.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath, cmd.Flags())
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	a.cfg, a.logger = cfg, logger

	pcfg := profiling.Config{CPUProfilePath: a.cpuProfile, MemProfilePath: a.memProfile}
	if pcfg.Enabled() {
		if a.prof, err = profiling.Start(pcfg); err != nil {
			return err
		}
	}

	bgCtx, cancel := context.WithCancel(cmd.Context())
	a.cancelBg = cancel
	if cfg.DebugAddr != "" {
		a.metrics.RegisterExpvar()
		srv, err := profiling.ListenDebug(cfg.DebugAddr)
		if err != nil {
			return fmt.Errorf("debug server: %w", err)
		}
		a.bg.Add(1)
		go func() {
			defer a.bg.Done()
			if err := srv.Serve(bgCtx, a.logger); err != nil {
				a.logger.Error("debug server failed", "error", err)
			}
		}()
	}
	return nil
}

// close stops background services, the device source and profiling.
func (a *app) close() error {
	var errs []error
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		a.cleanups[i]()
	}
	a.cleanups = nil
	if a.cancelBg != nil {
		a.cancelBg()
		a.bg.Wait()
	}
	if a.src != nil {
		if err := a.src.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing %s: %w", a.src.Name(), err))
		}
		a.src = nil
	}
	if a.prof != nil {
		if err := a.prof.Stop(); err != nil {
			errs = append(errs, err)
		}
		a.prof = nil
	}
	if s, ok := a.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
	return errors.Join(errs...)
}

func (a *app) onClose(fn func()) {
	a.cleanups = append(a.cleanups, fn)
}

// device opens the configured source once: the remote host when a target
// is set, a fixture tree with --sysroot, otherwise the local host.
func (a *app) device(ctx context.Context) (*monitor.Device, error) {
	if a.dev != nil {
		return a.dev, nil
	}
	switch {
	case a.cfg.Remote.Target != "":
		rc, err := a.cfg.PlatformRemote(a.logger, a.metrics)
		if err != nil {
			return nil, err
		}
		rs, err := platform.NewRemoteSource(rc)
		if err != nil {
			return nil, err
		}
		if err := rs.Connect(ctx); err != nil {
			return nil, err
		}
		a.src = rs
	case a.sysroot != "":
		a.src = platform.NewRootedSource(a.sysroot)
	default:
		a.src = platform.NewLocalSource()
	}
	a.dev = monitor.NewDevice(ctx, a.src)
	a.logger.Debug("device opened", "source", a.src.Name(), "android", a.dev.IsAndroid())
	return a.dev, nil
}

func (a *app) preferences() (*config.Preferences, error) {
	path := a.prefsPath
	if path == "" {
		var err error
		if path, err = config.DefaultPreferencesPath(); err != nil {
			return nil, err
		}
	}
	return config.OpenPreferences(path)
}

// dashboardConfig uses the configured interval, falling back to the
// refresh_interval preference.
func (a *app) dashboardConfig(dev *monitor.Device, prefs config.PreferenceValues) monitor.DashboardConfig {
	interval := a.cfg.Dashboard.Interval
	if interval <= 0 {
		interval = prefs.RefreshInterval()
	}
	cfg := monitor.DashboardConfig{
		Interval:     interval,
		DataPath:     a.cfg.DataPath,
		ExternalPath: a.cfg.ExternalPath,
		Logger:       a.logger,
		Metrics:      a.metrics,
	}
	if platform.IsLocalHost(dev.Source) {
		if links, err := monitor.NewDBusLinkProvider(); err == nil {
			cfg.Links = links
		} else {
			a.logger.Debug("link details unavailable", "error", err)
		}
	}
	return cfg
}

// startSensors discovers the sensors of dev and starts sampling them. The
// sampler is stopped by close.
func (a *app) startSensors(ctx context.Context, dev *monitor.Device) (*sensors.Throttle, error) {
	backend := sensors.NewBackend(dev.Source, dev.Props)
	list, err := backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sensors: %w", err)
	}
	sampler := sensors.NewSampler(backend, list, a.cfg.Sensors.SampleInterval, a.logger)
	if err := sampler.Start(ctx); err != nil {
		return nil, err
	}
	a.onClose(sampler.Stop)
	return sensors.NewThrottle(sampler), nil
}

func (a *app) provider(ctx context.Context, withSensors bool) (*tui.DeviceProvider, error) {
	dev, err := a.device(ctx)
	if err != nil {
		return nil, err
	}
	prefs, err := a.preferences()
	if err != nil {
		return nil, err
	}
	pcfg := tui.DeviceProviderConfig{
		Dashboard: a.dashboardConfig(dev, prefs.Values()),
		Lister:    apps.NewLister(dev.Source, dev.Props),
	}
	if withSensors {
		throttle, err := a.startSensors(ctx, dev)
		if err != nil {
			a.logger.Warn("sensors unavailable", "error", err)
		} else {
			pcfg.Throttle = throttle
		}
	}
	return tui.NewDeviceProvider(dev, pcfg), nil
}
