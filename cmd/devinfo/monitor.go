package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/opd-ai/go-devinfo/internal/batterymon"
	"github.com/opd-ai/go-devinfo/internal/config"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/notify"
)

func (a *app) monitorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "monitor",
		Short: "Run the battery monitor until interrupted",
		Long: "Run the battery monitor until interrupted. The battery rules are " +
			"reloaded when the config file changes or on SIGHUP.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dev, err := a.device(ctx)
			if err != nil {
				return err
			}
			bm := &batteryMonitor{
				app:      a,
				dev:      dev,
				notifier: notify.Auto(dev.Source, dev.Props, a.logger, a.metrics),
				flags:    cmd.Flags(),
			}
			defer bm.notifier.Close()
			if err := bm.start(ctx, a.cfg.Battery); err != nil {
				return err
			}
			defer bm.stop()

			if a.configPath != "" {
				w, err := config.NewWatcher(config.DefaultWatchDebounce, func(err error) {
					a.logger.Warn("config reload failed", "error", err)
				})
				if err != nil {
					return err
				}
				defer w.Close()
				if err := w.Add(a.configPath, bm.reload); err != nil {
					return err
				}
				w.Start()
				defer w.Stop()
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-hup:
					if err := bm.reload(); err != nil {
						a.logger.Warn("config reload failed", "error", err)
					}
				}
			}
		},
	}
}

// batteryMonitor restarts the battery service with new rules on reload.
type batteryMonitor struct {
	app      *app
	dev      *monitor.Device
	notifier notify.Notifier
	flags    *pflag.FlagSet

	mu  sync.Mutex
	ctx context.Context
	svc *batterymon.Service
}

func (m *batteryMonitor) start(ctx context.Context, cfg config.BatteryConfig) error {
	svc, err := m.newService(cfg)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return err
	}
	m.mu.Lock()
	m.ctx, m.svc = ctx, svc
	m.mu.Unlock()
	return nil
}

func (m *batteryMonitor) newService(cfg config.BatteryConfig) (*batterymon.Service, error) {
	return batterymon.New(m.dev, m.notifier, batterymon.Config{
		PollInterval: cfg.PollInterval,
		Rules:        cfg.Rules,
		Logger:       m.app.logger,
		Metrics:      m.app.metrics,
	})
}

// reload reads the config file again. An invalid file keeps the running
// service.
func (m *batteryMonitor) reload() error {
	cfg, err := config.Load(m.app.configPath, m.flags)
	if err != nil {
		return err
	}
	svc, err := m.newService(cfg.Battery)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.svc != nil {
		m.svc.Stop()
	}
	if err := svc.Start(m.ctx); err != nil {
		m.svc = nil
		return err
	}
	m.svc = svc
	m.app.metrics.IncrementConfigReloads()
	m.app.logger.Info("battery rules reloaded", "rules", len(cfg.Battery.Rules), "poll_interval", cfg.Battery.PollInterval)
	return nil
}

func (m *batteryMonitor) running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.svc != nil
}

func (m *batteryMonitor) stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.svc != nil {
		m.svc.Stop()
		m.svc = nil
	}
}
