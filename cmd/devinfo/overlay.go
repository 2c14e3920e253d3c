package main

import (
	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/overlay"
)

func (a *app) overlayCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overlay",
		Short: "Show the floating CPU, RAM and battery window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dev, err := a.device(ctx)
			if err != nil {
				return err
			}
			prefs, err := a.preferences()
			if err != nil {
				return err
			}
			notifier := notify.Auto(dev.Source, dev.Props, a.logger, a.metrics)
			defer notifier.Close()

			cfg := overlay.DefaultConfig()
			cfg.X, cfg.Y = a.cfg.Overlay.X, a.cfg.Overlay.Y
			cfg.RefreshInterval = prefs.Values().RefreshInterval()
			return overlay.New(cfg, overlay.NewDeviceStats(dev), notifier, a.logger).Run(ctx)
		},
	}
}
