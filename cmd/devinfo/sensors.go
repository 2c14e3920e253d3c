package main

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/sensors"
	"github.com/opd-ai/go-devinfo/internal/tui"
)

func (a *app) sensorsCmd() *cobra.Command {
	var watch bool
	cmd := &cobra.Command{
		Use:   "sensors",
		Short: "List sensors with their current values",
		Long: "List sensors with their current values. With --watch, sensors whose " +
			"display changed are printed every refresh interval until interrupted.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			dev, err := a.device(ctx)
			if err != nil {
				return err
			}
			backend := sensors.NewBackend(dev.Source, dev.Props)
			list, err := backend.List(ctx)
			if err != nil {
				return err
			}
			sampler := sensors.NewSampler(backend, list, a.cfg.Sensors.SampleInterval, a.logger)
			if err := sampler.Sample(ctx); err != nil {
				a.logger.Warn("sensor sample failed", "error", err)
			}
			throttle := sensors.NewThrottle(sampler)
			// Prime the change hashes so --watch only prints later changes.
			throttle.Changed()
			if err := a.printSensors(throttle.Current()); err != nil || !watch || len(list) == 0 {
				return err
			}

			if err := sampler.Start(ctx); err != nil {
				return err
			}
			defer sampler.Stop()
			var printErr error
			throttle.Run(ctx, a.cfg.Sensors.RefreshInterval, func(changed []sensors.Reading) {
				if printErr == nil {
					_, printErr = io.WriteString(a.stdout, "\n")
				}
				if printErr == nil {
					printErr = a.printSensors(changed)
				}
			})
			return printErr
		},
	}
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "keep printing changed sensors")
	return cmd
}

func (a *app) printSensors(readings []sensors.Reading) error {
	_, err := io.WriteString(a.stdout, tui.Plain(tui.SensorSections(readings)))
	return err
}
