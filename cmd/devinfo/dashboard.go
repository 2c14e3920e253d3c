package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/tui"
)

func (a *app) dashboardCmd() *cobra.Command {
	var count int
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Print dashboard snapshots every refresh interval",
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
			dash := monitor.NewDashboard(dev, a.dashboardConfig(dev, prefs.Values()))
			snaps := dash.Subscribe()
			if err := dash.Start(ctx); err != nil {
				return err
			}
			defer dash.Stop()

			for printed := 0; count <= 0 || printed < count; printed++ {
				select {
				case snap, ok := <-snaps:
					if !ok {
						return nil
					}
					if err := a.printSnapshot(snap, printed > 0); err != nil {
						return err
					}
				case <-ctx.Done():
					return nil
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&count, "count", "n", 0, "stop after this many snapshots (0 runs until interrupted)")
	return cmd
}

func (a *app) printSnapshot(snap monitor.Snapshot, separate bool) error {
	if separate {
		if _, err := io.WriteString(a.stdout, "\n"); err != nil {
			return err
		}
	}
	if snap.Err != nil {
		a.logger.Debug("dashboard update incomplete", "error", snap.Err)
	}
	_, err := fmt.Fprintf(a.stdout, "-- %s --\n%s", snap.Time.Format(time.TimeOnly), tui.Plain(tui.SnapshotSections(snap)))
	return err
}
