package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/tui"
)

func (a *app) infoCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "info <tab>",
		Short:     "Print one information tab as text",
		Long:      "Print one of the dashboard, system, hardware, battery, network or camera tabs.",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"dashboard", "system", "hardware", "battery", "network", "camera"},
		RunE: func(cmd *cobra.Command, args []string) error {
			tab, ok := tui.ParseTab(args[0])
			if !ok {
				return fmt.Errorf("unknown tab %q", args[0])
			}
			switch tab {
			case tui.TabSensors:
				return fmt.Errorf("use the sensors command for sensor readings")
			case tui.TabApps:
				return fmt.Errorf("use the apps command for installed apps")
			}

			provider, err := a.provider(cmd.Context(), false)
			if err != nil {
				return err
			}
			sections, err := tui.TabSections(cmd.Context(), provider, tab)
			if err != nil {
				// Failed readings already show as placeholders.
				a.logger.Debug("some readings failed", "error", err)
			}
			_, err = io.WriteString(a.stdout, tui.Plain(sections))
			return err
		},
	}
}
