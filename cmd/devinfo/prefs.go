package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/config"
)

func (a *app) prefsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prefs",
		Short: "Show or change preferences",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.printPrefs(config.PreferenceKeys...)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:       "get <key>",
			Short:     "Print one preference",
			Args:      cobra.ExactArgs(1),
			ValidArgs: config.PreferenceKeys,
			RunE: func(cmd *cobra.Command, args []string) error {
				prefs, err := a.preferences()
				if err != nil {
					return err
				}
				v, err := prefs.Get(args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, v)
				return nil
			},
		},
		&cobra.Command{
			Use:       "set <key> <value>",
			Short:     "Change and save a preference",
			Args:      cobra.ExactArgs(2),
			ValidArgs: config.PreferenceKeys,
			RunE: func(cmd *cobra.Command, args []string) error {
				prefs, err := a.preferences()
				if err != nil {
					return err
				}
				if err := prefs.Set(args[0], args[1]); err != nil {
					return err
				}
				return prefs.Save()
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the preferences file path",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				prefs, err := a.preferences()
				if err != nil {
					return err
				}
				fmt.Fprintln(a.stdout, prefs.Path())
				return nil
			},
		},
	)
	return cmd
}

func (a *app) printPrefs(keys ...string) error {
	prefs, err := a.preferences()
	if err != nil {
		return err
	}
	for _, k := range keys {
		v, err := prefs.Get(k)
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "%s = %s\n", k, v)
	}
	return nil
}
