package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/apps"
	"github.com/opd-ai/go-devinfo/internal/format"
)

func (a *app) appsCmd() *cobra.Command {
	var (
		filterName string
		search     string
	)
	cmd := &cobra.Command{
		Use:   "apps [package]",
		Short: "List installed apps, or show the details of one package",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			filter, err := apps.ParseFilter(filterName)
			if err != nil {
				return err
			}
			dev, err := a.device(ctx)
			if err != nil {
				return err
			}
			lister := apps.NewLister(dev.Source, dev.Props)
			all, err := lister.List(ctx)
			if err != nil {
				return fmt.Errorf("listing apps: %w", err)
			}

			if len(args) == 1 {
				for _, pkg := range all {
					if pkg.PackageName == args[0] {
						full, err := lister.Details(ctx, pkg)
						if err != nil {
							a.logger.Debug("app details incomplete", "package", pkg.PackageName, "error", err)
						}
						return a.printAppDetails(full)
					}
				}
				return fmt.Errorf("package %q not installed", args[0])
			}

			visible := apps.Select(all, filter, search)
			var sb strings.Builder
			fmt.Fprintf(&sb, "Filter: %s  %s\n", strings.ToUpper(filter.String()), apps.Count(all))
			for _, pkg := range visible {
				sb.WriteString(format.Truncate(pkg.Name, 40))
				sb.WriteString("  ")
				sb.WriteString(pkg.Summary())
				sb.WriteString("\n")
			}
			_, err = fmt.Fprint(a.stdout, sb.String())
			return err
		},
	}
	cmd.Flags().StringVarP(&filterName, "filter", "f", "all", "app kind: all, user or system")
	cmd.Flags().StringVarP(&search, "search", "s", "", "only apps whose name or package contains this text")
	return cmd
}

func (a *app) printAppDetails(pkg apps.AppInfo) error {
	var sb strings.Builder
	sb.WriteString(pkg.Name + "\n")
	for _, line := range pkg.Details() {
		sb.WriteString(line + "\n")
	}
	if len(pkg.Permissions) > 0 {
		fmt.Fprintf(&sb, "\nPermissions (%d)\n", len(pkg.Permissions))
		for _, p := range pkg.Permissions {
			sb.WriteString("  " + p + "\n")
		}
	}
	_, err := fmt.Fprint(a.stdout, sb.String())
	return err
}
