package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/opd-ai/go-devinfo/internal/benchmark"
	"github.com/opd-ai/go-devinfo/internal/monitor"
	"github.com/opd-ai/go-devinfo/internal/notify"
	"github.com/opd-ai/go-devinfo/internal/platform"
)

func (a *app) benchmarkCmd() *cobra.Command {
	var scale int
	cmd := &cobra.Command{
		Use:       "benchmark <cpu|gpu|storage>",
		Short:     "Run a micro-benchmark on this machine and record the result",
		Args:      cobra.ExactArgs(1),
		ValidArgs: []string{"cpu", "gpu", "storage"},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			kind, err := benchmark.ParseKind(args[0])
			if err != nil {
				return err
			}
			history, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer history.Close()

			if scale <= 0 {
				scale = a.cfg.Benchmark.Scale
			}
			// Benchmarks always run locally, so notifications go to this host.
			local := monitor.NewDevice(ctx, platform.NewLocalSource())
			notifier := notify.Auto(local.Source, local.Props, a.logger, a.metrics)
			defer notifier.Close()

			runner := benchmark.NewRunner(benchmark.Options{
				WorkDir:  a.cfg.Benchmark.WorkDir,
				Scale:    scale,
				Notifier: notifier,
				OnProgress: func(p benchmark.Progress) {
					fmt.Fprintf(a.stderr, "\r%s %3d%%", kind.Title(), p.Percent)
				},
				History: history,
				Logger:  a.logger,
				Metrics: a.metrics,
			})
			res, err := runner.Run(ctx, kind)
			fmt.Fprintln(a.stderr)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "%s: %s\n", kind.Title(), res.Summary())
			if best, ok, err := history.Best(ctx, kind); err == nil && ok {
				fmt.Fprintf(a.stdout, "Best: %s (%s)\n", best.Summary(), best.Started.Format(time.DateTime))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&scale, "scale", 0, "divide the work per step (1 runs the full benchmark)")
	cmd.AddCommand(a.benchmarkHistoryCmd())
	return cmd
}

func (a *app) benchmarkHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent benchmark results and the best score of each kind",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			history, err := a.openHistory(ctx)
			if err != nil {
				return err
			}
			defer history.Close()

			recent, err := history.Recent(ctx, limit)
			if err != nil {
				return err
			}
			if len(recent) == 0 {
				fmt.Fprintln(a.stdout, "No benchmark results")
				return nil
			}
			for _, r := range recent {
				fmt.Fprintf(a.stdout, "%s  %-7s  %s\n", r.Started.Format(time.DateTime), r.Kind, r.Summary())
			}
			fmt.Fprintln(a.stdout)
			for _, kind := range benchmark.Kinds {
				best, ok, err := history.Best(ctx, kind)
				if err != nil {
					return err
				}
				if ok {
					fmt.Fprintf(a.stdout, "Best %s: %s\n", kind, best.Summary())
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "number of results to list")
	return cmd
}

func (a *app) openHistory(ctx context.Context) (*benchmark.History, error) {
	path := a.cfg.Benchmark.HistoryDB
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}
	return benchmark.OpenHistory(ctx, path)
}
