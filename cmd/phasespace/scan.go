package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/phasespace/internal/observability"
	"github.com/san-kum/phasespace/internal/scan"
	"github.com/san-kum/phasespace/internal/separatrix"
)

func runScan(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var grid scan.Grid
	for _, s := range gridAxes {
		a, err := scan.ParseAxis(s)
		if err != nil {
			return err
		}
		grid = append(grid, a)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}

	logger.Info("scanning", "points", len(grid.Points()), "workers", workers)
	start := time.Now()

	s := scan.New(*cfg, workers, logger, separatrix.WithObserver(collector))
	outcomes, err := s.Run(ctx, grid)
	if cfg.Output.MetricsFile != "" {
		if werr := collector.WriteTextfile(cfg.Output.MetricsFile); werr != nil {
			logger.Warn("metrics not written", "err", werr)
		}
	}
	if err != nil {
		return err
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))

	printScan(cmd.OutOrStdout(), grid, outcomes)
	return nil
}

func printScan(w io.Writer, grid scan.Grid, outcomes []scan.Outcome) {
	headers := make([]string, 0, len(grid)+3)
	for _, a := range grid {
		headers = append(headers, a.Name)
	}
	headers = append(headers, "stable area", "dpx/dx", "status")

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style { return tableStyle }).
		Headers(headers...)
	for _, o := range outcomes {
		row := make([]string, 0, len(headers))
		for _, a := range grid {
			row = append(row, fmt.Sprintf("%g", o.Params[a.Name]))
		}
		if o.Err != nil {
			row = append(row, "-", "-", o.Err.Error())
		} else {
			row = append(row,
				fmt.Sprintf("%.4e", o.Result.StableArea),
				fmt.Sprintf("%+.5f", o.Result.DpxDxAtSeptum),
				"ok")
		}
		t.Row(row...)
	}
	fmt.Fprintln(w, t.Render())

	best, ok := scan.Best(outcomes, func(r separatrix.Result) float64 { return r.StableArea })
	if !ok {
		fmt.Fprintln(w, labelStyle.Render("no point could be characterized"))
		return
	}
	names := make([]string, 0, len(best.Params))
	for name := range best.Params {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%g", name, best.Params[name])
	}
	fmt.Fprintf(w, "%s %s  %s\n",
		labelStyle.Render("largest stable area"),
		valueStyle.Render(fmt.Sprintf("%.4e", best.Result.StableArea)),
		strings.Join(parts, " "))
}
