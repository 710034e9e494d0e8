package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/san-kum/phasespace/internal/analysis"
	"github.com/san-kum/phasespace/internal/observability"
	"github.com/san-kum/phasespace/internal/portrait"
	"github.com/san-kum/phasespace/internal/separatrix"
	"github.com/san-kum/phasespace/internal/storage"
	"github.com/san-kum/phasespace/internal/viz"
)

func runCharacterize(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	reg := prometheus.NewRegistry()
	collector, err := observability.NewCollector(reg)
	if err != nil {
		return err
	}

	opts := []separatrix.Option{
		separatrix.WithLogger(logger),
		separatrix.WithObserver(collector),
	}
	if cfg.Output.Plot != "" {
		opts = append(opts, separatrix.WithRenderer(portrait.Renderer{
			Path:    cfg.Output.Plot,
			Options: portrait.Options{Title: presetTitle(preset)},
		}))
	}

	logger.Info("characterizing",
		"tune", cfg.Lattice.Tune,
		"sextupole", cfg.Lattice.Sextupole,
		"turns", cfg.Search.Turns)
	start := time.Now()

	a, err := separatrix.New(cfg.Lattice.Build(), cfg.Search, opts...).Run(ctx)
	if cfg.Output.MetricsFile != "" {
		if werr := collector.WriteTextfile(cfg.Output.MetricsFile); werr != nil {
			logger.Warn("metrics not written", "err", werr)
		}
	}
	if err != nil {
		return err
	}
	logger.Info("done", "elapsed", time.Since(start).Round(time.Millisecond))

	runID := ""
	if cfg.Output.Save {
		st := storage.New(cfg.Output.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		runID, err = st.Save(preset, cfg, a)
		if err != nil {
			return err
		}
		logger.Info("run stored", "id", runID, "dir", cfg.Output.DataDir)
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		meta := storage.NewMetadata(runID, preset, cfg.Lattice, a)
		return storage.WriteJSON(out, &meta)
	}

	printResult(out, a.Result)
	fmt.Fprintln(out)
	printConvergence(out, a.Search.Steps)
	if runID != "" {
		fmt.Fprintf(out, "\nrun id: %s\n", runID)
	}
	if cfg.Output.Plot != "" {
		fmt.Fprintf(out, "portrait: %s\n", cfg.Output.Plot)
	}
	return nil
}

func runSample(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	line := cfg.Lattice.Build()
	tw, err := line.Twiss(ctx)
	if err != nil {
		return err
	}
	cloud, err := separatrix.Sample(ctx, line, tw, cfg.Search)
	if err != nil {
		return err
	}

	var points []viz.Point
	rec := cloud.Record
	for p := range rec.X {
		for t := range rec.X[p] {
			if !rec.Alive(p, t) {
				continue
			}
			if normalized {
				points = append(points, viz.Point{X: cloud.Normalized.XNorm[p][t], Y: cloud.Normalized.PxNorm[p][t]})
			} else {
				points = append(points, viz.Point{X: rec.X[p][t], Y: rec.Px[p][t]})
			}
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Q=%.4f  β=%.3f m  α=%.3f\n\n", tw.Tune, tw.Beta, tw.Alpha)
	fmt.Fprint(out, viz.PortraitASCII(points, nil, 70, 20))
	fmt.Fprintln(out)
	printDiagnostics(out, analysis.Diagnose(cloud))
	return nil
}

func presetTitle(name string) string {
	if name == "" {
		return "custom lattice"
	}
	return name
}
