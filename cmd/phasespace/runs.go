package main

import (
	"fmt"
	"text/tabwriter"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/storage"
	"github.com/san-kum/phasespace/internal/tui"
)

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPRESET\tTIME\tTUNE\tAREA\tDPX/DX\tITER")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4e\t%.4f\t%d\n",
			run.ID,
			presetTitle(run.Preset),
			run.Timestamp.Local().Format("2006-01-02 15:04:05"),
			run.Lattice.Tune,
			run.Result.StableArea,
			run.Result.DpxDxAtSeptum,
			run.Iterations,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOut {
		return storage.WriteJSON(out, meta)
	}

	fmt.Fprintf(out, "run:     %s\n", meta.ID)
	fmt.Fprintf(out, "preset:  %s\n", presetTitle(meta.Preset))
	fmt.Fprintf(out, "time:    %s\n", meta.Timestamp.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "lattice: Q=%.4f S=%g β=%g α=%g aperture=%g\n",
		meta.Lattice.Tune, meta.Lattice.Sextupole, meta.Lattice.Beta, meta.Lattice.Alpha, meta.Lattice.Aperture)
	fmt.Fprintf(out, "bracket: [%.7f, %.7f] after %d iterations\n\n",
		meta.Bracket.Stable, meta.Bracket.Unstable, meta.Iterations)

	printResult(out, meta.Result)
	if len(meta.Steps) > 0 {
		fmt.Fprintln(out)
		printConvergence(out, meta.Steps)
	}
	return nil
}

func viewRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	cloud, err := st.LoadCloud(args[0])
	if err != nil {
		return err
	}

	p := tea.NewProgram(tui.NewModel(meta, cloud), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

func writeConfig(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if preset != "" {
		if cfg = config.GetPreset(preset); cfg == nil {
			return fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if len(args) == 0 {
		return printYAML(cmd.OutOrStdout(), cfg)
	}
	if err := config.Save(args[0], cfg); err != nil {
		return err
	}
	logger.Info("config written", "path", args[0])
	return nil
}
