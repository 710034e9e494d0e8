package main

import (
	"fmt"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/logging"
)

var (
	dataDir  string
	logLevel string
	noColor  bool

	// Lattice working point
	tune      float64
	sextupole float64
	beta      float64
	alpha     float64
	aperture  float64
	params    map[string]string

	// Search thresholds
	septumX   float64
	turns     int
	tolerance float64
	stableX   float64
	unstableX float64
	noVerify  bool

	// Sampler
	sampleCount int
	sampleMax   float64
	normalized  bool

	configFile  string
	preset      string
	plotPath    string
	metricsFile string
	save        bool
	jsonOut     bool

	// Scan
	gridAxes []string
	workers  int

	logger *slog.Logger
)

// main registers the phasespace commands and exits with status 1 when a
// command fails.
func main() {
	rootCmd := &cobra.Command{
		Use:           "phasespace",
		Short:         "third-order resonance phase-space characterization",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logging.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = logging.New(os.Stderr, level, noColor)
			slog.SetDefault(logger)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored log output")

	characterizeCmd := &cobra.Command{
		Use:   "characterize",
		Short: "locate the separatrix and measure the stable triangle",
		Args:  cobra.NoArgs,
		RunE:  runCharacterize,
	}
	addLatticeFlags(characterizeCmd)
	addSearchFlags(characterizeCmd)
	characterizeCmd.Flags().StringVar(&plotPath, "plot", "", "write the phase portrait figure (png, svg or pdf)")
	characterizeCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics in textfile format")
	characterizeCmd.Flags().BoolVar(&save, "save", true, "store the run under the data directory")
	characterizeCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")

	sampleCmd := &cobra.Command{
		Use:   "sample",
		Short: "track a fan of offsets and draw the phase-space cloud",
		Args:  cobra.NoArgs,
		RunE:  runSample,
	}
	addLatticeFlags(sampleCmd)
	sampleCmd.Flags().IntVar(&turns, "turns", config.DefaultConfig().Search.Turns, "turns to track")
	sampleCmd.Flags().IntVar(&sampleCount, "count", config.DefaultConfig().Search.SampleCount, "number of particles")
	sampleCmd.Flags().Float64Var(&sampleMax, "max", config.DefaultConfig().Search.SampleMax, "largest initial x [m]")
	sampleCmd.Flags().BoolVar(&normalized, "normalized", false, "draw normalized coordinates")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		Args:  cobra.NoArgs,
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().BoolVar(&jsonOut, "json", false, "print the run as JSON")

	viewCmd := &cobra.Command{
		Use:   "view [run_id]",
		Short: "browse a stored run in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  viewRun,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list lattice presets",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printPresets(cmd.OutOrStdout())
			return nil
		},
	}

	configCmd := &cobra.Command{
		Use:   "config [path]",
		Short: "write the default configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE:  writeConfig,
	}
	configCmd.Flags().StringVar(&preset, "preset", "", "start from a lattice preset")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "characterize a grid of lattice working points in parallel",
		Args:  cobra.NoArgs,
		RunE:  runScan,
	}
	addLatticeFlags(scanCmd)
	addSearchFlags(scanCmd)
	scanCmd.Flags().StringArrayVar(&gridAxes, "grid", nil, "scan axis name=start:stop:count or name=v1,v2,... (repeatable)")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "parallel workers (0 = one per CPU)")
	scanCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics in textfile format")
	_ = scanCmd.MarkFlagRequired("grid")

	rootCmd.AddCommand(characterizeCmd, sampleCmd, scanCmd, listCmd, showCmd, viewCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.Error("command failed", "err", err)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func addLatticeFlags(cmd *cobra.Command) {
	d := config.DefaultLattice()
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "lattice preset")
	cmd.Flags().Float64Var(&tune, "tune", d.Tune, "horizontal tune")
	cmd.Flags().Float64Var(&sextupole, "sextupole", d.Sextupole, "normalized sextupole strength")
	cmd.Flags().Float64Var(&beta, "beta", d.Beta, "beta function at the observation point [m]")
	cmd.Flags().Float64Var(&alpha, "alpha", d.Alpha, "alpha function at the observation point")
	cmd.Flags().Float64Var(&aperture, "aperture", d.Aperture, "physical half aperture [m]")
	cmd.Flags().StringToStringVar(&params, "param", nil, "lattice parameter override name=value")
}

func addSearchFlags(cmd *cobra.Command) {
	d := config.DefaultConfig().Search
	cmd.Flags().Float64Var(&septumX, "septum", d.SeptumX, "septum position [m]")
	cmd.Flags().IntVar(&turns, "turns", d.Turns, "turns per tracking call")
	cmd.Flags().Float64Var(&tolerance, "tolerance", d.Tolerance, "bisection stop width [m]")
	cmd.Flags().Float64Var(&stableX, "stable-start", d.StableStart, "initial stable offset [m]")
	cmd.Flags().Float64Var(&unstableX, "unstable-start", d.UnstableStart, "initial unstable offset [m]")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "skip tracking the unstable start before bisecting")
}

// loadConfig resolves preset, then config file, then explicitly set flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if preset != "" {
		cfg = config.GetPreset(preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets())
		}
	}

	if configFile != "" {
		if err := config.Overlay(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	f := cmd.Flags()
	overrides := []struct {
		name string
		dst  *float64
		val  float64
	}{
		{"tune", &cfg.Lattice.Tune, tune},
		{"sextupole", &cfg.Lattice.Sextupole, sextupole},
		{"beta", &cfg.Lattice.Beta, beta},
		{"alpha", &cfg.Lattice.Alpha, alpha},
		{"aperture", &cfg.Lattice.Aperture, aperture},
		{"septum", &cfg.Search.SeptumX, septumX},
		{"tolerance", &cfg.Search.Tolerance, tolerance},
		{"stable-start", &cfg.Search.StableStart, stableX},
		{"unstable-start", &cfg.Search.UnstableStart, unstableX},
		{"max", &cfg.Search.SampleMax, sampleMax},
	}
	for _, o := range overrides {
		if f.Changed(o.name) {
			*o.dst = o.val
		}
	}
	if f.Changed("turns") {
		cfg.Search.Turns = turns
	}
	if f.Changed("count") {
		cfg.Search.SampleCount = sampleCount
	}
	if f.Changed("no-verify") {
		cfg.Search.VerifyBracket = !noVerify
	}
	if f.Changed("plot") {
		cfg.Output.Plot = plotPath
	}
	if f.Changed("metrics-file") {
		cfg.Output.MetricsFile = metricsFile
	}
	if f.Changed("save") {
		cfg.Output.Save = save
	}
	if f.Changed("data") || cfg.Output.DataDir == "" {
		cfg.Output.DataDir = dataDir
	}

	if err := applyParams(cfg, params); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyParams sets lattice parameters by name, in sorted order.
func applyParams(cfg *config.Config, kv map[string]string) error {
	if len(kv) == 0 {
		return nil
	}
	names := make([]string, 0, len(kv))
	for name := range kv {
		names = append(names, name)
	}
	sort.Strings(names)

	line := cfg.Lattice.Build()
	for _, name := range names {
		var v float64
		if _, err := fmt.Sscan(kv[name], &v); err != nil {
			return fmt.Errorf("param %s: %q is not a number", name, kv[name])
		}
		if err := line.SetParam(name, v); err != nil {
			return err
		}
	}
	cfg.Lattice = config.LatticeConfig{
		Tune:      line.Tune,
		Sextupole: line.Sextupole,
		Beta:      line.Beta,
		Alpha:     line.Alpha,
		Aperture:  line.Aperture,
	}
	return nil
}
