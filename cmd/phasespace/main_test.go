package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/scan"
	"github.com/san-kum/phasespace/internal/separatrix"
)

func newTestCommand(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{Use: "test"}
	addLatticeFlags(cmd)
	addSearchFlags(cmd)
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatalf("parse flags: %v", err)
	}
	return cmd
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := loadConfig(newTestCommand(t))
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if *cfg != *config.DefaultConfig() {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	doc := "lattice:\n  sextupole: 30\n  beta: 12\nsearch:\n  turns: 800\n"
	if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
		t.Fatal(err)
	}

	cmd := newTestCommand(t,
		"--preset", "near-resonance",
		"--config", path,
		"--beta", "15",
		"--tolerance", "1e-5",
		"--param", "alpha=-0.5",
	)
	cfg, err := loadConfig(cmd)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}

	tests := []struct {
		name      string
		got, want float64
	}{
		{"tune from preset", cfg.Lattice.Tune, 0.338},
		{"sextupole from file", cfg.Lattice.Sextupole, 30},
		{"beta from flag", cfg.Lattice.Beta, 15},
		{"alpha from param", cfg.Lattice.Alpha, -0.5},
		{"tolerance from flag", cfg.Search.Tolerance, 1e-5},
		{"turns from file", float64(cfg.Search.Turns), 800},
		{"septum default", cfg.Search.SeptumX, separatrix.DefaultSeptumX},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s: got %g, want %g", tt.name, tt.got, tt.want)
		}
	}
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown preset", []string{"--preset", "nope"}},
		{"unknown param", []string{"--param", "chromaticity=1"}},
		{"non-numeric param", []string{"--param", "tune=abc"}},
		{"invalid search", []string{"--tolerance", "0"}},
		{"missing config", []string{"--config", "/nonexistent/run.yaml"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := loadConfig(newTestCommand(t, tt.args...)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestPrintResult(t *testing.T) {
	var buf bytes.Buffer
	printResult(&buf, separatrix.Result{
		StableArea:    4.327e-5,
		DpxDxAtSeptum: -0.026146,
		XFixedPoints:  [3]float64{0.011, -0.02, 0.009},
	})

	out := buf.String()
	for _, want := range []string{"4.327000e-05", "-0.026146", "+0.011000", "fixed point"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestPrintPresets(t *testing.T) {
	var buf bytes.Buffer
	printPresets(&buf)
	for _, name := range config.ListPresets() {
		if !strings.Contains(buf.String(), name) {
			t.Errorf("missing preset %s", name)
		}
	}
}

func TestPrintScan(t *testing.T) {
	grid := scan.Grid{{Name: "tune", Values: []float64{0.338, 0.35}}}
	outcomes := []scan.Outcome{
		{Params: map[string]float64{"tune": 0.338}, Result: separatrix.Result{StableArea: 1.0e-5, DpxDxAtSeptum: -0.02}},
		{Params: map[string]float64{"tune": 0.35}, Err: errors.New("no fixed point")},
	}
	var buf bytes.Buffer
	printScan(&buf, grid, outcomes)
	out := buf.String()
	for _, want := range []string{"tune", "1.0000e-05", "no fixed point", "largest stable area", "tune=0.338"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	buf.Reset()
	printScan(&buf, grid, outcomes[1:])
	if !strings.Contains(buf.String(), "no point could be characterized") {
		t.Errorf("output = %s", buf.String())
	}
}
