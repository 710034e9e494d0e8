package main

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/guptarohit/asciigraph"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/phasespace/internal/analysis"
	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/separatrix"
)

var (
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	tableStyle = lipgloss.NewStyle().Padding(0, 1)
)

func printResult(w io.Writer, r separatrix.Result) {
	fmt.Fprintf(w, "%s %s\n", labelStyle.Render("stable area      "), valueStyle.Render(fmt.Sprintf("%.6e", r.StableArea)))
	fmt.Fprintf(w, "%s %s\n\n", labelStyle.Render("dpx/dx at septum "), valueStyle.Render(fmt.Sprintf("%.6f", r.DpxDxAtSeptum)))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style { return tableStyle }).
		Headers("fixed point", "x [m]", "px [rad]", "x̂", "p̂")
	for i := 0; i < 3; i++ {
		t.Row(
			fmt.Sprintf("%d", i+1),
			fmt.Sprintf("%+.6f", r.XFixedPoints[i]),
			fmt.Sprintf("%+.6f", r.PxFixedPoints[i]),
			fmt.Sprintf("%+.6f", r.XNormFixedPoints[i]),
			fmt.Sprintf("%+.6f", r.PxNormFixedPoints[i]),
		)
	}
	fmt.Fprintln(w, t.Render())
}

// printConvergence plots log10 of the bracket width per bisection step.
func printConvergence(w io.Writer, steps []separatrix.Step) {
	if len(steps) < 2 {
		return
	}
	data := make([]float64, len(steps))
	for i, s := range steps {
		data[i] = math.Log10(s.Bracket.Width())
	}
	fmt.Fprintln(w, asciigraph.Plot(data,
		asciigraph.Height(8),
		asciigraph.Width(60),
		asciigraph.Precision(1),
		asciigraph.Caption("log10 bracket width [m] per bisection step"),
	))
}

func printDiagnostics(w io.Writer, diags []analysis.Diagnostics) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(labelStyle).
		StyleFunc(func(row, col int) lipgloss.Style { return tableStyle }).
		Headers("x0 [m]", "turns", "max x [m]", "tune", "action", "spread")
	for _, d := range diags {
		q := "-"
		if !math.IsNaN(d.Tune) {
			q = fmt.Sprintf("%.4f", d.Tune)
		}
		turns := fmt.Sprintf("%d", d.Survived)
		if d.Lost {
			turns += " lost"
		}
		t.Row(
			fmt.Sprintf("%.4f", d.Offset),
			turns,
			fmt.Sprintf("%.4f", d.MaxX),
			q,
			fmt.Sprintf("%.3e", d.Action),
			fmt.Sprintf("%.1e", d.ActionSpread),
		)
	}
	fmt.Fprintln(w, t.Render())
}

func printPresets(w io.Writer) {
	fmt.Fprintln(w, "presets:")
	for _, name := range config.ListPresets() {
		l := config.Presets[name]
		fmt.Fprintf(w, "  %-18s Q=%.4f  S=%-4g β=%-4g α=%-4g aperture=%g\n",
			name, l.Tune, l.Sextupole, l.Beta, l.Alpha, l.Aperture)
	}
}

func printYAML(w io.Writer, cfg *config.Config) error {
	var b strings.Builder
	enc := yaml.NewEncoder(&b)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, b.String())
	return err
}
