package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/phasespace/internal/separatrix"
	"github.com/san-kum/phasespace/internal/storage"
	"github.com/san-kum/phasespace/internal/viz"
)

const (
	minCanvasWidth  = 20
	minCanvasHeight = 6
)

// Model shows one stored run: the sampled cloud, separatrix and stable
// boundary in either physical or normalized coordinates.
type Model struct {
	meta  *storage.RunMetadata
	cloud *storage.Cloud

	normalized bool
	width      int
	height     int
}

func NewModel(meta *storage.RunMetadata, cloud *storage.Cloud) Model {
	return Model{meta: meta, cloud: cloud, width: 80, height: 24}
}

// Normalized reports which panel is shown.
func (m Model) Normalized() bool { return m.normalized }

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "tab", "n":
			m.normalized = !m.normalized
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(m.viewHeader())
	b.WriteString("\n")

	w := max(m.width-6, minCanvasWidth)
	h := max(m.height-12, minCanvasHeight)
	c := viz.NewCanvas(w, h)
	points, marks := m.points()
	viz.Plot(c, viz.BoundsOf(points, marks).Symmetric(), points, marks)
	b.WriteString(panel.Render(strings.TrimSuffix(c.String(), "\n")))
	b.WriteString("\n")

	mode := "physical  x / px"
	if m.normalized {
		mode = "normalized  x̂ / p̂"
	}
	b.WriteString(" " + yellow.Render(mode) + "   " + dim.Render("tab toggle   q quit") + "\n")
	return b.String()
}

func (m Model) viewHeader() string {
	r := m.meta.Result
	title := cyan.Render("phasespace") + dimmer.Render("  "+m.meta.ID)
	if m.meta.Preset != "" {
		title += "  " + white.Render(m.meta.Preset)
	}

	rows := []string{
		fmt.Sprintf("%s %s   %s %s",
			dim.Render("stable area"), white.Render(fmt.Sprintf("%.4e", r.StableArea)),
			dim.Render("dpx/dx at septum"), white.Render(fmt.Sprintf("%.4f", r.DpxDxAtSeptum))),
		fmt.Sprintf("%s [%.6f, %.6f]   %s %d",
			dim.Render("bracket"), m.meta.Bracket.Stable, m.meta.Bracket.Unstable,
			dim.Render("iterations"), m.meta.Iterations),
		fmt.Sprintf("%s Q=%.4f β=%.3f α=%.3f",
			dim.Render("optics"), m.meta.Twiss.Tune, m.meta.Twiss.Beta, m.meta.Twiss.Alpha),
	}
	return header.Render(title) + "\n" + strings.Join(rows, "\n") + "\n"
}

func (m Model) points() (points, marks []viz.Point) {
	xs, ps := m.cloud.Points(m.normalized)
	points = make([]viz.Point, 0, len(xs)+len(m.cloud.Separatrix)+len(m.cloud.Boundary))
	for i := range xs {
		points = append(points, viz.Point{X: xs[i], Y: ps[i]})
	}

	for _, traj := range []separatrix.Trajectory{m.cloud.Separatrix, m.cloud.Boundary} {
		for _, s := range traj {
			if m.normalized {
				points = append(points, viz.Point{X: s.XNorm, Y: s.PxNorm})
			} else {
				points = append(points, viz.Point{X: s.X, Y: s.Px})
			}
		}
	}

	for _, fp := range m.cloud.FixedPoints {
		p := fp.Physical
		if m.normalized {
			p = fp.Normalized
		}
		marks = append(marks, viz.Point{X: p.X, Y: p.Px})
	}
	return points, marks
}
