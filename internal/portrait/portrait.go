package portrait

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	_ "gonum.org/v1/plot/vg/vgimg"
	_ "gonum.org/v1/plot/vg/vgpdf"
	_ "gonum.org/v1/plot/vg/vgsvg"

	"github.com/san-kum/phasespace/internal/separatrix"
)

// Axis windows of the two panels.
const (
	PhysicalX   = 5e-2
	PhysicalPx  = 5e-3
	NormalizedR = 15e-3

	// SlopeReach is the half length in x of the drawn septum slope segment.
	SlopeReach = 1e-2
)

var ErrIncomplete = errors.New("portrait: analysis has no cloud or trajectories")

type Options struct {
	Width, Height vg.Length
	Title         string
}

func DefaultOptions() Options {
	return Options{Width: 12 * vg.Inch, Height: 5.5 * vg.Inch}
}

// Render writes the physical and normalized phase portraits side by side.
// The image format follows the file extension.
func Render(a *separatrix.Analysis, path string, opts Options) error {
	if a == nil || a.Cloud == nil || len(a.Separatrix) == 0 || len(a.Boundary) == 0 {
		return ErrIncomplete
	}
	if opts.Width == 0 || opts.Height == 0 {
		d := DefaultOptions()
		opts.Width, opts.Height = d.Width, d.Height
	}

	format := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if format == "" {
		return fmt.Errorf("portrait: no image format in %q", path)
	}
	c, err := draw.NewFormattedCanvas(opts.Width, opts.Height, format)
	if err != nil {
		return fmt.Errorf("portrait: %w", err)
	}

	physical, err := physicalPanel(a)
	if err != nil {
		return err
	}
	normalized, err := normalizedPanel(a)
	if err != nil {
		return err
	}
	if opts.Title != "" {
		physical.Title.Text = opts.Title + " (physical)"
		normalized.Title.Text = opts.Title + " (normalized)"
	}

	tiles := draw.Tiles{
		Rows: 1, Cols: 2,
		PadX: vg.Millimeter * 6, PadY: vg.Millimeter * 4,
		PadTop: vg.Millimeter * 2, PadBottom: vg.Millimeter * 2,
		PadLeft: vg.Millimeter * 2, PadRight: vg.Millimeter * 2,
	}
	plots := [][]*plot.Plot{{physical, normalized}}
	canvases := plot.Align(plots, tiles, draw.New(c))
	for i, p := range plots[0] {
		p.Draw(canvases[0][i])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := c.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("portrait: write %s: %w", path, err)
	}
	return f.Close()
}

// Renderer draws every finished analysis to a fixed path.
type Renderer struct {
	Path    string
	Options Options
}

var _ separatrix.Renderer = Renderer{}

func (r Renderer) Render(a *separatrix.Analysis) error {
	return Render(a, r.Path, r.Options)
}

type coords func(separatrix.TurnSample) (float64, float64)

func physicalXY(s separatrix.TurnSample) (float64, float64)   { return s.X, s.Px }
func normalizedXY(s separatrix.TurnSample) (float64, float64) { return s.XNorm, s.PxNorm }

func physicalPanel(a *separatrix.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Physical phase space"
	p.X.Label.Text = "x [m]"
	p.Y.Label.Text = "px [rad]"
	p.Add(plotter.NewGrid())

	if err := addCommon(p, a, physicalXY, false); err != nil {
		return nil, err
	}

	septum, err := plotter.NewLine(plotter.XYs{
		{X: a.Config.SeptumX, Y: -PhysicalPx},
		{X: a.Config.SeptumX, Y: PhysicalPx},
	})
	if err != nil {
		return nil, err
	}
	septum.Color = color.Black
	septum.Width = vg.Points(1.5)
	septum.Dashes = []vg.Length{vg.Points(4), vg.Points(3)}
	p.Add(septum)

	label, err := plotter.NewLabels(plotter.XYLabels{
		XYs:    plotter.XYs{{X: a.Config.SeptumX, Y: 0.9 * PhysicalPx}},
		Labels: []string{" septum"},
	})
	if err != nil {
		return nil, err
	}
	p.Add(label)

	x0, x1 := a.Config.SeptumX-SlopeReach, a.Config.SeptumX+SlopeReach
	slope, err := plotter.NewLine(plotter.XYs{
		{X: x0, Y: a.Slope.At(x0)},
		{X: x1, Y: a.Slope.At(x1)},
	})
	if err != nil {
		return nil, err
	}
	slope.Color = plotutil.Color(3)
	slope.Width = vg.Points(2)
	p.Add(slope)
	p.Legend.Add(fmt.Sprintf("dpx/dx = %.4g", a.Slope.Value), slope)

	// Fixed windows; Add widens the axes to every plotted point.
	p.X.Min, p.X.Max = -PhysicalX, PhysicalX
	p.Y.Min, p.Y.Max = -PhysicalPx, PhysicalPx
	return p, nil
}

func normalizedPanel(a *separatrix.Analysis) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = "Normalized phase space"
	p.X.Label.Text = "x̂ [√m]"
	p.Y.Label.Text = "p̂ [√m]"
	p.Add(plotter.NewGrid())

	if err := addCommon(p, a, normalizedXY, true); err != nil {
		return nil, err
	}
	p.X.Min, p.X.Max = -NormalizedR, NormalizedR
	p.Y.Min, p.Y.Max = -NormalizedR, NormalizedR
	return p, nil
}

// addCommon draws the sampled cloud, the separatrix arms, the stable
// boundary and the fixed points.
func addCommon(p *plot.Plot, a *separatrix.Analysis, xy coords, normalized bool) error {
	cloud, err := plotter.NewScatter(cloudXYs(a.Cloud, normalized))
	if err != nil {
		return err
	}
	cloud.GlyphStyle.Radius = vg.Points(0.6)
	cloud.GlyphStyle.Color = color.Gray{Y: 150}
	p.Add(cloud)

	// Near the resonance the separatrix jumps between three arms every turn.
	for arm := 0; arm < 3; arm++ {
		var pts plotter.XYs
		for i := arm; i < len(a.Separatrix); i += 3 {
			x, y := xy(a.Separatrix[i])
			pts = append(pts, plotter.XY{X: x, Y: y})
		}
		if len(pts) < 2 {
			continue
		}
		l, err := plotter.NewLine(pts)
		if err != nil {
			return err
		}
		l.Color = plotutil.Color(0)
		l.Width = vg.Points(1)
		p.Add(l)
		if arm == 0 {
			p.Legend.Add("separatrix", l)
		}
	}

	boundary := make(plotter.XYs, 0, len(a.Boundary)+1)
	for _, s := range a.Boundary {
		x, y := xy(s)
		boundary = append(boundary, plotter.XY{X: x, Y: y})
	}
	boundary = append(boundary, boundary[0])
	bl, err := plotter.NewLine(boundary)
	if err != nil {
		return err
	}
	bl.Color = plotutil.Color(1)
	bl.Width = vg.Points(1.5)
	p.Add(bl)
	p.Legend.Add(fmt.Sprintf("stable area %.3g", a.Result.StableArea), bl)

	fps := make(plotter.XYs, 0, 3)
	for _, fp := range a.FixedPoints {
		pt := fp.Physical
		if normalized {
			pt = fp.Normalized
		}
		fps = append(fps, plotter.XY{X: pt.X, Y: pt.Px})
	}
	marks, err := plotter.NewScatter(fps)
	if err != nil {
		return err
	}
	marks.GlyphStyle.Shape = draw.TriangleGlyph{}
	marks.GlyphStyle.Radius = vg.Points(4)
	marks.GlyphStyle.Color = plotutil.Color(2)
	p.Add(marks)
	p.Legend.Add("fixed points", marks)

	p.Legend.Top = true
	p.Legend.Left = true
	return nil
}

func cloudXYs(c *separatrix.Cloud, normalized bool) plotter.XYs {
	rec := c.Record
	var pts plotter.XYs
	for i := range rec.X {
		for t := range rec.X[i] {
			if !rec.Alive(i, t) {
				continue
			}
			if normalized {
				pts = append(pts, plotter.XY{X: c.Normalized.XNorm[i][t], Y: c.Normalized.PxNorm[i][t]})
			} else {
				pts = append(pts, plotter.XY{X: rec.X[i][t], Y: rec.Px[i][t]})
			}
		}
	}
	return pts
}
