package viz

import (
	"math"
)

type Point struct{ X, Y float64 }

// Bounds is a data-space window mapped onto a canvas.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
}

// BoundsOf returns the box around every finite point, padded by 10% on
// each side. Degenerate ranges are widened to one unit.
func BoundsOf(sets ...[]Point) Bounds {
	b := Bounds{math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)}
	for _, pts := range sets {
		for _, p := range pts {
			if !finite(p) {
				continue
			}
			b.MinX, b.MaxX = math.Min(b.MinX, p.X), math.Max(b.MaxX, p.X)
			b.MinY, b.MaxY = math.Min(b.MinY, p.Y), math.Max(b.MaxY, p.Y)
		}
	}
	if math.IsInf(b.MinX, 1) {
		return Bounds{-1, 1, -1, 1}
	}

	pad := func(lo, hi float64) (float64, float64) {
		r := hi - lo
		if r == 0 {
			return lo - 0.5, hi + 0.5
		}
		return lo - 0.1*r, hi + 0.1*r
	}
	b.MinX, b.MaxX = pad(b.MinX, b.MaxX)
	b.MinY, b.MaxY = pad(b.MinY, b.MaxY)
	return b
}

// Symmetric returns a window centered on the origin enclosing b.
func (b Bounds) Symmetric() Bounds {
	x := math.Max(math.Abs(b.MinX), math.Abs(b.MaxX))
	y := math.Max(math.Abs(b.MinY), math.Abs(b.MaxY))
	return Bounds{-x, x, -y, y}
}

func (b Bounds) Contains(p Point) bool {
	return p.X >= b.MinX && p.X <= b.MaxX && p.Y >= b.MinY && p.Y <= b.MaxY
}

// Dot maps p to canvas dot coordinates.
func (b Bounds) Dot(c *Canvas, p Point) (int, int) {
	w, h := float64(2*c.Width-1), float64(4*c.Height-1)
	x := (p.X - b.MinX) / (b.MaxX - b.MinX) * w
	y := h - (p.Y-b.MinY)/(b.MaxY-b.MinY)*h
	return int(math.Round(x)), int(math.Round(y))
}

// PortraitASCII draws points as braille dots with both axes, then overlays
// each mark as a diamond glyph.
func PortraitASCII(points, marks []Point, width, height int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	c := NewCanvas(width, height)
	b := BoundsOf(points, marks)
	Plot(c, b, points, marks)
	return c.String()
}

// Plot draws onto an existing canvas within a fixed window.
func Plot(c *Canvas, b Bounds, points, marks []Point) {
	if b.MinX <= 0 && b.MaxX >= 0 {
		x, top := b.Dot(c, Point{0, b.MaxY})
		_, bottom := b.Dot(c, Point{0, b.MinY})
		for y := top; y <= bottom; y += 2 {
			c.Set(x, y)
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		left, y := b.Dot(c, Point{b.MinX, 0})
		right, _ := b.Dot(c, Point{b.MaxX, 0})
		for x := left; x <= right; x += 2 {
			c.Set(x, y)
		}
	}

	for _, p := range points {
		if finite(p) && b.Contains(p) {
			c.Set(b.Dot(c, p))
		}
	}
	for _, p := range marks {
		if finite(p) && b.Contains(p) {
			x, y := b.Dot(c, p)
			c.Mark(x, y, '◆')
		}
	}
}

func finite(p Point) bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}
