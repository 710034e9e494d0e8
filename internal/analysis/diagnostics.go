package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/phasespace/internal/separatrix"
)

// Diagnostics summarizes one particle of a sampled cloud.
type Diagnostics struct {
	Offset   float64
	Survived int // alive turns
	Lost     bool
	MaxX     float64
	// Tune is NaN when the particle survived too few turns.
	Tune         float64
	Action       float64 // mean of (x̂² + p̂²)/2
	ActionSpread float64
}

func Diagnose(c *separatrix.Cloud) []Diagnostics {
	out := make([]Diagnostics, len(c.Offsets))
	for p, offset := range c.Offsets {
		traj := separatrix.TrajectoryOf(c.Record, c.Normalized, p)
		out[p] = diagnose(offset, traj, c.Record.NumTurns())
	}
	return out
}

func diagnose(offset float64, traj separatrix.Trajectory, turns int) Diagnostics {
	d := Diagnostics{
		Offset:   offset,
		Survived: len(traj),
		Lost:     len(traj) < turns,
		MaxX:     math.Inf(-1),
		Tune:     math.NaN(),
	}
	if len(traj) == 0 {
		d.MaxX = 0
		return d
	}

	xs := make([]float64, len(traj))
	actions := make([]float64, len(traj))
	for i, s := range traj {
		xs[i] = s.XNorm
		actions[i] = (s.XNorm*s.XNorm + s.PxNorm*s.PxNorm) / 2
		d.MaxX = math.Max(d.MaxX, s.X)
	}

	if q, err := Tune(xs); err == nil {
		d.Tune = q
	}
	if len(actions) > 1 {
		d.Action, d.ActionSpread = stat.MeanStdDev(actions, nil)
	} else {
		d.Action = actions[0]
	}
	return d
}
