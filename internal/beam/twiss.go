package beam

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Twiss is the horizontal linear-optics snapshot at the observation point.
type Twiss struct {
	Beta  float64 `json:"beta" yaml:"beta" msgpack:"beta"`
	Alpha float64 `json:"alpha" yaml:"alpha" msgpack:"alpha"`
	Tune  float64 `json:"tune" yaml:"tune" msgpack:"tune"`
	// Closed orbit.
	X0  float64 `json:"x0" yaml:"x0" msgpack:"x0"`
	Px0 float64 `json:"px0" yaml:"px0" msgpack:"px0"`
}

// NormalizePoint maps a physical (x, px) to Courant-Snyder normalized
// coordinates.
func (tw *Twiss) NormalizePoint(x, px float64) (float64, float64) {
	sb := math.Sqrt(tw.Beta)
	dx, dpx := x-tw.X0, px-tw.Px0
	return dx / sb, (tw.Alpha*dx + tw.Beta*dpx) / sb
}

// Denormalize is the inverse of NormalizePoint.
func (tw *Twiss) Denormalize(xn, pxn float64) (float64, float64) {
	sb := math.Sqrt(tw.Beta)
	return tw.X0 + sb*xn, tw.Px0 + (pxn-tw.Alpha*xn)/sb
}

// Normalize converts every alive sample of rec. Lost samples stay at zero.
func (tw *Twiss) Normalize(rec *TrackRecord) *NormalizedRecord {
	n := &NormalizedRecord{
		XNorm:  make([][]float64, rec.NumParticles()),
		PxNorm: make([][]float64, rec.NumParticles()),
	}
	for p := range rec.X {
		n.XNorm[p] = make([]float64, len(rec.X[p]))
		n.PxNorm[p] = make([]float64, len(rec.X[p]))
		for t := range rec.X[p] {
			if !rec.Alive(p, t) {
				continue
			}
			n.XNorm[p][t], n.PxNorm[p][t] = tw.NormalizePoint(rec.X[p][t], rec.Px[p][t])
		}
	}
	return n
}

// ComputeTwiss derives the linear optics of any tracker from central finite
// differences of its one-turn map around the origin. Even-order
// nonlinearities cancel in the central difference.
func ComputeTwiss(ctx context.Context, tr Tracker, step float64) (*Twiss, error) {
	if step <= 0 {
		return nil, fmt.Errorf("beam: finite-difference step must be positive, got %g", step)
	}

	probes := Particles{
		{X: step}, {X: -step},
		{Px: step}, {Px: -step},
	}
	rec, err := tr.Track(ctx, probes, 2)
	if err != nil {
		return nil, fmt.Errorf("beam: twiss probe tracking: %w", err)
	}
	if rec.NumTurns() < 2 {
		return nil, ErrShape
	}
	for p := range probes {
		if !rec.Alive(p, 1) {
			return nil, fmt.Errorf("beam: twiss probe %d lost on first turn", p)
		}
	}

	m := mat.NewDense(2, 2, nil)
	for col := 0; col < 2; col++ {
		plus, minus := 2*col, 2*col+1
		m.Set(0, col, (rec.X[plus][1]-rec.X[minus][1])/(2*step))
		m.Set(1, col, (rec.Px[plus][1]-rec.Px[minus][1])/(2*step))
	}

	cosMu := mat.Trace(m) / 2
	if math.Abs(cosMu) >= 1 {
		return nil, ErrUnstableOptics
	}

	sinMu := math.Sqrt(1 - cosMu*cosMu)
	if m.At(0, 1) < 0 {
		sinMu = -sinMu
	}
	mu := math.Atan2(sinMu, cosMu)
	if mu < 0 {
		mu += 2 * math.Pi
	}

	return &Twiss{
		Beta:  m.At(0, 1) / sinMu,
		Alpha: (m.At(0, 0) - m.At(1, 1)) / (2 * sinMu),
		Tune:  mu / (2 * math.Pi),
	}, nil
}
