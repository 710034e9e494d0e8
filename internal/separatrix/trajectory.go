package separatrix

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/phasespace/internal/beam"
)

// TurnSample is one turn of a single particle in both coordinate systems.
type TurnSample struct {
	Turn   int     `json:"turn" msgpack:"turn"`
	X      float64 `json:"x" msgpack:"x"`
	Px     float64 `json:"px" msgpack:"px"`
	XNorm  float64 `json:"x_norm" msgpack:"x_norm"`
	PxNorm float64 `json:"px_norm" msgpack:"px_norm"`
}

// Angle is the polar angle in the normalized plane.
func (s TurnSample) Angle() float64 { return math.Atan2(s.PxNorm, s.XNorm) }

// Trajectory is the turn-ordered list of alive samples of one particle.
type Trajectory []TurnSample

// TrajectoryOf extracts the alive samples of particle p.
func TrajectoryOf(rec *beam.TrackRecord, norm *beam.NormalizedRecord, p int) Trajectory {
	traj := make(Trajectory, 0, rec.NumTurns())
	for t := 0; t < rec.NumTurns(); t++ {
		if !rec.Alive(p, t) {
			continue
		}
		traj = append(traj, TurnSample{
			Turn:   t,
			X:      rec.X[p][t],
			Px:     rec.Px[p][t],
			XNorm:  norm.XNorm[p][t],
			PxNorm: norm.PxNorm[p][t],
		})
	}
	return traj
}

// SortByAngle returns a copy of traj ordered by normalized-plane angle.
// The sort is stable, so sorting a sorted trajectory is a no-op.
func SortByAngle(traj Trajectory) Trajectory {
	sorted := make(Trajectory, len(traj))
	copy(sorted, traj)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Angle() < sorted[j].Angle()
	})
	return sorted
}

// Slope is a straight line px = Intercept + Value·x fitted near the septum.
type Slope struct {
	Value     float64 `json:"value" msgpack:"value"`
	Intercept float64 `json:"intercept" msgpack:"intercept"`
	// Index of the sample closest to the septum.
	Index int        `json:"index" msgpack:"index"`
	From  TurnSample `json:"from" msgpack:"from"`
	To    TurnSample `json:"to" msgpack:"to"`
}

// At evaluates the fitted line.
func (s Slope) At(x float64) float64 { return s.Intercept + s.Value*x }

// SeptumSlope fits a line through the two samples halfWidth turns before and
// after the sample closest to septumX. Only these two endpoints are used so
// the trajectory curvature away from the crossing does not bias the slope.
func SeptumSlope(traj Trajectory, septumX float64, halfWidth int) (Slope, error) {
	if len(traj) == 0 {
		return Slope{}, ErrEmptyTrajectory
	}

	closest := 0
	best := math.Inf(1)
	for i, s := range traj {
		if d := math.Abs(s.X - septumX); d < best {
			best, closest = d, i
		}
	}

	lo, hi := closest-halfWidth, closest+halfWidth
	if lo < 0 || hi >= len(traj) {
		return Slope{}, ErrSeptumWindow
	}

	from, to := traj[lo], traj[hi]
	if from.X == to.X {
		return Slope{}, ErrDegenerateSlope
	}

	intercept, value := stat.LinearRegression(
		[]float64{from.X, to.X},
		[]float64{from.Px, to.Px},
		nil, false,
	)

	return Slope{
		Value:     value,
		Intercept: intercept,
		Index:     closest,
		From:      from,
		To:        to,
	}, nil
}
