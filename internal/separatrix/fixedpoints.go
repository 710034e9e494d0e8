package separatrix

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/floats"
)

// Point is a phase-space position.
type Point struct {
	X  float64 `json:"x" msgpack:"x"`
	Px float64 `json:"px" msgpack:"px"`
}

// FixedPoint is one resonance fixed point in both coordinate systems.
type FixedPoint struct {
	// Index into the trajectory the point was taken from.
	Index      int   `json:"index" msgpack:"index"`
	Physical   Point `json:"physical" msgpack:"physical"`
	Normalized Point `json:"normalized" msgpack:"normalized"`
}

// FixedPoints holds the outermost sample and its +120 and -120 degree
// partners, in that order.
type FixedPoints [3]FixedPoint

// FindFixedPoints locates the three third-order fixed points on a trajectory
// just inside the stable region. The first is the sample of largest
// normalized radius r1; the others are the largest-radius samples within
// maskFraction·r1 of the first rotated by ±120 degrees.
func FindFixedPoints(traj Trajectory, maskFraction float64) (FixedPoints, error) {
	if len(traj) == 0 {
		return FixedPoints{}, ErrEmptyTrajectory
	}

	z := make([]complex128, len(traj))
	r := make([]float64, len(traj))
	for i, s := range traj {
		z[i] = complex(s.XNorm, s.PxNorm)
		r[i] = cmplx.Abs(z[i])
	}

	i1 := floats.MaxIdx(r)
	z1, r1 := z[i1], r[i1]

	pick := func(rotation float64) (int, error) {
		target := z1 * cmplx.Rect(1, rotation*math.Pi/180)
		best := -1
		for i := range z {
			if cmplx.Abs(z[i]-target) >= maskFraction*r1 {
				continue
			}
			if best < 0 || r[i] > r[best] {
				best = i
			}
		}
		if best < 0 {
			return 0, &FixedPointError{Rotation: rotation, Radius: r1}
		}
		return best, nil
	}

	i2, err := pick(120)
	if err != nil {
		return FixedPoints{}, err
	}
	i3, err := pick(-120)
	if err != nil {
		return FixedPoints{}, err
	}

	var fp FixedPoints
	for k, i := range [3]int{i1, i2, i3} {
		s := traj[i]
		fp[k] = FixedPoint{
			Index:      i,
			Physical:   Point{X: s.X, Px: s.Px},
			Normalized: Point{X: s.XNorm, Px: s.PxNorm},
		}
	}
	return fp, nil
}
