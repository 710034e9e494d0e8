package separatrix

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig indicates a configuration that cannot drive a search.
	ErrInvalidConfig = errors.New("separatrix: invalid configuration")

	// ErrNotConverged indicates the bisection ran out of iterations.
	ErrNotConverged = errors.New("separatrix: bisection did not converge")

	// ErrBracket indicates the upper search bound never reaches the septum.
	ErrBracket = errors.New("separatrix: upper offset is stable, boundary not bracketed")

	// ErrEmptyTrajectory indicates the analysed particle has no alive samples.
	ErrEmptyTrajectory = errors.New("separatrix: trajectory has no surviving samples")

	// ErrSeptumWindow indicates the sample closest to the septum is too close
	// to either end of the trajectory for the slope window.
	ErrSeptumWindow = errors.New("separatrix: septum crossing too close to trajectory edge")

	// ErrDegenerateSlope indicates both slope samples share the same x.
	ErrDegenerateSlope = errors.New("separatrix: slope samples have identical x")

	// ErrFixedPointNotFound indicates no sample lies near a rotated fixed point.
	ErrFixedPointNotFound = errors.New("separatrix: no sample near rotated fixed point")
)

// TrackingError wraps a tracker failure with the stage and offset involved.
type TrackingError struct {
	Stage   string
	Offset  float64
	Wrapped error
}

func (e *TrackingError) Error() string {
	return fmt.Sprintf("separatrix: tracking failed in %s at x=%g: %v", e.Stage, e.Offset, e.Wrapped)
}

func (e *TrackingError) Unwrap() error {
	return e.Wrapped
}

// FixedPointError reports which rotated search found no candidate.
type FixedPointError struct {
	// Rotation is +120 or -120 degrees.
	Rotation float64
	Radius   float64
}

func (e *FixedPointError) Error() string {
	return fmt.Sprintf("%v (rotation %+.0f deg, r1=%g)", ErrFixedPointNotFound, e.Rotation, e.Radius)
}

func (e *FixedPointError) Unwrap() error {
	return ErrFixedPointNotFound
}
