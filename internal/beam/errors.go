package beam

import "errors"

var (
	// ErrNoParticles indicates an empty particle set was passed to a tracker.
	ErrNoParticles = errors.New("beam: no particles to track")

	// ErrInvalidTurns indicates a non-positive turn count.
	ErrInvalidTurns = errors.New("beam: turn count must be positive")

	// ErrShape indicates a record whose per-particle rows differ in length.
	ErrShape = errors.New("beam: record rows have inconsistent shape")

	// ErrUnstableOptics indicates the one-turn linear map has no periodic
	// solution (|cos mu| >= 1).
	ErrUnstableOptics = errors.New("beam: linear motion is unstable, no periodic optics")
)
