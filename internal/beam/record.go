package beam

import "context"

// Tracker advances particles turn by turn.
type Tracker interface {
	Track(ctx context.Context, particles Particles, turns int) (*TrackRecord, error)
}

// Line is a tracker that also exposes its linear optics.
type Line interface {
	Tracker
	Twiss(ctx context.Context) (*Twiss, error)
}

// Optics converts a physical record into normalized phase space.
type Optics interface {
	Normalize(rec *TrackRecord) *NormalizedRecord
}

// Particle states. Anything > 0 is alive.
const (
	StateAlive    = 1
	StateLost     = 0
	StateAperture = -1
)

// TrackRecord holds turn-by-turn coordinates indexed [particle][turn].
// Turn 0 is the initial condition. After a particle is lost its remaining
// samples are zero with a non-positive state.
type TrackRecord struct {
	X     [][]float64
	Px    [][]float64
	State [][]int
}

// NewTrackRecord allocates a zeroed record of the given shape.
func NewTrackRecord(particles, turns int) *TrackRecord {
	r := &TrackRecord{
		X:     make([][]float64, particles),
		Px:    make([][]float64, particles),
		State: make([][]int, particles),
	}
	for i := 0; i < particles; i++ {
		r.X[i] = make([]float64, turns)
		r.Px[i] = make([]float64, turns)
		r.State[i] = make([]int, turns)
	}
	return r
}

func (r *TrackRecord) NumParticles() int { return len(r.X) }

func (r *TrackRecord) NumTurns() int {
	if len(r.X) == 0 {
		return 0
	}
	return len(r.X[0])
}

// Alive reports whether particle p was inside the aperture at turn t.
func (r *TrackRecord) Alive(p, t int) bool {
	return r.State[p][t] > 0
}

// Exceeds reports whether any alive sample of any particle has x above
// threshold.
func (r *TrackRecord) Exceeds(threshold float64) bool {
	for p := range r.X {
		for t, x := range r.X[p] {
			if r.State[p][t] > 0 && x > threshold {
				return true
			}
		}
	}
	return false
}

// Validate checks that every row has the same number of turns.
func (r *TrackRecord) Validate() error {
	if len(r.Px) != len(r.X) || len(r.State) != len(r.X) {
		return ErrShape
	}
	n := r.NumTurns()
	for p := range r.X {
		if len(r.X[p]) != n || len(r.Px[p]) != n || len(r.State[p]) != n {
			return ErrShape
		}
	}
	return nil
}

// NormalizedRecord mirrors a TrackRecord in normalized coordinates.
type NormalizedRecord struct {
	XNorm  [][]float64
	PxNorm [][]float64
}
