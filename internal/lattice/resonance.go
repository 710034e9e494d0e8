package lattice

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/phasespace/internal/beam"
)

var ErrUnknownParam = errors.New("lattice: unknown parameter")

const twissStep = 1e-9

// Resonance is a thin-sextupole ring tuned near a third-integer resonance.
type Resonance struct {
	Tune      float64 // horizontal tune
	Sextupole float64 // normalized kick strength S in p̂ += S·x̂² [m^-1/2]
	Beta      float64 // beta function at the observation point [m]
	Alpha     float64
	Aperture  float64 // physical half aperture [m]
}

func NewResonance() *Resonance {
	return &Resonance{
		Tune:      0.3433,
		Sextupole: 40,
		Beta:      10,
		Alpha:     0.5,
		Aperture:  0.1,
	}
}

func (r *Resonance) Track(ctx context.Context, particles beam.Particles, turns int) (*beam.TrackRecord, error) {
	if len(particles) == 0 {
		return nil, beam.ErrNoParticles
	}
	if turns <= 0 {
		return nil, beam.ErrInvalidTurns
	}

	rec := beam.NewTrackRecord(len(particles), turns)
	sb := math.Sqrt(r.Beta)
	sinMu, cosMu := math.Sincos(2 * math.Pi * r.Tune)

	type phase struct {
		xn, pn float64
		alive  bool
	}
	ps := make([]phase, len(particles))
	for i, c := range particles {
		ps[i] = phase{
			xn:    c.X / sb,
			pn:    (r.Alpha*c.X + r.Beta*c.Px) / sb,
			alive: true,
		}
	}

	for t := 0; t < turns; t++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for i := range ps {
			p := &ps[i]
			if !p.alive {
				continue
			}

			x := sb * p.xn
			px := (p.pn - r.Alpha*p.xn) / sb
			if math.IsNaN(x) || math.IsInf(x, 0) || math.Abs(x) > r.Aperture {
				p.alive = false
				rec.State[i][t] = beam.StateAperture
				continue
			}
			rec.X[i][t], rec.Px[i][t], rec.State[i][t] = x, px, beam.StateAlive

			kicked := p.pn + r.Sextupole*p.xn*p.xn
			p.xn, p.pn = p.xn*cosMu+kicked*sinMu, -p.xn*sinMu+kicked*cosMu
		}
	}

	return rec, nil
}

func (r *Resonance) Twiss(ctx context.Context) (*beam.Twiss, error) {
	return beam.ComputeTwiss(ctx, r, twissStep)
}

func (r *Resonance) GetParams() map[string]float64 {
	return map[string]float64{
		"tune":      r.Tune,
		"sextupole": r.Sextupole,
		"beta":      r.Beta,
		"alpha":     r.Alpha,
		"aperture":  r.Aperture,
	}
}

func (r *Resonance) SetParam(name string, value float64) error {
	switch name {
	case "tune":
		r.Tune = value
	case "sextupole":
		r.Sextupole = value
	case "beta":
		if value <= 0 {
			return fmt.Errorf("lattice: beta must be positive, got %g", value)
		}
		r.Beta = value
	case "alpha":
		r.Alpha = value
	case "aperture":
		if value <= 0 {
			return fmt.Errorf("lattice: aperture must be positive, got %g", value)
		}
		r.Aperture = value
	default:
		return fmt.Errorf("%w: %s", ErrUnknownParam, name)
	}
	return nil
}

// Validate checks the working point can be tracked.
func (r *Resonance) Validate() error {
	if r.Beta <= 0 {
		return fmt.Errorf("lattice: beta must be positive, got %g", r.Beta)
	}
	if r.Aperture <= 0 {
		return fmt.Errorf("lattice: aperture must be positive, got %g", r.Aperture)
	}
	if r.Tune <= 0 || r.Tune >= 1 {
		return fmt.Errorf("lattice: fractional tune must lie in (0, 1), got %g", r.Tune)
	}
	return nil
}
