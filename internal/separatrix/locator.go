package separatrix

import (
	"context"
	"fmt"

	"github.com/san-kum/phasespace/internal/beam"
)

// Bracket is the current bisection interval. Stable never reaches the
// septum within the turn window; Unstable does.
type Bracket struct {
	Stable   float64 `json:"stable" msgpack:"stable"`
	Unstable float64 `json:"unstable" msgpack:"unstable"`
}

func (b Bracket) Width() float64 { return b.Unstable - b.Stable }

// Step is one bisection iteration.
type Step struct {
	Iteration int     `json:"iteration" msgpack:"iteration"`
	Offset    float64 `json:"offset" msgpack:"offset"`
	Unstable  bool    `json:"unstable" msgpack:"unstable"`
	Bracket   Bracket `json:"bracket" msgpack:"bracket"`
}

// Search is the outcome of a converged bisection.
type Search struct {
	Bracket Bracket
	Steps   []Step
}

// Locate bisects on the initial horizontal offset until the bracket is no
// wider than cfg.Tolerance. A particle is unstable when any alive sample of
// its trajectory exceeds cfg.SeptumX.
func Locate(ctx context.Context, tr beam.Tracker, cfg Config, observers ...Observer) (*Search, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := tracking{tr, observers}

	if cfg.VerifyBracket {
		rec, err := t.run(ctx, StageVerify, beam.NewParticles(cfg.UnstableStart), cfg.Turns)
		if err != nil {
			return nil, err
		}
		if !rec.Exceeds(cfg.SeptumX) {
			return nil, fmt.Errorf("%w: x=%g stays below septum %g for %d turns",
				ErrBracket, cfg.UnstableStart, cfg.SeptumX, cfg.Turns)
		}
	}

	b := Bracket{Stable: cfg.StableStart, Unstable: cfg.UnstableStart}
	search := &Search{Steps: make([]Step, 0, 32)}

	for i := 0; b.Width() > cfg.Tolerance; i++ {
		if i >= cfg.MaxIterations {
			return nil, fmt.Errorf("%w: bracket [%g, %g] after %d iterations",
				ErrNotConverged, b.Stable, b.Unstable, i)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		x := (b.Stable + b.Unstable) / 2
		rec, err := t.run(ctx, StageBisect, beam.NewParticles(x), cfg.Turns)
		if err != nil {
			return nil, err
		}

		unstable := rec.Exceeds(cfg.SeptumX)
		if unstable {
			b.Unstable = x
		} else {
			b.Stable = x
		}

		s := Step{Iteration: i, Offset: x, Unstable: unstable, Bracket: b}
		search.Steps = append(search.Steps, s)
		t.step(s)
	}

	search.Bracket = b
	return search, nil
}
