package separatrix

import (
	"context"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/phasespace/internal/beam"
)

// Cloud is the diagnostic phase-space sample of a fan of offsets.
type Cloud struct {
	Offsets    []float64
	Record     *beam.TrackRecord
	Normalized *beam.NormalizedRecord
}

// Sample tracks SampleCount particles evenly spaced over [0, SampleMax]
// with zero momentum.
func Sample(ctx context.Context, tr beam.Tracker, optics beam.Optics, cfg Config, observers ...Observer) (*Cloud, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	offsets := floats.Span(make([]float64, cfg.SampleCount), 0, cfg.SampleMax)
	rec, err := tracking{tr, observers}.run(ctx, StageSample, beam.NewParticles(offsets...), cfg.Turns)
	if err != nil {
		return nil, err
	}

	return &Cloud{
		Offsets:    offsets,
		Record:     rec,
		Normalized: optics.Normalize(rec),
	}, nil
}
