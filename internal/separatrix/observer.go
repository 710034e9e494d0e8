package separatrix

import (
	"context"
	"time"

	"github.com/san-kum/phasespace/internal/beam"
)

// Tracking stages reported to observers.
const (
	StageSample     = "sample"
	StageVerify     = "verify"
	StageBisect     = "bisect"
	StageSeparatrix = "separatrix"
	StageTriangle   = "triangle"
)

// Observer receives progress callbacks from a characterization run.
type Observer interface {
	OnTrack(stage string, particles, turns int, elapsed time.Duration)
	OnStep(step Step)
}

type tracking struct {
	tracker   beam.Tracker
	observers []Observer
}

func (t tracking) run(ctx context.Context, stage string, particles beam.Particles, turns int) (*beam.TrackRecord, error) {
	start := time.Now()
	rec, err := t.tracker.Track(ctx, particles, turns)
	if err == nil {
		err = rec.Validate()
	}
	if err != nil {
		offset := 0.0
		if len(particles) > 0 {
			offset = particles[0].X
		}
		return nil, &TrackingError{Stage: stage, Offset: offset, Wrapped: err}
	}

	elapsed := time.Since(start)
	for _, o := range t.observers {
		o.OnTrack(stage, len(particles), turns, elapsed)
	}
	return rec, nil
}

func (t tracking) step(s Step) {
	for _, o := range t.observers {
		o.OnStep(s)
	}
}
