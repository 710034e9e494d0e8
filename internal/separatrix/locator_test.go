package separatrix

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/phasespace/internal/beam"
)

// thresholdTracker is unstable exactly for offsets >= boundary. Stable
// particles sit at x = 0, so the offset itself never reaches the septum.
type thresholdTracker struct {
	boundary float64
	septum   float64
	calls    int
	err      error
}

func (f *thresholdTracker) Track(_ context.Context, particles beam.Particles, turns int) (*beam.TrackRecord, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	rec := beam.NewTrackRecord(len(particles), turns)
	for p, c := range particles {
		for t := 0; t < turns; t++ {
			rec.State[p][t] = beam.StateAlive
			if c.X >= f.boundary && t == turns/2 {
				rec.X[p][t] = f.septum * 1.01
			}
		}
	}
	return rec, nil
}

func TestLocateConverges(t *testing.T) {
	tests := []struct {
		name             string
		boundary         float64
		stable, unstable float64
	}{
		{"default bracket", 0.0173, 0, 0.03},
		{"boundary near lower edge", 1.5e-5, 0, 0.03},
		{"boundary near upper edge", 0.02999, 0, 0.03},
		{"shifted bracket", 0.012345, 0.01, 0.02},
		{"wide bracket", 0.3, 0.1, 1.0},
		{"bracket beyond the septum", 0.05, 0.04, 0.06},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.StableStart, cfg.UnstableStart = tt.stable, tt.unstable

			tr := &thresholdTracker{boundary: tt.boundary, septum: cfg.SeptumX}
			s, err := Locate(context.Background(), tr, cfg)
			if err != nil {
				t.Fatalf("locate failed: %v", err)
			}

			b := s.Bracket
			if !(b.Stable < tt.boundary && tt.boundary <= b.Unstable) {
				t.Errorf("boundary %g not in [%g, %g]", tt.boundary, b.Stable, b.Unstable)
			}
			if b.Width() > cfg.Tolerance {
				t.Errorf("bracket width %g exceeds tolerance %g", b.Width(), cfg.Tolerance)
			}
			if tr.calls != len(s.Steps)+1 {
				t.Errorf("expected %d tracking calls, got %d", len(s.Steps)+1, tr.calls)
			}
		})
	}
}

func TestLocateIgnoresOffsetBeyondSeptum(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StableStart, cfg.UnstableStart = 0.1, 1.0

	tr := &thresholdTracker{boundary: 0.3, septum: cfg.SeptumX}
	s, err := Locate(context.Background(), tr, cfg)
	if err != nil {
		t.Fatalf("locate failed: %v", err)
	}
	if s.Steps[0].Unstable {
		t.Errorf("midpoint %g below the boundary classified unstable", s.Steps[0].Offset)
	}
	if s.Bracket.Stable <= 0.1 {
		t.Errorf("stable bound never moved: %+v", s.Bracket)
	}
}

func TestLocateNarrowsMonotonically(t *testing.T) {
	cfg := DefaultConfig()
	s, err := Locate(context.Background(), &thresholdTracker{boundary: 0.0111, septum: cfg.SeptumX}, cfg)
	if err != nil {
		t.Fatalf("locate failed: %v", err)
	}

	prev := Bracket{Stable: cfg.StableStart, Unstable: cfg.UnstableStart}
	for _, step := range s.Steps {
		if step.Bracket.Stable < prev.Stable {
			t.Errorf("iteration %d: stable bound decreased %g -> %g", step.Iteration, prev.Stable, step.Bracket.Stable)
		}
		if step.Bracket.Unstable > prev.Unstable {
			t.Errorf("iteration %d: unstable bound increased %g -> %g", step.Iteration, prev.Unstable, step.Bracket.Unstable)
		}
		if step.Bracket.Width() >= prev.Width() {
			t.Errorf("iteration %d: bracket did not shrink", step.Iteration)
		}
		if step.Unstable != (step.Offset >= 0.0111) {
			t.Errorf("iteration %d: x=%g misclassified", step.Iteration, step.Offset)
		}
		prev = step.Bracket
	}

	if prev != s.Bracket {
		t.Errorf("final bracket %+v does not match last step %+v", s.Bracket, prev)
	}
}

func TestLocateIterationLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxIterations = 5

	_, err := Locate(context.Background(), &thresholdTracker{boundary: 0.01, septum: cfg.SeptumX}, cfg)
	if !errors.Is(err, ErrNotConverged) {
		t.Errorf("expected ErrNotConverged, got %v", err)
	}
}

func TestLocateUnbracketed(t *testing.T) {
	cfg := DefaultConfig()
	tr := &thresholdTracker{boundary: 0.5, septum: cfg.SeptumX}

	_, err := Locate(context.Background(), tr, cfg)
	if !errors.Is(err, ErrBracket) {
		t.Errorf("expected ErrBracket, got %v", err)
	}
	if tr.calls != 1 {
		t.Errorf("expected a single verification call, got %d", tr.calls)
	}
}

func TestLocateSkipsVerification(t *testing.T) {
	cfg := DefaultConfig()
	cfg.VerifyBracket = false
	tr := &thresholdTracker{boundary: 0.02, septum: cfg.SeptumX}

	s, err := Locate(context.Background(), tr, cfg)
	if err != nil {
		t.Fatalf("locate failed: %v", err)
	}
	if tr.calls != len(s.Steps) {
		t.Errorf("expected %d calls, got %d", len(s.Steps), tr.calls)
	}
}

func TestLocatePropagatesTrackerFailure(t *testing.T) {
	boom := errors.New("integrator blew up")
	cfg := DefaultConfig()

	_, err := Locate(context.Background(), &thresholdTracker{err: boom}, cfg)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped tracker error, got %v", err)
	}

	var te *TrackingError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TrackingError, got %T", err)
	}
	if te.Stage != StageVerify || te.Offset != cfg.UnstableStart {
		t.Errorf("unexpected error context: stage=%s offset=%g", te.Stage, te.Offset)
	}
}

func TestLocateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := DefaultConfig()
	cfg.VerifyBracket = false
	_, err := Locate(ctx, &thresholdTracker{boundary: 0.01, septum: cfg.SeptumX}, cfg)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLocateInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.UnstableStart = cfg.StableStart

	_, err := Locate(context.Background(), &thresholdTracker{}, cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
}
