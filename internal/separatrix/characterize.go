package separatrix

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/san-kum/phasespace/internal/beam"
)

// Result is the externally visible outcome of a characterization.
type Result struct {
	StableArea        float64    `json:"stable_area" yaml:"stable_area" msgpack:"stable_area"`
	DpxDxAtSeptum     float64    `json:"dpx_dx_at_septum" yaml:"dpx_dx_at_septum" msgpack:"dpx_dx_at_septum"`
	XFixedPoints      [3]float64 `json:"x_fixed_points" yaml:"x_fixed_points" msgpack:"x_fixed_points"`
	PxFixedPoints     [3]float64 `json:"px_fixed_points" yaml:"px_fixed_points" msgpack:"px_fixed_points"`
	XNormFixedPoints  [3]float64 `json:"x_norm_fixed_points" yaml:"x_norm_fixed_points" msgpack:"x_norm_fixed_points"`
	PxNormFixedPoints [3]float64 `json:"px_norm_fixed_points" yaml:"px_norm_fixed_points" msgpack:"px_norm_fixed_points"`
}

// NewResult assembles a Result from the boundary analysis.
func NewResult(fp FixedPoints, slope Slope) Result {
	r := Result{
		StableArea:    StableArea(fp),
		DpxDxAtSeptum: slope.Value,
	}
	for i, p := range fp {
		r.XFixedPoints[i] = p.Physical.X
		r.PxFixedPoints[i] = p.Physical.Px
		r.XNormFixedPoints[i] = p.Normalized.X
		r.PxNormFixedPoints[i] = p.Normalized.Px
	}
	return r
}

// Analysis is a Result together with everything computed on the way.
type Analysis struct {
	Result      Result
	Config      Config
	Twiss       beam.Twiss
	Cloud       *Cloud
	Search      *Search
	Separatrix  Trajectory // tracked at Search.Bracket.Unstable
	Triangle    Trajectory // tracked at Search.Bracket.Stable, turn order
	Boundary    Trajectory // Triangle sorted by angle
	Slope       Slope
	FixedPoints FixedPoints
}

// Renderer consumes a finished analysis, typically to draw it.
type Renderer interface {
	Render(a *Analysis) error
}

type Option func(*Characterizer)

func WithLogger(l *slog.Logger) Option {
	return func(c *Characterizer) {
		if l != nil {
			c.logger = l
		}
	}
}

func WithObserver(o Observer) Option {
	return func(c *Characterizer) { c.observers = append(c.observers, o) }
}

func WithRenderer(r Renderer) Option {
	return func(c *Characterizer) { c.renderer = r }
}

// Characterizer runs the full analysis on one line. It holds no state
// between runs.
type Characterizer struct {
	line      beam.Line
	cfg       Config
	logger    *slog.Logger
	observers []Observer
	renderer  Renderer
}

func New(line beam.Line, cfg Config, opts ...Option) *Characterizer {
	c := &Characterizer{
		line:   line,
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Characterize runs with the default configuration. The renderer stands in
// for a plot switch: nil means no plot, anything else is called once with
// the finished analysis.
func Characterize(ctx context.Context, line beam.Line, plot Renderer) (Result, error) {
	opts := []Option{}
	if plot != nil {
		opts = append(opts, WithRenderer(plot))
	}
	a, err := New(line, DefaultConfig(), opts...).Run(ctx)
	if err != nil {
		return Result{}, err
	}
	return a.Result, nil
}

func (c *Characterizer) Run(ctx context.Context) (*Analysis, error) {
	if err := c.cfg.Validate(); err != nil {
		return nil, err
	}

	tw, err := c.line.Twiss(ctx)
	if err != nil {
		return nil, fmt.Errorf("separatrix: optics: %w", err)
	}
	c.logger.Info("optics", "beta", tw.Beta, "alpha", tw.Alpha, "tune", tw.Tune)

	a := &Analysis{Config: c.cfg, Twiss: *tw}

	a.Cloud, err = Sample(ctx, c.line, tw, c.cfg, c.observers...)
	if err != nil {
		return nil, err
	}
	c.logger.Info("sampled phase space", "particles", len(a.Cloud.Offsets), "turns", c.cfg.Turns)

	stepObservers := append([]Observer{logSteps{c.logger}}, c.observers...)
	a.Search, err = Locate(ctx, c.line, c.cfg, stepObservers...)
	if err != nil {
		return nil, err
	}
	c.logger.Info("separatrix located",
		"x_stable", a.Search.Bracket.Stable,
		"x_unstable", a.Search.Bracket.Unstable,
		"iterations", len(a.Search.Steps))

	t := tracking{c.line, c.observers}

	a.Separatrix, err = c.single(ctx, t, tw, StageSeparatrix, a.Search.Bracket.Unstable)
	if err != nil {
		return nil, err
	}
	a.Slope, err = SeptumSlope(a.Separatrix, c.cfg.SeptumX, c.cfg.SlopeHalfWidth)
	if err != nil {
		return nil, err
	}

	a.Triangle, err = c.single(ctx, t, tw, StageTriangle, a.Search.Bracket.Stable)
	if err != nil {
		return nil, err
	}
	a.Boundary = SortByAngle(a.Triangle)
	a.FixedPoints, err = FindFixedPoints(a.Triangle, c.cfg.MaskFraction)
	if err != nil {
		return nil, err
	}

	a.Result = NewResult(a.FixedPoints, a.Slope)
	c.logger.Info("characterized",
		"stable_area", a.Result.StableArea,
		"dpx_dx_at_septum", a.Result.DpxDxAtSeptum)

	if c.renderer != nil {
		if err := c.renderer.Render(a); err != nil {
			c.logger.Warn("render failed", "err", err)
		}
	}

	return a, nil
}

func (c *Characterizer) single(ctx context.Context, t tracking, tw *beam.Twiss, stage string, x float64) (Trajectory, error) {
	rec, err := t.run(ctx, stage, beam.NewParticles(x), c.cfg.Turns)
	if err != nil {
		return nil, err
	}
	traj := TrajectoryOf(rec, tw.Normalize(rec), 0)
	if len(traj) == 0 {
		return nil, fmt.Errorf("%w: %s at x=%g", ErrEmptyTrajectory, stage, x)
	}
	return traj, nil
}

type logSteps struct{ logger *slog.Logger }

func (l logSteps) OnTrack(string, int, int, time.Duration) {}

func (l logSteps) OnStep(s Step) {
	l.logger.Debug("bisection step",
		"iteration", s.Iteration,
		"x", s.Offset,
		"unstable", s.Unstable,
		"width", s.Bracket.Width())
}
