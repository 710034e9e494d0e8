package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/phasespace/internal/config"
	"github.com/san-kum/phasespace/internal/separatrix"
)

var ErrEmptyGrid = errors.New("scan: grid has no axes")

// Axis is one scanned lattice parameter.
type Axis struct {
	Name   string
	Values []float64
}

// ParseAxis reads "name=start:stop:count" or "name=v1,v2,...".
func ParseAxis(s string) (Axis, error) {
	name, values, ok := strings.Cut(s, "=")
	if !ok || name == "" || values == "" {
		return Axis{}, fmt.Errorf("scan: axis %q is not name=values", s)
	}
	a := Axis{Name: strings.TrimSpace(name)}

	if parts := strings.Split(values, ":"); len(parts) == 3 {
		lo, err1 := strconv.ParseFloat(parts[0], 64)
		hi, err2 := strconv.ParseFloat(parts[1], 64)
		n, err3 := strconv.Atoi(parts[2])
		if err := errors.Join(err1, err2, err3); err != nil {
			return Axis{}, fmt.Errorf("scan: axis %q: %w", s, err)
		}
		if n < 2 {
			return Axis{}, fmt.Errorf("scan: axis %q needs at least 2 points", s)
		}
		a.Values = floats.Span(make([]float64, n), lo, hi)
		return a, nil
	}

	for _, f := range strings.Split(values, ",") {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return Axis{}, fmt.Errorf("scan: axis %q: %w", s, err)
		}
		a.Values = append(a.Values, v)
	}
	return a, nil
}

// Grid is the cartesian product of its axes.
type Grid []Axis

// Points enumerates the grid with the last axis varying fastest.
func (g Grid) Points() []map[string]float64 {
	var out []map[string]float64
	var walk func(depth int, current map[string]float64)
	walk = func(depth int, current map[string]float64) {
		if depth == len(g) {
			out = append(out, current)
			return
		}
		for _, v := range g[depth].Values {
			next := make(map[string]float64, len(current)+1)
			for k, x := range current {
				next[k] = x
			}
			next[g[depth].Name] = v
			walk(depth+1, next)
		}
	}
	if len(g) > 0 {
		walk(0, map[string]float64{})
	}
	return out
}

// Outcome is the characterization of one grid point. A point that could not
// be characterized keeps its error and does not stop the scan.
type Outcome struct {
	Params map[string]float64
	Result separatrix.Result
	Search separatrix.Bracket
	Err    error
}

type Scanner struct {
	base    config.Config
	workers int
	logger  *slog.Logger
	opts    []separatrix.Option
}

// New builds a scanner around base. workers <= 0 uses one worker per CPU.
func New(base config.Config, workers int, logger *slog.Logger, opts ...separatrix.Option) *Scanner {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{base: base, workers: workers, logger: logger, opts: opts}
}

// Run characterizes every grid point. Each point gets its own lattice and
// characterizer, so points run concurrently on up to workers goroutines.
// Outcomes follow the order of g.Points.
func (s *Scanner) Run(ctx context.Context, g Grid) ([]Outcome, error) {
	if len(g) == 0 {
		return nil, ErrEmptyGrid
	}
	points := g.Points()
	out := make([]Outcome, len(points))

	eg, ctx := errgroup.WithContext(ctx)
	eg.SetLimit(s.workers)
	for i, p := range points {
		i, p := i, p
		eg.Go(func() error {
			out[i] = s.point(ctx, p)
			if errors.Is(out[i].Err, context.Canceled) || errors.Is(out[i].Err, context.DeadlineExceeded) {
				return out[i].Err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return out, err
	}
	return out, nil
}

func (s *Scanner) point(ctx context.Context, params map[string]float64) Outcome {
	o := Outcome{Params: params}

	line := s.base.Lattice.Build()
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := line.SetParam(name, params[name]); err != nil {
			o.Err = err
			return o
		}
	}
	if err := line.Validate(); err != nil {
		o.Err = err
		return o
	}

	a, err := separatrix.New(line, s.base.Search, s.opts...).Run(ctx)
	if err != nil {
		o.Err = err
		s.logger.Warn("scan point failed", "params", params, "err", err)
		return o
	}
	o.Result = a.Result
	o.Search = a.Search.Bracket
	s.logger.Debug("scan point", "params", params, "stable_area", a.Result.StableArea)
	return o
}

// Best returns the successful outcome with the largest score, or false if
// every point failed.
func Best(outcomes []Outcome, score func(separatrix.Result) float64) (Outcome, bool) {
	best, found := Outcome{}, false
	for _, o := range outcomes {
		if o.Err != nil {
			continue
		}
		if !found || score(o.Result) > score(best.Result) {
			best, found = o, true
		}
	}
	return best, found
}
