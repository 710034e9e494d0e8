package observability

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/san-kum/phasespace/internal/separatrix"
)

// Collector bundles Prometheus metrics for a characterization run. It
// implements separatrix.Observer.
type Collector struct {
	gatherer prometheus.Gatherer

	TrackCalls    *prometheus.CounterVec
	TrackedTurns  prometheus.Counter
	TrackDuration *prometheus.HistogramVec
	BisectSteps   *prometheus.CounterVec
	BracketWidth  prometheus.Gauge
}

var _ separatrix.Observer = (*Collector)(nil)

// NewCollector registers the run metrics against reg, defaulting to the
// global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	calls, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phasespace_track_calls_total",
		Help: "Tracking calls issued, labeled by analysis stage.",
	}, []string{"stage"}), "phasespace_track_calls_total")
	if err != nil {
		return nil, err
	}

	turns, err := registerCounter(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "phasespace_tracked_turns_total",
		Help: "Particle-turns tracked across all stages.",
	}), "phasespace_tracked_turns_total")
	if err != nil {
		return nil, err
	}

	durations, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "phasespace_track_duration_seconds",
		Help:    "Wall time of one tracking call in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 5},
	}, []string{"stage"}), "phasespace_track_duration_seconds")
	if err != nil {
		return nil, err
	}

	steps, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "phasespace_bisection_steps_total",
		Help: "Bisection iterations, labeled by the outcome of the probe.",
	}, []string{"outcome"}), "phasespace_bisection_steps_total")
	if err != nil {
		return nil, err
	}

	width, err := registerGauge(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "phasespace_bracket_width",
		Help: "Current width of the separatrix bracket in meters.",
	}), "phasespace_bracket_width")
	if err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:      gatherer,
		TrackCalls:    calls,
		TrackedTurns:  turns,
		TrackDuration: durations,
		BisectSteps:   steps,
		BracketWidth:  width,
	}, nil
}

func (c *Collector) OnTrack(stage string, particles, turns int, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.TrackCalls.WithLabelValues(stage).Inc()
	c.TrackedTurns.Add(float64(particles * turns))
	c.TrackDuration.WithLabelValues(stage).Observe(elapsed.Seconds())
}

func (c *Collector) OnStep(s separatrix.Step) {
	if c == nil {
		return
	}
	outcome := "stable"
	if s.Unstable {
		outcome = "unstable"
	}
	c.BisectSteps.WithLabelValues(outcome).Inc()
	c.BracketWidth.Set(s.Bracket.Width())
}

// WriteTextfile dumps the gathered metrics in the node_exporter textfile
// format.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("observability: write %s: %w", path, err)
	}
	return nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounter(reg prometheus.Registerer, c prometheus.Counter, name string) (prometheus.Counter, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Counter); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return c, nil
}

func registerGauge(reg prometheus.Registerer, g prometheus.Gauge, name string) (prometheus.Gauge, error) {
	if err := reg.Register(g); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(prometheus.Gauge); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return g, nil
}
