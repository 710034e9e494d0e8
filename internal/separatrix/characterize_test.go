package separatrix_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/phasespace/internal/beam"
	"github.com/san-kum/phasespace/internal/lattice"
	"github.com/san-kum/phasespace/internal/separatrix"
)

// idealLine has identity optics. Offsets below boundary trace a triangle
// with vertices of radius r0 at 90, 210 and 330 degrees. Offsets at or above
// boundary drift linearly past the septum along px = slope·(x - septum) + 1e-3.
type idealLine struct {
	boundary float64
	r0       float64
	slope    float64
	septum   float64
}

func (l idealLine) vertex(k int) (float64, float64) {
	a := (90 + 120*float64(k%3)) * math.Pi / 180
	return l.r0 * math.Cos(a), l.r0 * math.Sin(a)
}

func (l idealLine) Track(ctx context.Context, particles beam.Particles, turns int) (*beam.TrackRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := beam.NewTrackRecord(len(particles), turns)
	m := (turns - 1) / 3
	for p, c := range particles {
		for t := 0; t < turns; t++ {
			rec.State[p][t] = beam.StateAlive
			if c.X < l.boundary {
				u := float64(t%(3*m)) / float64(m)
				seg := int(u)
				f := u - float64(seg)
				x0, p0 := l.vertex(seg)
				x1, p1 := l.vertex(seg + 1)
				rec.X[p][t] = x0 + f*(x1-x0)
				rec.Px[p][t] = p0 + f*(p1-p0)
				continue
			}
			x := c.X + float64(t)*(l.septum+0.015-c.X)/float64(turns-1)
			rec.X[p][t] = x
			rec.Px[p][t] = l.slope*(x-l.septum) + 1e-3
		}
	}
	return rec, nil
}

func (l idealLine) Twiss(ctx context.Context) (*beam.Twiss, error) {
	return &beam.Twiss{Beta: 1, Tune: 1.0 / 3}, nil
}

type countingObserver struct {
	tracks map[string]int
	steps  []separatrix.Step
}

func newCountingObserver() *countingObserver {
	return &countingObserver{tracks: map[string]int{}}
}

func (o *countingObserver) OnTrack(stage string, _, _ int, _ time.Duration) { o.tracks[stage]++ }
func (o *countingObserver) OnStep(s separatrix.Step)                        { o.steps = append(o.steps, s) }

type recordingRenderer struct {
	calls int
	last  *separatrix.Analysis
	err   error
}

func (r *recordingRenderer) Render(a *separatrix.Analysis) error {
	r.calls++
	r.last = a
	return r.err
}

var _ = Describe("Characterizer", func() {
	var (
		ctx  context.Context
		line idealLine
	)

	BeforeEach(func() {
		ctx = context.Background()
		line = idealLine{boundary: 0.0173, r0: 0.008, slope: -0.35, septum: separatrix.DefaultSeptumX}
	})

	Context("on a line with a known triangle", func() {
		It("recovers the area, slope and fixed points", func() {
			a, err := separatrix.New(line, separatrix.DefaultConfig()).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Search.Bracket.Stable).To(BeNumerically("<", line.boundary))
			Expect(a.Search.Bracket.Unstable).To(BeNumerically(">=", line.boundary))
			Expect(a.Search.Bracket.Width()).To(BeNumerically("<=", separatrix.DefaultTolerance))

			Expect(a.Result.StableArea).To(BeNumerically("~", 3*math.Sqrt(3)/4*line.r0*line.r0, 1e-12))
			Expect(a.Result.DpxDxAtSeptum).To(BeNumerically("~", line.slope, 1e-9))

			for i := 0; i < 3; i++ {
				r := math.Hypot(a.Result.XNormFixedPoints[i], a.Result.PxNormFixedPoints[i])
				Expect(r).To(BeNumerically("~", line.r0, 1e-12))
				Expect(a.Result.XFixedPoints[i]).To(Equal(a.Result.XNormFixedPoints[i]))
				Expect(a.Result.PxFixedPoints[i]).To(Equal(a.Result.PxNormFixedPoints[i]))
			}
		})

		It("keeps the intermediate products", func() {
			a, err := separatrix.New(line, separatrix.DefaultConfig()).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Cloud.Offsets).To(HaveLen(separatrix.DefaultSampleCount))
			Expect(a.Cloud.Offsets[len(a.Cloud.Offsets)-1]).To(Equal(separatrix.DefaultSampleMax))
			Expect(a.Cloud.Record.NumTurns()).To(Equal(separatrix.DefaultTurns))
			Expect(a.Triangle).To(HaveLen(separatrix.DefaultTurns))
			Expect(a.Boundary).To(HaveLen(len(a.Triangle)))
			Expect(a.Separatrix[len(a.Separatrix)-1].X).To(BeNumerically(">", line.septum))
			Expect(a.Slope.To.Turn - a.Slope.From.Turn).To(Equal(2 * separatrix.DefaultSlopeHalfWidth))
		})

		It("reports every tracking call and bisection step", func() {
			obs := newCountingObserver()
			a, err := separatrix.New(line, separatrix.DefaultConfig(), separatrix.WithObserver(obs)).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(obs.tracks).To(Equal(map[string]int{
				separatrix.StageSample:     1,
				separatrix.StageVerify:     1,
				separatrix.StageBisect:     len(a.Search.Steps),
				separatrix.StageSeparatrix: 1,
				separatrix.StageTriangle:   1,
			}))
			Expect(obs.steps).To(Equal(a.Search.Steps))
		})

		It("logs bisection steps at debug level", func() {
			var buf bytes.Buffer
			logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
			_, err := separatrix.New(line, separatrix.DefaultConfig(), separatrix.WithLogger(logger)).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(buf.String()).To(ContainSubstring("bisection step"))
			Expect(buf.String()).To(ContainSubstring("stable_area="))
		})
	})

	Context("with a renderer", func() {
		It("hands over the finished analysis once", func() {
			r := &recordingRenderer{}
			a, err := separatrix.New(line, separatrix.DefaultConfig(), separatrix.WithRenderer(r)).Run(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.calls).To(Equal(1))
			Expect(r.last).To(BeIdenticalTo(a))
		})

		It("does not fail the run when rendering fails", func() {
			r := &recordingRenderer{err: errors.New("disk full")}
			res, err := separatrix.Characterize(ctx, line, r)
			Expect(err).NotTo(HaveOccurred())
			Expect(r.calls).To(Equal(1))
			Expect(res.StableArea).To(BeNumerically(">", 0))
		})

		It("skips rendering when none is given", func() {
			res, err := separatrix.Characterize(ctx, line, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(res.DpxDxAtSeptum).To(BeNumerically("~", line.slope, 1e-9))
		})

		It("returns the same result with or without a plot", func() {
			r := &recordingRenderer{}
			plotted, err := separatrix.Characterize(ctx, line, r)
			Expect(err).NotTo(HaveOccurred())
			plain, err := separatrix.Characterize(ctx, line, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(plotted).To(Equal(plain))
			Expect(r.calls).To(Equal(1))
		})
	})

	Context("when the run cannot complete", func() {
		It("rejects an invalid configuration before tracking", func() {
			cfg := separatrix.DefaultConfig()
			cfg.Tolerance = 0
			obs := newCountingObserver()
			_, err := separatrix.New(line, cfg, separatrix.WithObserver(obs)).Run(ctx)
			Expect(err).To(MatchError(separatrix.ErrInvalidConfig))
			Expect(obs.tracks).To(BeEmpty())
		})

		It("fails when the upper offset is stable", func() {
			line.boundary = 0.5
			_, err := separatrix.New(line, separatrix.DefaultConfig()).Run(ctx)
			Expect(err).To(MatchError(separatrix.ErrBracket))
		})

		It("fails when the separatrix never reaches the septum window", func() {
			cfg := separatrix.DefaultConfig()
			cfg.SeptumX = line.septum + 0.015 - 1e-5
			_, err := separatrix.New(line, cfg).Run(ctx)
			Expect(err).To(MatchError(separatrix.ErrSeptumWindow))
		})

		It("stops when canceled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, err := separatrix.New(line, separatrix.DefaultConfig()).Run(cctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
		})
	})

	Context("on the default sextupole lattice", func() {
		It("finds a positive stable triangle", func() {
			obs := newCountingObserver()
			a, err := separatrix.New(lattice.NewResonance(), separatrix.DefaultConfig(), separatrix.WithObserver(obs)).Run(ctx)
			Expect(err).NotTo(HaveOccurred())

			Expect(a.Result.StableArea).To(BeNumerically(">", 0))
			Expect(math.IsInf(a.Result.DpxDxAtSeptum, 0) || math.IsNaN(a.Result.DpxDxAtSeptum)).To(BeFalse())
			Expect(a.Search.Bracket.Stable).To(BeNumerically("~", 0.00956, 1e-4))

			r1 := math.Hypot(a.Result.XNormFixedPoints[0], a.Result.PxNormFixedPoints[0])
			for i := 1; i < 3; i++ {
				r := math.Hypot(a.Result.XNormFixedPoints[i], a.Result.PxNormFixedPoints[i])
				Expect(r / r1).To(BeNumerically("~", 1, 0.1))
			}
			Expect(obs.tracks[separatrix.StageBisect]).To(Equal(len(a.Search.Steps)))
		})
	})
})
