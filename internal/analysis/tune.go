package analysis

import (
	"errors"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/stat"
)

const minTuneSamples = 8

var ErrTooShort = errors.New("analysis: too few turns for a tune estimate")

// Tune returns the fractional tune in [0, 0.5] of a turn-by-turn signal,
// refined by parabolic interpolation around the strongest spectral line.
func Tune(xs []float64) (float64, error) {
	n := len(xs)
	if n < minTuneSamples {
		return 0, ErrTooShort
	}

	mean := stat.Mean(xs, nil)
	centered := make([]float64, n)
	for i, x := range xs {
		centered[i] = x - mean
	}

	coeffs := fft.FFTReal(centered)

	mag := make([]float64, n/2+1)
	for i := range mag {
		mag[i] = cmplx.Abs(coeffs[i])
	}

	peak := 1
	for i := 2; i < len(mag); i++ {
		if mag[i] > mag[peak] {
			peak = i
		}
	}

	offset := 0.0
	if peak > 0 && peak < len(mag)-1 {
		a, b, c := mag[peak-1], mag[peak], mag[peak+1]
		if d := a - 2*b + c; d != 0 {
			offset = 0.5 * (a - c) / d
		}
	}
	return (float64(peak) + offset) / float64(n), nil
}
