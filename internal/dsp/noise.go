package dsp

import (
	"fmt"
	"math"
	"math/rand"
)

// DesignTaps is the FIR order used to shape white noise onto a target
// spectrum. Odd so the design is type I and the response at DC and Nyquist
// is unconstrained.
const DesignTaps = 1025

// whiteNoiseSigma compensates the broadband level offset introduced by the
// shaping filter; calibrated against the reference spectra.
const whiteNoiseSigma = 1.13

// WhiteGaussian returns n samples of zero-mean Gaussian noise with the given
// standard deviation.
func WhiteGaussian(n int, sigma float64, rng *rand.Rand) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = rng.NormFloat64() * sigma
	}
	return out
}

// NoiseFromSpectrum synthesizes n samples of noise whose amplitude spectrum
// follows the piecewise-linear curve (freqs in Hz, levels in dB) at sampling
// frequency fs. The curve is clamped to the band [0, fs/2]: points above
// Nyquist are dropped and the level at Nyquist is interpolated (or
// extrapolated from the last two points when the curve ends below it), and a
// DC point is prepended when missing. White Gaussian noise is shaped by an
// FIR filter designed from the curve; the filter transient is discarded.
func NoiseFromSpectrum(freqs, levels []float64, n int, fs float64, rng *rand.Rand) ([]float64, error) {
	if len(freqs) != len(levels) {
		return nil, fmt.Errorf("freqs and levels must have the same length: %d != %d", len(freqs), len(levels))
	}
	if len(freqs) < 2 {
		return nil, fmt.Errorf("at least two spectrum points are required")
	}
	if n <= 0 {
		return nil, fmt.Errorf("sample count must be positive, got %d", n)
	}
	if freqs[0] > fs/2 {
		return nil, fmt.Errorf("spectrum starts at %g Hz, above Nyquist %g Hz", freqs[0], fs/2)
	}

	f := append([]float64(nil), freqs...)
	l := append([]float64(nil), levels...)

	nyquist := fs / 2
	if idx := firstAbove(f, nyquist); idx > 0 {
		if f[idx-1] == nyquist {
			f = f[:idx]
			l = l[:idx]
		} else {
			li := l[idx-1] + (l[idx]-l[idx-1])*(nyquist-f[idx-1])/(f[idx]-f[idx-1])
			f = append(f[:idx], nyquist)
			l = append(l[:idx], li)
		}
	} else if f[len(f)-1] != nyquist {
		last := len(f) - 1
		li := l[last] + (l[last]-l[last-1])*(nyquist-f[last-1])/(f[last]-f[last-1])
		f = append(f, nyquist)
		l = append(l, li)
	}

	if f[0] != 0 {
		f = append([]float64{0}, f...)
		l = append([]float64{l[0]}, l...)
	}

	// Normalize to [0, 1] of Nyquist for the filter design.
	for i := range f {
		f[i] /= nyquist
	}
	f[len(f)-1] = 1

	gains := make([]float64, len(l))
	for i, db := range l {
		gains[i] = math.Pow(10, db/20)
	}

	taps, err := FIRWin2(DesignTaps, f, gains)
	if err != nil {
		return nil, fmt.Errorf("filter design failed: %w", err)
	}

	// Generate extra samples so the filter transient can be dropped.
	white := WhiteGaussian(n+DesignTaps, whiteNoiseSigma, rng)
	shaped := Filter(taps, white)
	return shaped[DesignTaps:], nil
}

// firstAbove returns the index of the first element of f strictly greater
// than v, or 0 when no element is.
func firstAbove(f []float64, v float64) int {
	for i, x := range f {
		if x > v {
			return i
		}
	}
	return 0
}
