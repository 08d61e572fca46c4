package dsp

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/dsp/fourier"
)

// FIRWin2 designs a type-I linear-phase FIR filter from an arbitrary
// frequency response using the frequency sampling method with a Hamming
// window. freqs are normalized to [0, 1] of the Nyquist frequency, must be
// ascending and must start at 0 and end at 1; gains are the desired linear
// amplitudes at those frequencies. numtaps must be odd so that the response
// at 0 and Nyquist is unconstrained.
func FIRWin2(numtaps int, freqs, gains []float64) ([]float64, error) {
	if numtaps < 3 || numtaps%2 == 0 {
		return nil, fmt.Errorf("numtaps must be odd and >= 3, got %d", numtaps)
	}
	if len(freqs) != len(gains) {
		return nil, fmt.Errorf("freqs and gains must have the same length: %d != %d", len(freqs), len(gains))
	}
	if len(freqs) < 2 {
		return nil, fmt.Errorf("at least two frequency points are required")
	}
	if freqs[0] != 0 || freqs[len(freqs)-1] != 1 {
		return nil, fmt.Errorf("freqs must start at 0 and end at 1, got [%g, %g]", freqs[0], freqs[len(freqs)-1])
	}
	for i := 1; i < len(freqs); i++ {
		if freqs[i] < freqs[i-1] {
			return nil, fmt.Errorf("freqs must be ascending")
		}
	}

	// Interpolation grid: one more than the next power of two at or above
	// numtaps, so the inverse transform length is a power of two.
	nfreqs := 1
	for nfreqs < numtaps {
		nfreqs <<= 1
	}
	nfreqs++
	n := 2 * (nfreqs - 1)

	grid := linspace(0, 1, nfreqs)
	response := Interp(grid, freqs, gains, gains[0], gains[len(gains)-1])

	// Linear phase: delay by (numtaps-1)/2 samples.
	delay := float64(numtaps-1) / 2
	coeffs := make([]complex128, nfreqs)
	for k, g := range response {
		phase := -delay * math.Pi * grid[k]
		coeffs[k] = complex(g*math.Cos(phase), g*math.Sin(phase))
	}

	fft := fourier.NewFFT(n)
	seq := fft.Sequence(nil, coeffs)

	window := Hamming(numtaps)
	taps := make([]float64, numtaps)
	for i := range taps {
		taps[i] = seq[i] / float64(n) * window[i]
	}
	return taps, nil
}
