package dsp

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// EstimateSpectrum estimates the mean amplitude spectrum of x by averaging
// orthonormal FFT magnitudes over overlapping windows. overlap is the
// fraction of each window shared with the next, in [0, 1). It returns the
// bin frequencies in Hz and the estimated levels in dB.
func EstimateSpectrum(x []float64, window int, overlap float64, fs float64) (freqs, levels []float64, err error) {
	if window < 2 {
		return nil, nil, fmt.Errorf("window must be >= 2, got %d", window)
	}
	if overlap < 0 || overlap >= 1 {
		return nil, nil, fmt.Errorf("overlap must be in [0, 1), got %g", overlap)
	}
	hop := int(float64(window) * (1 - overlap))
	if hop <= 0 {
		return nil, nil, fmt.Errorf("window %d with overlap %g yields an empty hop", window, overlap)
	}

	half := window / 2
	acc := make([]float64, half)
	coeffs := make([]complex128, window/2+1)
	fft := fourier.NewFFT(window)
	scale := 1 / math.Sqrt(float64(window))

	frames := 0
	for i := 0; i+hop+window <= len(x); i += hop {
		fft.Coefficients(coeffs, x[i:i+window])
		for k := 0; k < half; k++ {
			acc[k] += cmplx.Abs(coeffs[k]) * scale
		}
		frames++
	}
	if frames == 0 {
		return nil, nil, fmt.Errorf("signal of %d samples is too short for window %d", len(x), window)
	}

	freqs = make([]float64, half)
	levels = make([]float64, half)
	for k := 0; k < half; k++ {
		freqs[k] = float64(k) * fs / float64(window)
		levels[k] = 20 * math.Log10(acc[k]/float64(frames))
	}
	return freqs, levels, nil
}
