package dsp

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHamming(t *testing.T) {
	w := Hamming(11)
	require.Len(t, w, 11)

	// Symmetric with the maximum at the center.
	for i := 0; i < 5; i++ {
		assert.InDelta(t, w[i], w[10-i], 1e-12)
	}
	assert.InDelta(t, 1.0, w[5], 1e-12)
	assert.InDelta(t, 0.08, w[0], 1e-12)
}

func TestInterp(t *testing.T) {
	xp := []float64{0, 1, 3}
	fp := []float64{10, 20, 40}

	out := Interp([]float64{-1, 0, 0.5, 2, 3, 5}, xp, fp, -99, 99)
	assert.Equal(t, -99.0, out[0])
	assert.InDelta(t, 10.0, out[1], 1e-12)
	assert.InDelta(t, 15.0, out[2], 1e-12)
	assert.InDelta(t, 30.0, out[3], 1e-12)
	assert.InDelta(t, 40.0, out[4], 1e-12)
	assert.Equal(t, 99.0, out[5])
}

func TestFIRWin2Validation(t *testing.T) {
	_, err := FIRWin2(4, []float64{0, 1}, []float64{1, 1})
	assert.Error(t, err, "even tap count")

	_, err = FIRWin2(11, []float64{0, 0.5}, []float64{1, 1})
	assert.Error(t, err, "grid must end at 1")

	_, err = FIRWin2(11, []float64{0, 0.6, 0.4, 1}, []float64{1, 1, 1, 1})
	assert.Error(t, err, "grid must be ascending")
}

func TestFIRWin2LowpassResponse(t *testing.T) {
	// Lowpass with cutoff at a quarter of Nyquist.
	taps, err := FIRWin2(101, []float64{0, 0.25, 0.25, 1}, []float64{1, 1, 0, 0})
	require.NoError(t, err)
	require.Len(t, taps, 101)

	// DC gain is the tap sum; should be close to unity.
	var sum float64
	for _, h := range taps {
		sum += h
	}
	assert.InDelta(t, 1.0, sum, 0.05)

	// A sine in the passband passes, one in the stopband is attenuated.
	fs := 1000.0
	n := 4000
	low := make([]float64, n)
	high := make([]float64, n)
	for i := 0; i < n; i++ {
		ti := float64(i) / fs
		low[i] = math.Sin(2 * math.Pi * 50 * ti)
		high[i] = math.Sin(2 * math.Pi * 400 * ti)
	}
	assert.Greater(t, rms(Filter(taps, low)[200:]), 0.5)
	assert.Less(t, rms(Filter(taps, high)[200:]), 0.05)
}

func TestFilterOverlapAddMatchesDirect(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	b := WhiteGaussian(64, 1, rng)
	x := WhiteGaussian(3000, 1, rng)

	direct := filterDirect(b, x)
	ola := filterOLA(b, x)
	require.Len(t, ola, len(x))
	for i := range direct {
		assert.InDelta(t, direct[i], ola[i], 1e-9)
	}
}

func TestEstimateSpectrumPeakBin(t *testing.T) {
	fs := 1024.0
	window := 256
	n := 8192
	binFreq := 32 * fs / float64(window) // exactly on bin 32

	x := make([]float64, n)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * binFreq * float64(i) / fs)
	}

	freqs, levels, err := EstimateSpectrum(x, window, 0.5, fs)
	require.NoError(t, err)
	require.Len(t, freqs, window/2)

	peak := 0
	for k := range levels {
		if levels[k] > levels[peak] {
			peak = k
		}
	}
	assert.Equal(t, 32, peak)
	assert.InDelta(t, binFreq, freqs[peak], 1e-9)
}

func TestEstimateSpectrumErrors(t *testing.T) {
	x := make([]float64, 100)

	_, _, err := EstimateSpectrum(x, 64, 1, 1000)
	assert.Error(t, err, "full overlap never advances")

	_, _, err = EstimateSpectrum(x[:10], 64, 0.5, 1000)
	assert.Error(t, err, "too short for a single frame")
}

func TestNoiseFromSpectrum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	freqs := []float64{10, 100, 1000, 10000, 40000}
	levels := []float64{40, 50, 50, 45, 30}

	n := 4096
	noise, err := NoiseFromSpectrum(freqs, levels, n, 48000, rng)
	require.NoError(t, err)
	assert.Len(t, noise, n)
	assert.Greater(t, rms(noise), 0.0)
}

func TestNoiseFromSpectrumDeterministic(t *testing.T) {
	freqs := []float64{10, 1000, 20000}
	levels := []float64{60, 55, 40}

	a, err := NoiseFromSpectrum(freqs, levels, 1024, 48000, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	b, err := NoiseFromSpectrum(freqs, levels, 1024, 48000, rand.New(rand.NewSource(1)))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestNoiseFromSpectrumErrors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	_, err := NoiseFromSpectrum([]float64{10, 100}, []float64{40}, 100, 48000, rng)
	assert.Error(t, err, "length mismatch")

	_, err = NoiseFromSpectrum([]float64{10, 100}, []float64{40, 40}, 0, 48000, rng)
	assert.Error(t, err, "non-positive sample count")

	_, err = NoiseFromSpectrum([]float64{50000, 60000}, []float64{40, 40}, 100, 48000, rng)
	assert.Error(t, err, "spectrum entirely above Nyquist")
}

func rms(x []float64) float64 {
	var acc float64
	for _, v := range x {
		acc += v * v
	}
	return math.Sqrt(acc / float64(len(x)))
}
