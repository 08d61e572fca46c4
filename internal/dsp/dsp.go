// Package dsp provides the signal processing kernels used by the synthesis
// pipeline: linear-phase FIR design, FIR filtering, averaged-FFT spectrum
// estimation and the white-noise shaping used to realize ambient spectra.
package dsp

import (
	"math"
)

// DBToLinear converts a level in dB to linear amplitude (20 dB per decade).
func DBToLinear(db float64) float64 {
	return math.Pow(10, db/20)
}

// LinearToDB converts a linear amplitude to a level in dB.
func LinearToDB(amplitude float64) float64 {
	return 20 * math.Log10(amplitude)
}

// Hamming returns an n-point Hamming window.
func Hamming(n int) []float64 {
	w := make([]float64, n)
	if n == 1 {
		w[0] = 1
		return w
	}
	for i := range w {
		w[i] = 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
	}
	return w
}

// Interp evaluates the piecewise-linear function defined by the points
// (xp, fp) at every position in x. Positions below xp[0] evaluate to left,
// positions above xp[len(xp)-1] evaluate to right. xp must be ascending.
func Interp(x, xp, fp []float64, left, right float64) []float64 {
	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = interpAt(xi, xp, fp, left, right)
	}
	return out
}

func interpAt(x float64, xp, fp []float64, left, right float64) float64 {
	n := len(xp)
	if x < xp[0] {
		return left
	}
	if x > xp[n-1] {
		return right
	}
	// Binary search for the segment containing x.
	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if xp[mid] <= x {
			lo = mid
		} else {
			hi = mid
		}
	}
	if xp[hi] == xp[lo] {
		return fp[lo]
	}
	t := (x - xp[lo]) / (xp[hi] - xp[lo])
	return fp[lo] + t*(fp[hi]-fp[lo])
}

// linspace returns n evenly spaced values over [start, stop].
func linspace(start, stop float64, n int) []float64 {
	out := make([]float64, n)
	if n == 1 {
		out[0] = start
		return out
	}
	step := (stop - start) / float64(n-1)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	out[n-1] = stop
	return out
}
