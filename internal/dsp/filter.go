package dsp

import (
	"gonum.org/v1/gonum/dsp/fourier"
)

// olaThreshold is the tap*sample product above which Filter switches from
// direct convolution to FFT overlap-add.
const olaThreshold = 1 << 22

// Filter applies the FIR filter b to x and returns the filtered signal with
// the same length as x (the tail of the full convolution is discarded).
// Short signals are convolved directly; long ones via FFT overlap-add.
func Filter(b, x []float64) []float64 {
	if len(b) == 0 || len(x) == 0 {
		return make([]float64, len(x))
	}
	if len(b)*len(x) > olaThreshold && len(x) > 2*len(b) {
		return filterOLA(b, x)
	}
	return filterDirect(b, x)
}

func filterDirect(b, x []float64) []float64 {
	y := make([]float64, len(x))
	for i := range x {
		kmax := len(b)
		if i+1 < kmax {
			kmax = i + 1
		}
		var acc float64
		for k := 0; k < kmax; k++ {
			acc += b[k] * x[i-k]
		}
		y[i] = acc
	}
	return y
}

// filterOLA performs overlap-add convolution using real FFTs.
func filterOLA(b, x []float64) []float64 {
	fftSize := 1
	for fftSize < 8*len(b) {
		fftSize <<= 1
	}
	block := fftSize - len(b) + 1

	fft := fourier.NewFFT(fftSize)
	padded := make([]float64, fftSize)
	copy(padded, b)
	bf := fft.Coefficients(nil, padded)

	y := make([]float64, len(x)+len(b)-1)
	xf := make([]complex128, fftSize/2+1)
	buf := make([]float64, fftSize)
	seg := make([]float64, fftSize)

	for start := 0; start < len(x); start += block {
		end := start + block
		if end > len(x) {
			end = len(x)
		}
		for i := range seg {
			seg[i] = 0
		}
		copy(seg, x[start:end])

		fft.Coefficients(xf, seg)
		for k := range xf {
			xf[k] *= bf[k]
		}
		fft.Sequence(buf, xf)

		scale := 1 / float64(fftSize)
		limit := end - start + len(b) - 1
		for i := 0; i < limit && start+i < len(y); i++ {
			y[start+i] += buf[i] * scale
		}
	}
	return y[:len(x)]
}
