// Package propagation models the acoustic path between a source and a
// receiver: spherical spreading loss and travel delay in sea water.
package propagation

import (
	"math"
)

// SoundSpeed is the nominal speed of sound in sea water, in m/s.
const SoundSpeed = 1500.0

// minRange avoids a singular transmission loss inside the 1 m reference
// distance of the source level.
const minRange = 1.0

// SpreadingLoss returns the spherical spreading transmission loss in dB for
// a range of r meters.
func SpreadingLoss(r float64) float64 {
	if r < minRange {
		r = minRange
	}
	return 20 * math.Log10(r)
}

// Gain returns the linear amplitude factor applied to a signal after
// traveling r meters.
func Gain(r float64) float64 {
	return math.Pow(10, -SpreadingLoss(r)/20)
}

// DelaySamples returns the travel delay over r meters expressed in samples
// at sampling frequency fs.
func DelaySamples(r, fs float64) int {
	if r < 0 {
		return 0
	}
	return int(r / SoundSpeed * fs)
}
