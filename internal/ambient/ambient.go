// Package ambient models background ocean noise from environmental
// conditions: sea state, rain and distant shipping. Reference spectra follow
// the curves in chapter 7 of Hodges, "Underwater Acoustics: Analysis, Design,
// and Performance of SONAR" (Wiley, 2010), embedded as CSV tables. Noise is
// synthesized in µPa by shaping white noise onto the condition's spectrum.
package ambient

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"

	"github.com/labsonar/synthesis/internal/dsp"
)

// Rain is a rain noise intensity.
type Rain int

const (
	RainNone      Rain = 0
	RainLight     Rain = 1 // 1 mm/h
	RainModerate  Rain = 2 // 5 mm/h
	RainHeavy     Rain = 3 // 10 mm/h
	RainVeryHeavy Rain = 4 // 100 mm/h
)

var rainNames = map[Rain]string{
	RainNone:      "none",
	RainLight:     "light",
	RainModerate:  "moderate",
	RainHeavy:     "heavy",
	RainVeryHeavy: "very_heavy",
}

// String describes the rain condition, e.g. "moderate rain".
func (r Rain) String() string {
	if r == RainNone {
		return "without rain"
	}
	return strings.ReplaceAll(rainNames[r], "_", " ") + " rain"
}

// Name returns the machine-readable name used in configs and the API.
func (r Rain) Name() string { return rainNames[r] }

// ParseRain resolves a rain condition from its machine-readable name.
func ParseRain(name string) (Rain, error) {
	for r, n := range rainNames {
		if n == name {
			return r, nil
		}
	}
	return RainNone, fmt.Errorf("unknown rain condition %q", name)
}

// Spectrum returns the rain noise reference spectrum: frequencies in Hz and
// levels in dB re 1 µPa/√Hz. RainNone yields a zero spectrum.
func (r Rain) Spectrum() (freqs, levels []float64, err error) {
	if err := loadTables(); err != nil {
		return nil, nil, err
	}
	freqs, levels = rainTable.column(int(r) - 1)
	return freqs, levels, nil
}

// Noise returns n samples of synthetic rain noise in µPa at sampling
// frequency fs. RainNone yields silence.
func (r Rain) Noise(n int, fs float64, rng *rand.Rand) ([]float64, error) {
	if r == RainNone {
		return make([]float64, n), nil
	}
	return conditionNoise(r, n, fs, rng)
}

// Sea is a sea state, 0 (calm) through 6.
type Sea int

// SeaStates is the number of modeled sea states.
const SeaStates = 7

// String describes the sea state, e.g. "sea state 3".
func (s Sea) String() string { return fmt.Sprintf("sea state %d", int(s)) }

// ParseSea resolves a sea state from its numeric value.
func ParseSea(state int) (Sea, error) {
	if state < 0 || state >= SeaStates {
		return 0, fmt.Errorf("sea state must be in [0, %d], got %d", SeaStates-1, state)
	}
	return Sea(state), nil
}

// Spectrum returns the sea state reference spectrum: frequencies in Hz and
// levels in dB re 1 µPa/√Hz.
func (s Sea) Spectrum() (freqs, levels []float64, err error) {
	if err := loadTables(); err != nil {
		return nil, nil, err
	}
	freqs, levels = seaTable.column(int(s))
	return freqs, levels, nil
}

// Noise returns n samples of synthetic sea state noise in µPa.
func (s Sea) Noise(n int, fs float64, rng *rand.Rand) ([]float64, error) {
	return conditionNoise(s, n, fs, rng)
}

// Shipping is a distant shipping noise intensity.
type Shipping int

const (
	ShippingNone   Shipping = 0
	ShippingLevel1 Shipping = 1
	ShippingLevel2 Shipping = 2
	ShippingLevel3 Shipping = 3
	ShippingLevel4 Shipping = 4
	ShippingLevel5 Shipping = 5
	ShippingLevel6 Shipping = 6
	ShippingLevel7 Shipping = 7
)

// String describes the shipping condition, e.g. "shipping noise level 3".
func (s Shipping) String() string {
	if s == ShippingNone {
		return "without shipping noise"
	}
	return fmt.Sprintf("shipping noise level %d", int(s))
}

// Name returns the machine-readable name used in configs and the API.
func (s Shipping) Name() string {
	if s == ShippingNone {
		return "none"
	}
	return fmt.Sprintf("level_%d", int(s))
}

// ParseShipping resolves a shipping condition from its machine-readable name.
func ParseShipping(name string) (Shipping, error) {
	if name == "none" {
		return ShippingNone, nil
	}
	var level int
	if _, err := fmt.Sscanf(name, "level_%d", &level); err != nil || level < 1 || level > 7 {
		return ShippingNone, fmt.Errorf("unknown shipping condition %q", name)
	}
	return Shipping(level), nil
}

// Spectrum returns the shipping noise reference spectrum: frequencies in Hz
// and levels in dB re 1 µPa/√Hz. ShippingNone yields a zero spectrum.
func (s Shipping) Spectrum() (freqs, levels []float64, err error) {
	if err := loadTables(); err != nil {
		return nil, nil, err
	}
	freqs, levels = shipTable.column(int(s) - 1)
	return freqs, levels, nil
}

// Noise returns n samples of synthetic shipping noise in µPa. ShippingNone
// yields silence.
func (s Shipping) Noise(n int, fs float64, rng *rand.Rand) ([]float64, error) {
	if s == ShippingNone {
		return make([]float64, n), nil
	}
	return conditionNoise(s, n, fs, rng)
}

// source is any noise condition with a reference spectrum.
type source interface {
	Spectrum() (freqs, levels []float64, err error)
}

func conditionNoise(src source, n int, fs float64, rng *rand.Rand) ([]float64, error) {
	freqs, levels, err := src.Spectrum()
	if err != nil {
		return nil, err
	}
	return dsp.NoiseFromSpectrum(freqs, levels, n, fs, rng)
}

// Conditions is a full environmental description of the background.
type Conditions struct {
	Sea      Sea
	Rain     Rain
	Shipping Shipping
}

// String describes the combined conditions.
func (c Conditions) String() string {
	return fmt.Sprintf("%s, %s, %s", c.Sea, c.Rain, c.Shipping)
}

// Noise returns n samples of combined background noise in µPa: the sum of
// the sea state, rain and shipping components.
func (c Conditions) Noise(n int, fs float64, rng *rand.Rand) ([]float64, error) {
	sea, err := c.Sea.Noise(n, fs, rng)
	if err != nil {
		return nil, fmt.Errorf("sea state noise: %w", err)
	}
	rain, err := c.Rain.Noise(n, fs, rng)
	if err != nil {
		return nil, fmt.Errorf("rain noise: %w", err)
	}
	ship, err := c.Shipping.Noise(n, fs, rng)
	if err != nil {
		return nil, fmt.Errorf("shipping noise: %w", err)
	}
	for i := range sea {
		sea[i] += rain[i] + ship[i]
	}
	return sea, nil
}

// Spectrum returns the combined background spectrum at sampling frequency
// fs: the union of the three frequency grids truncated at Nyquist, with each
// component interpolated onto it and the levels summed in the linear domain.
func (c Conditions) Spectrum(fs float64) (freqs, levels []float64, err error) {
	rainF, rainL, err := c.Rain.Spectrum()
	if err != nil {
		return nil, nil, err
	}
	seaF, seaL, err := c.Sea.Spectrum()
	if err != nil {
		return nil, nil, err
	}
	shipF, shipL, err := c.Shipping.Spectrum()
	if err != nil {
		return nil, nil, err
	}

	freqs = mergeGrids(fs/2, rainF, seaF, shipF)

	rainI := dsp.Interp(freqs, rainF, rainL, 0, 0)
	seaI := dsp.Interp(freqs, seaF, seaL, 0, 0)
	shipI := dsp.Interp(freqs, shipF, shipL, 0, 0)

	levels = make([]float64, len(freqs))
	for i := range freqs {
		linear := dsp.DBToLinear(rainI[i]) + dsp.DBToLinear(seaI[i]) + dsp.DBToLinear(shipI[i])
		levels[i] = 20 * math.Log10(linear)
	}
	return freqs, levels, nil
}

// mergeGrids returns the sorted union of the grids, truncated at limit.
func mergeGrids(limit float64, grids ...[]float64) []float64 {
	seen := make(map[float64]struct{})
	var out []float64
	for _, g := range grids {
		for _, f := range g {
			if f > limit {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Float64s(out)
	return out
}
