package ambient

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpectrumTables(t *testing.T) {
	for state := 0; state < SeaStates; state++ {
		freqs, levels, err := Sea(state).Spectrum()
		require.NoError(t, err)
		require.NotEmpty(t, freqs)
		require.Len(t, levels, len(freqs))
	}

	// Severity is monotone at every frequency.
	_, calm, err := Sea(0).Spectrum()
	require.NoError(t, err)
	_, rough, err := Sea(6).Spectrum()
	require.NoError(t, err)
	for i := range calm {
		assert.Greater(t, rough[i], calm[i])
	}

	_, light, err := RainLight.Spectrum()
	require.NoError(t, err)
	_, heavy, err := RainVeryHeavy.Spectrum()
	require.NoError(t, err)
	for i := range light {
		assert.Greater(t, heavy[i], light[i])
	}
}

func TestNoneConditionsAreSilent(t *testing.T) {
	_, levels, err := RainNone.Spectrum()
	require.NoError(t, err)
	for _, l := range levels {
		assert.Zero(t, l)
	}

	rng := rand.New(rand.NewSource(1))
	noise, err := ShippingNone.Noise(512, 48000, rng)
	require.NoError(t, err)
	for _, v := range noise {
		assert.Zero(t, v)
	}
}

func TestParseConditions(t *testing.T) {
	r, err := ParseRain("very_heavy")
	require.NoError(t, err)
	assert.Equal(t, RainVeryHeavy, r)

	_, err = ParseRain("torrential")
	assert.Error(t, err)

	s, err := ParseSea(4)
	require.NoError(t, err)
	assert.Equal(t, Sea(4), s)

	_, err = ParseSea(9)
	assert.Error(t, err)

	sh, err := ParseShipping("level_3")
	require.NoError(t, err)
	assert.Equal(t, ShippingLevel3, sh)

	_, err = ParseShipping("level_9")
	assert.Error(t, err)
}

func TestConditionStrings(t *testing.T) {
	assert.Equal(t, "without rain", RainNone.String())
	assert.Equal(t, "very heavy rain", RainVeryHeavy.String())
	assert.Equal(t, "sea state 2", Sea(2).String())
	assert.Equal(t, "without shipping noise", ShippingNone.String())
	assert.Equal(t, "shipping noise level 5", ShippingLevel5.String())
}

func TestConditionsNoise(t *testing.T) {
	c := Conditions{Sea: 3, Rain: RainModerate, Shipping: ShippingLevel2}

	n := 2048
	noise, err := c.Noise(n, 48000, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	require.Len(t, noise, n)

	again, err := c.Noise(n, 48000, rand.New(rand.NewSource(11)))
	require.NoError(t, err)
	assert.Equal(t, noise, again, "same seed must reproduce the run")
}

func TestConditionsSpectrum(t *testing.T) {
	c := Conditions{Sea: 6, Rain: RainVeryHeavy, Shipping: ShippingLevel7}

	freqs, levels, err := c.Spectrum(48000)
	require.NoError(t, err)
	require.Len(t, levels, len(freqs))

	for i := 1; i < len(freqs); i++ {
		assert.Greater(t, freqs[i], freqs[i-1], "grid must be ascending")
	}
	for _, f := range freqs {
		assert.LessOrEqual(t, f, 24000.0, "grid must respect Nyquist")
	}

	// The combined level is at least each component's level wherever the
	// component is defined (linear-domain sum only adds power).
	seaF, seaL, err := c.Sea.Spectrum()
	require.NoError(t, err)
	combined := make(map[float64]float64, len(freqs))
	for i, f := range freqs {
		combined[f] = levels[i]
	}
	for i, f := range seaF {
		if l, ok := combined[f]; ok {
			assert.GreaterOrEqual(t, l+1e-9, seaL[i])
		}
	}
}
