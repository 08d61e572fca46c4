package dataset

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-audio/wav"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/synth"
)

func testResult() *synth.Result {
	ramp := make([]float64, 2000)
	for i := range ramp {
		ramp[i] = float64(i%100) - 50
	}
	return &synth.Result{
		SampleRate: 2000,
		Duration:   1.0,
		Seed:       42,
		Ships:      []string{"freighter"},
		Channels: []synth.Channel{
			{Hydrophone: "north", Samples: ramp},
			{Hydrophone: "south", Samples: ramp},
		},
	}
}

func testConditions() ambient.Conditions {
	return ambient.Conditions{
		Sea:      ambient.Sea(3),
		Rain:     ambient.RainModerate,
		Shipping: ambient.ShippingLevel4,
	}
}

func TestWriteRunLayout(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)

	m, err := w.WriteRun(testResult(), testConditions(), "training")
	require.NoError(t, err)

	assert.NotEmpty(t, m.RunID)
	assert.Equal(t, "training", m.Label)
	assert.Equal(t, "3", m.Conditions.SeaState)
	assert.Equal(t, "moderate", m.Conditions.Rain)
	require.Len(t, m.Channels, 2)

	runDir := filepath.Join(w.Root(), m.RunID)
	for _, name := range []string{"north.wav", "south.wav", "manifest.yaml", "spectrum.csv"} {
		_, err := os.Stat(filepath.Join(runDir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteRunWAVDecodes(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)

	m, err := w.WriteRun(testResult(), testConditions(), "decode")
	require.NoError(t, err)

	f, err := os.Open(filepath.Join(w.Root(), m.RunID, "north.wav"))
	require.NoError(t, err)
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	require.NoError(t, err)
	assert.Equal(t, 2000, len(buf.Data))
	assert.Equal(t, 2000, buf.Format.SampleRate)
	assert.Equal(t, 1, buf.Format.NumChannels)
}

func TestLoadAndList(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)

	first, err := w.WriteRun(testResult(), testConditions(), "one")
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := w.WriteRun(testResult(), testConditions(), "two")
	require.NoError(t, err)

	loaded, err := w.Load(first.RunID)
	require.NoError(t, err)
	assert.Equal(t, first.RunID, loaded.RunID)
	assert.Equal(t, first.Seed, loaded.Seed)
	assert.Equal(t, []string{"freighter"}, loaded.Ships)

	runs, err := w.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.RunID, runs[0].RunID, "newest first")

	_, err = w.Load("no-such-run")
	assert.Error(t, err)
}

func TestListSkipsStrayDirs(t *testing.T) {
	root := t.TempDir()
	w, err := NewWriter(root, nil, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "not-a-run"), 0755))
	_, err = w.WriteRun(testResult(), testConditions(), "ok")
	require.NoError(t, err)

	runs, err := w.List()
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestWriteRunRejectsEmpty(t *testing.T) {
	w, err := NewWriter(t.TempDir(), nil, zap.NewNop())
	require.NoError(t, err)

	_, err = w.WriteRun(&synth.Result{SampleRate: 2000}, testConditions(), "empty")
	assert.Error(t, err)
}

func TestDiskGuardAllowsSmallRun(t *testing.T) {
	g, err := NewDiskGuard(DefaultDiskGuardConfig(t.TempDir()), zap.NewNop())
	require.NoError(t, err)

	assert.NoError(t, g.CheckBeforeRun(1024))

	usage, avail := g.Usage()
	assert.GreaterOrEqual(t, usage, 0.0)
	assert.Greater(t, avail, uint64(0))
}

func TestDiskGuardRejectsImpossibleRun(t *testing.T) {
	g, err := NewDiskGuard(DefaultDiskGuardConfig(t.TempDir()), zap.NewNop())
	require.NoError(t, err)

	err = g.CheckBeforeRun(1 << 62)
	require.Error(t, err)
	assert.True(t, IsDiskSpaceError(err))
}

func TestEstimateRunBytes(t *testing.T) {
	got := EstimateRunBytes(testResult())
	assert.Equal(t, uint64(2*(2000*2+128)), got)
}
