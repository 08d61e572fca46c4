// Package dataset persists rendered runs: one directory per run holding a
// 16-bit PCM WAV per hydrophone, the ambient spectrum as CSV and a YAML
// manifest describing the run.
package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/synth"
)

const (
	manifestFile = "manifest.yaml"
	spectrumFile = "spectrum.csv"

	bytesPerSample = 2
	// wavHeaderBytes over-estimates per-file header overhead.
	wavHeaderBytes = 128
)

// ChannelInfo describes one rendered channel inside a run directory.
type ChannelInfo struct {
	Hydrophone string  `yaml:"hydrophone" json:"hydrophone"`
	File       string  `yaml:"file" json:"file"`
	Samples    int     `yaml:"samples" json:"samples"`
	Peak       float64 `yaml:"peak" json:"peak"`
}

// ConditionsInfo records the ambient conditions a run was rendered under.
type ConditionsInfo struct {
	SeaState string `yaml:"sea_state" json:"sea_state"`
	Rain     string `yaml:"rain" json:"rain"`
	Shipping string `yaml:"shipping" json:"shipping"`
}

// Manifest is the per-run metadata stored as manifest.yaml.
type Manifest struct {
	RunID           string         `yaml:"run_id" json:"run_id"`
	Label           string         `yaml:"label" json:"label"`
	CreatedAt       time.Time      `yaml:"created_at" json:"created_at"`
	SampleRate      float64        `yaml:"sample_rate" json:"sample_rate"`
	DurationSeconds float64        `yaml:"duration_seconds" json:"duration_seconds"`
	Seed            int64          `yaml:"seed" json:"seed"`
	Conditions      ConditionsInfo `yaml:"conditions" json:"conditions"`
	Ships           []string       `yaml:"ships,omitempty" json:"ships,omitempty"`
	Channels        []ChannelInfo  `yaml:"channels" json:"channels"`
}

// Writer persists rendered runs under a root directory.
type Writer struct {
	root   string
	guard  *DiskGuard
	logger *zap.Logger
}

// NewWriter creates a run writer rooted at root, creating it if needed. The
// guard is optional.
func NewWriter(root string, guard *DiskGuard, logger *zap.Logger) (*Writer, error) {
	if root == "" {
		return nil, fmt.Errorf("dataset root is required")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create dataset root: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{root: root, guard: guard, logger: logger}, nil
}

// Root returns the dataset root directory.
func (w *Writer) Root() string { return w.root }

// EstimateRunBytes returns the approximate on-disk size of a rendered run.
func EstimateRunBytes(res *synth.Result) uint64 {
	var total uint64
	for _, ch := range res.Channels {
		total += uint64(len(ch.Samples))*bytesPerSample + wavHeaderBytes
	}
	return total
}

// WriteRun persists a rendered result as a new run directory named by a
// fresh run id and returns the manifest. A partially written run directory
// is removed on failure.
func (w *Writer) WriteRun(res *synth.Result, cond ambient.Conditions, label string) (*Manifest, error) {
	if res == nil || len(res.Channels) == 0 {
		return nil, fmt.Errorf("rendered result has no channels")
	}
	if w.guard != nil {
		if err := w.guard.CheckBeforeRun(EstimateRunBytes(res)); err != nil {
			return nil, err
		}
	}

	runID := uuid.New().String()
	runDir := filepath.Join(w.root, runID)
	if err := os.MkdirAll(runDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run directory: %w", err)
	}

	manifest, err := w.writeRunFiles(runDir, runID, res, cond, label)
	if err != nil {
		os.RemoveAll(runDir)
		return nil, err
	}

	w.logger.Info("Run written",
		zap.String("run_id", runID),
		zap.String("label", label),
		zap.Int("channels", len(manifest.Channels)),
		zap.Float64("duration_seconds", res.Duration))

	return manifest, nil
}

func (w *Writer) writeRunFiles(runDir, runID string, res *synth.Result, cond ambient.Conditions, label string) (*Manifest, error) {
	manifest := &Manifest{
		RunID:           runID,
		Label:           label,
		CreatedAt:       time.Now().UTC(),
		SampleRate:      res.SampleRate,
		DurationSeconds: res.Duration,
		Seed:            res.Seed,
		Conditions: ConditionsInfo{
			SeaState: fmt.Sprintf("%d", int(cond.Sea)),
			Rain:     cond.Rain.Name(),
			Shipping: cond.Shipping.Name(),
		},
		Ships: res.Ships,
	}

	for _, ch := range res.Channels {
		name := ch.Hydrophone + ".wav"
		peak, err := writeWAV(filepath.Join(runDir, name), ch.Samples, int(res.SampleRate))
		if err != nil {
			return nil, fmt.Errorf("channel %q: %w", ch.Hydrophone, err)
		}
		manifest.Channels = append(manifest.Channels, ChannelInfo{
			Hydrophone: ch.Hydrophone,
			File:       name,
			Samples:    len(ch.Samples),
			Peak:       peak,
		})
	}

	if err := writeSpectrumCSV(filepath.Join(runDir, spectrumFile), cond, res.SampleRate); err != nil {
		return nil, err
	}

	data, err := yaml.Marshal(manifest)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(runDir, manifestFile), data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write manifest: %w", err)
	}
	return manifest, nil
}

// writeWAV writes samples as mono 16-bit PCM, normalized to the channel
// peak, and returns the peak amplitude in µPa.
func writeWAV(path string, samples []float64, sampleRate int) (float64, error) {
	peak := 0.0
	for _, v := range samples {
		if a := abs(v); a > peak {
			peak = a
		}
	}
	scale := 0.0
	if peak > 0 {
		scale = 32767.0 / peak
	}

	data := make([]int, len(samples))
	for i, v := range samples {
		data[i] = int(v * scale)
	}

	f, err := os.Create(path)
	if err != nil {
		return 0, fmt.Errorf("failed to create wav file: %w", err)
	}
	defer f.Close()

	enc := wav.NewEncoder(f, sampleRate, 16, 1, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 1, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: 16,
	}
	if err := enc.Write(buf); err != nil {
		return 0, fmt.Errorf("failed to write wav data: %w", err)
	}
	if err := enc.Close(); err != nil {
		return 0, fmt.Errorf("failed to finalize wav file: %w", err)
	}
	return peak, nil
}

// writeSpectrumCSV stores the combined ambient spectrum of the run.
func writeSpectrumCSV(path string, cond ambient.Conditions, fs float64) error {
	freqs, levels, err := cond.Spectrum(fs)
	if err != nil {
		return fmt.Errorf("failed to compute spectrum: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create spectrum file: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if err := cw.Write([]string{"frequency_hz", "level_db"}); err != nil {
		return err
	}
	for i := range freqs {
		row := []string{
			strconv.FormatFloat(freqs[i], 'g', -1, 64),
			strconv.FormatFloat(levels[i], 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the manifest of a single run.
func (w *Writer) Load(runID string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(w.root, runID, manifestFile))
	if err != nil {
		return nil, fmt.Errorf("run %q not found: %w", runID, err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("run %q has a corrupt manifest: %w", runID, err)
	}
	return &m, nil
}

// List returns the manifests of all runs under the root, newest first.
// Directories without a readable manifest are skipped.
func (w *Writer) List() ([]*Manifest, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset root: %w", err)
	}

	var runs []*Manifest
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		m, err := w.Load(e.Name())
		if err != nil {
			w.logger.Warn("Skipping run without manifest", zap.String("dir", e.Name()), zap.Error(err))
			continue
		}
		runs = append(runs, m)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].CreatedAt.After(runs[j].CreatedAt) })
	return runs, nil
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
