// Package synth renders scenarios into received pressure time series: the
// ambient background plus every ship's radiated noise propagated to each
// hydrophone along the simulated tracks.
package synth

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/dsp"
	"github.com/labsonar/synthesis/internal/propagation"
	"github.com/labsonar/synthesis/internal/scenario"
)

// DefaultFPS is the default geometry sampling rate in frames per second.
const DefaultFPS = 10

// channelSeedStride decorrelates the per-channel random streams derived
// from the run seed.
const channelSeedStride = 7919

// Config holds renderer configuration.
type Config struct {
	// FPS is the rate at which the moving geometry is sampled.
	FPS int
}

// Renderer turns a scenario plus ambient conditions into per-hydrophone
// signals.
type Renderer struct {
	fps    int
	logger *zap.Logger
}

// NewRenderer creates a renderer.
func NewRenderer(cfg *Config, logger *zap.Logger) *Renderer {
	fps := DefaultFPS
	if cfg != nil && cfg.FPS > 0 {
		fps = cfg.FPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Renderer{fps: fps, logger: logger}
}

// Channel is the rendered signal at one hydrophone, in µPa.
type Channel struct {
	Hydrophone string
	Samples    []float64
}

// Result is a full rendered run. Ships lists the names of the sources the
// channels were rendered against.
type Result struct {
	SampleRate float64
	Duration   float64
	Seed       int64
	Ships      []string
	Channels   []Channel
}

// Render produces the received signal at every hydrophone of the scenario
// over the given duration in seconds at sampling frequency fs. Channels are
// rendered in parallel; each is deterministic for a fixed (seed, channel)
// pair. The context cancels the render.
func (r *Renderer) Render(
	ctx context.Context,
	scn *scenario.Scenario,
	cond ambient.Conditions,
	duration float64,
	fs float64,
	seed int64,
) (*Result, error) {
	if scn == nil {
		return nil, fmt.Errorf("scenario is required")
	}
	hydrophones := scn.Hydrophones()
	if len(hydrophones) == 0 {
		return nil, fmt.Errorf("scenario has no hydrophones")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", duration)
	}
	if fs <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %g", fs)
	}

	n := int(duration * fs)
	if n == 0 {
		return nil, fmt.Errorf("duration %g s at %g Hz yields no samples", duration, fs)
	}

	result := &Result{
		SampleRate: fs,
		Duration:   duration,
		Seed:       seed,
		Channels:   make([]Channel, len(hydrophones)),
	}
	for _, ship := range scn.Ships() {
		result.Ships = append(result.Ships, ship.Name)
	}

	g, gctx := errgroup.WithContext(ctx)
	for idx, hydro := range hydrophones {
		idx, hydro := idx, hydro
		g.Go(func() error {
			samples, err := r.renderChannel(gctx, scn, hydro, cond, n, fs, seed+int64(idx)*channelSeedStride)
			if err != nil {
				return fmt.Errorf("channel %q: %w", hydro.Name, err)
			}
			result.Channels[idx] = Channel{Hydrophone: hydro.Name, Samples: samples}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.logger.Debug("Render completed",
		zap.Int("channels", len(result.Channels)),
		zap.Int("samples_per_channel", n),
		zap.Float64("sample_rate", fs))

	return result, nil
}

// renderChannel renders the signal received by one hydrophone.
func (r *Renderer) renderChannel(
	ctx context.Context,
	scn *scenario.Scenario,
	hydro *scenario.Hydrophone,
	cond ambient.Conditions,
	n int,
	fs float64,
	seed int64,
) ([]float64, error) {
	rng := rand.New(rand.NewSource(seed))

	out, err := cond.Noise(n, fs, rng)
	if err != nil {
		return nil, fmt.Errorf("background noise: %w", err)
	}

	blockSize := int(fs) / r.fps
	if blockSize == 0 {
		blockSize = 1
	}

	for _, ship := range scn.Ships() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ship.Noise.Level <= 0 {
			continue
		}

		freqs, levels := radiatedSpectrum(ship.Noise)
		src, err := dsp.NoiseFromSpectrum(freqs, levels, n, fs, rng)
		if err != nil {
			return nil, fmt.Errorf("ship %q radiated noise: %w", ship.Name, err)
		}

		// The travel delay is fixed at the initial geometry; the gain
		// follows the moving geometry block by block.
		initialRange := shipPositionAt(ship, 0).Distance(hydroPositionAt(hydro, 0))
		delay := propagation.DelaySamples(initialRange, fs)

		for start := 0; start < n; start += blockSize {
			frame := start / blockSize
			d := shipPositionAt(ship, frame).Distance(hydroPositionAt(hydro, frame))
			gain := propagation.Gain(d)

			end := start + blockSize
			if end > n {
				end = n
			}
			for i := start; i < end; i++ {
				srcIdx := i - delay
				if srcIdx < 0 {
					continue
				}
				out[i] += src[srcIdx] * gain
			}
		}
	}
	return out, nil
}

// shipPositionAt returns the ship position at a geometry frame, preferring
// its planned track.
func shipPositionAt(s *scenario.Ship, frame int) scenario.Position {
	if len(s.Track) > 0 {
		return s.Track.At(frame)
	}
	return s.Position
}

// hydroPositionAt returns the hydrophone position at a geometry frame,
// preferring its planned track.
func hydroPositionAt(h *scenario.Hydrophone, frame int) scenario.Position {
	if len(h.Track) > 0 {
		return h.Track.At(frame)
	}
	return h.Position
}

// radiatedSpectrum derives a broadband radiated-noise spectrum from a ship's
// noise profile: a plateau at the profile level up to 100 Hz rolling off at
// 20 dB per decade above it.
func radiatedSpectrum(profile scenario.NoiseProfile) (freqs, levels []float64) {
	freqs = []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 20000, 50000, 100000}
	levels = make([]float64, len(freqs))
	for i, f := range freqs {
		levels[i] = profile.Level
		if f > 100 {
			levels[i] -= 20 * math.Log10(f/100)
		}
	}
	return freqs, levels
}
