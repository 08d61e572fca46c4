// Package main provides synthgen, a one-shot generator that sweeps ambient
// conditions and writes a background noise run for each combination.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"os"

	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/dataset"
	"github.com/labsonar/synthesis/internal/dsp"
	"github.com/labsonar/synthesis/internal/synth"
)

func main() {
	out := flag.String("out", "./runs", "output directory for generated runs")
	duration := flag.Float64("duration", 10.0, "signal duration in seconds")
	sampleRate := flag.Float64("sample-rate", 48000, "sampling frequency in Hz")
	seed := flag.Int64("seed", 1, "random seed")
	full := flag.Bool("full", false, "sweep every condition instead of the extremes")
	flag.Parse()

	logger := initLogger()
	defer logger.Sync()

	writer, err := dataset.NewWriter(*out, nil, logger)
	if err != nil {
		logger.Fatal("failed to open output directory", zap.Error(err))
	}

	seas := []ambient.Sea{0, 6}
	rains := []ambient.Rain{ambient.RainNone, ambient.RainVeryHeavy}
	shippings := []ambient.Shipping{ambient.ShippingNone, ambient.ShippingLevel7}
	if *full {
		seas, rains, shippings = allConditions()
	}

	n := int(*duration * *sampleRate)
	count := 0
	for _, sea := range seas {
		for _, rain := range rains {
			for _, shipping := range shippings {
				cond := ambient.Conditions{Sea: sea, Rain: rain, Shipping: shipping}
				if err := generate(writer, cond, n, *sampleRate, *duration, *seed); err != nil {
					logger.Error("generation failed",
						zap.String("conditions", cond.String()),
						zap.Error(err))
					os.Exit(1)
				}
				logger.Info("run generated", zap.String("conditions", cond.String()))
				count++
			}
		}
	}
	logger.Info("sweep complete", zap.Int("runs", count), zap.String("out", *out))
}

// generate renders the background noise for one condition set and writes it
// as a run, verifying the estimated spectrum can be computed.
func generate(writer *dataset.Writer, cond ambient.Conditions, n int, fs, duration float64, seed int64) error {
	rng := rand.New(rand.NewSource(seed))

	samples, err := cond.Noise(n, fs, rng)
	if err != nil {
		return fmt.Errorf("noise synthesis: %w", err)
	}

	// A window of 1024 samples mirrors the analysis used when inspecting
	// generated spectra.
	if n >= 2048 {
		if _, _, err := dsp.EstimateSpectrum(samples, 1024, 0.5, fs); err != nil {
			return fmt.Errorf("spectrum estimation: %w", err)
		}
	}

	res := &synth.Result{
		SampleRate: fs,
		Duration:   duration,
		Seed:       seed,
		Channels:   []synth.Channel{{Hydrophone: "background", Samples: samples}},
	}
	label := fmt.Sprintf("sea_%d.rain_%s.shipping_%s", int(cond.Sea), cond.Rain.Name(), cond.Shipping.Name())
	_, err = writer.WriteRun(res, cond, label)
	return err
}

func allConditions() ([]ambient.Sea, []ambient.Rain, []ambient.Shipping) {
	var seas []ambient.Sea
	for s := 0; s < ambient.SeaStates; s++ {
		seas = append(seas, ambient.Sea(s))
	}
	rains := []ambient.Rain{
		ambient.RainNone, ambient.RainLight, ambient.RainModerate,
		ambient.RainHeavy, ambient.RainVeryHeavy,
	}
	shippings := []ambient.Shipping{ambient.ShippingNone}
	for level := 1; level <= 7; level++ {
		shippings = append(shippings, ambient.Shipping(level))
	}
	return seas, rains, shippings
}

func initLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stdout"}
	logger, err := cfg.Build()
	if err != nil {
		logger, _ = zap.NewDevelopment()
	}
	return logger
}
