// Package validation checks job requests before they are queued.
package validation

import (
	"fmt"
	"math"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/model"
)

const (
	// Duration limits in seconds
	MinDurationSeconds = 0.1
	MaxDurationSeconds = 600.0

	// Sample rate limits in Hz
	MinSampleRate = 1000.0
	MaxSampleRate = 192000.0

	// Resource limits per job
	MaxHydrophones = 64
	MaxShips       = 32

	// MaxSourceLevelDB bounds the radiated source level, dB re 1 µPa at 1 m
	MaxSourceLevelDB = 220.0
)

// Validator validates synthesis job requests
type Validator struct {
	maxDurationSeconds float64
	maxSampleRate      float64
	maxHydrophones     int
	maxShips           int
}

// NewValidator creates a new validator with default limits
func NewValidator() *Validator {
	return &Validator{
		maxDurationSeconds: MaxDurationSeconds,
		maxSampleRate:      MaxSampleRate,
		maxHydrophones:     MaxHydrophones,
		maxShips:           MaxShips,
	}
}

// NewValidatorWithLimits creates a validator with custom limits
func NewValidatorWithLimits(maxDurationSeconds, maxSampleRate float64, maxHydrophones, maxShips int) *Validator {
	return &Validator{
		maxDurationSeconds: maxDurationSeconds,
		maxSampleRate:      maxSampleRate,
		maxHydrophones:     maxHydrophones,
		maxShips:           maxShips,
	}
}

// ValidateRequest validates a full job request
func (v *Validator) ValidateRequest(req *model.JobRequest) error {
	if req == nil {
		return errors.InvalidArgument("request body is required", nil)
	}
	if err := v.validateTiming(req); err != nil {
		return err
	}
	if err := v.validateConditions(req); err != nil {
		return err
	}
	return v.validateScenario(&req.Scenario)
}

func (v *Validator) validateTiming(req *model.JobRequest) error {
	if req.DurationSeconds < MinDurationSeconds || req.DurationSeconds > v.maxDurationSeconds {
		return errors.InvalidArgument(
			fmt.Sprintf("duration_seconds must be in [%g, %g], got %g",
				MinDurationSeconds, v.maxDurationSeconds, req.DurationSeconds), nil).
			WithDetail("duration_seconds", req.DurationSeconds)
	}
	if req.SampleRate < MinSampleRate || req.SampleRate > v.maxSampleRate {
		return errors.InvalidArgument(
			fmt.Sprintf("sample_rate must be in [%g, %g], got %g",
				MinSampleRate, v.maxSampleRate, req.SampleRate), nil).
			WithDetail("sample_rate", req.SampleRate)
	}
	return nil
}

func (v *Validator) validateConditions(req *model.JobRequest) error {
	if req.SeaState < 0 || req.SeaState >= ambient.SeaStates {
		return errors.UnknownCondition("sea_state", fmt.Sprintf("%d", req.SeaState))
	}
	if req.Rain != "" {
		if _, err := ambient.ParseRain(req.Rain); err != nil {
			return errors.UnknownCondition("rain", req.Rain)
		}
	}
	if req.Shipping != "" {
		if _, err := ambient.ParseShipping(req.Shipping); err != nil {
			return errors.UnknownCondition("shipping", req.Shipping)
		}
	}
	return nil
}

func (v *Validator) validateScenario(spec *model.ScenarioSpec) error {
	if len(spec.Hydrophones) == 0 {
		return errors.ScenarioRejected("at least one hydrophone is required")
	}
	if len(spec.Hydrophones) > v.maxHydrophones {
		return errors.ScenarioRejected(
			fmt.Sprintf("too many hydrophones: %d, limit %d", len(spec.Hydrophones), v.maxHydrophones))
	}
	if len(spec.Ships) > v.maxShips {
		return errors.ScenarioRejected(
			fmt.Sprintf("too many ships: %d, limit %d", len(spec.Ships), v.maxShips))
	}
	if spec.Dimension != 0 && spec.Dimension != 2 && spec.Dimension != 3 {
		return errors.ScenarioRejected(fmt.Sprintf("dimension must be 2 or 3, got %d", spec.Dimension))
	}

	seen := make(map[string]bool)
	for i := range spec.Hydrophones {
		h := &spec.Hydrophones[i]
		if h.Name == "" {
			return errors.ScenarioRejected(fmt.Sprintf("hydrophone %d has no name", i))
		}
		if seen[h.Name] {
			return errors.ScenarioRejected(fmt.Sprintf("duplicate hydrophone name %q", h.Name))
		}
		seen[h.Name] = true
		if err := validateCoords("hydrophone "+h.Name, h.Position); err != nil {
			return err
		}
	}

	for i := range spec.Ships {
		s := &spec.Ships[i]
		if s.Name == "" {
			return errors.ScenarioRejected(fmt.Sprintf("ship %d has no name", i))
		}
		if err := validateCoords("ship "+s.Name, s.Position); err != nil {
			return err
		}
		if len(s.Destination) > 0 {
			if err := validateCoords("ship "+s.Name+" destination", s.Destination); err != nil {
				return err
			}
		}
		if s.SpeedMS < 0 {
			return errors.ScenarioRejected(fmt.Sprintf("ship %q has negative speed %g", s.Name, s.SpeedMS))
		}
		if s.SourceLevelDB < 0 || s.SourceLevelDB > MaxSourceLevelDB {
			return errors.ScenarioRejected(
				fmt.Sprintf("ship %q source level %g dB out of range [0, %g]", s.Name, s.SourceLevelDB, MaxSourceLevelDB))
		}
	}

	if spec.Current != nil {
		if err := validateCoords("current direction", spec.Current.Direction); err != nil {
			return err
		}
		if spec.Current.Strength < 0 || !isFinite(spec.Current.Strength) {
			return errors.ScenarioRejected(fmt.Sprintf("current strength %g is invalid", spec.Current.Strength))
		}
	}
	return nil
}

// validateCoords checks a coordinate list for arity and finiteness.
func validateCoords(what string, coords []float64) error {
	if len(coords) != 2 && len(coords) != 3 {
		return errors.ScenarioRejected(
			fmt.Sprintf("%s requires 2 or 3 coordinates, got %d", what, len(coords)))
	}
	for _, c := range coords {
		if !isFinite(c) {
			return errors.ScenarioRejected(fmt.Sprintf("%s has a non-finite coordinate", what))
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
