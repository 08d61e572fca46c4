package scenario

import (
	"fmt"
)

// NoiseProfile describes a ship's radiated noise.
type NoiseProfile struct {
	// Kind names the dominant source, e.g. "motor" or "sonar".
	Kind string `json:"kind" yaml:"kind"`
	// Level is the broadband source level in dB re 1 µPa @1m.
	Level float64 `json:"level" yaml:"level"`
}

// Ship is a surface vessel in the scenario.
type Ship struct {
	Name     string
	Position Position
	Noise    NoiseProfile
	Track    Track
}

// NewShip builds a ship from 2 or 3 coordinates; 2D positions sit at the
// surface.
func NewShip(name string, coords []float64, noise NoiseProfile) (*Ship, error) {
	pos, err := FromCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("ship %q: %w", name, err)
	}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("ship %q: position coordinates must be finite", name)
	}
	return &Ship{Name: name, Position: pos, Noise: noise}, nil
}

// PlanTrack plans the ship's constant-velocity track towards end.
func (s *Ship) PlanTrack(end Position, speed float64, fps int) error {
	track, err := PlanTrack(s.Position, end, speed, fps)
	if err != nil {
		return fmt.Errorf("ship %q: %w", s.Name, err)
	}
	s.Track = track
	return nil
}

// Distance returns the distance from the ship to a position in meters.
func (s *Ship) Distance(p Position) float64 {
	return s.Position.Distance(p)
}

// Hydrophone is an acoustic receiver in the scenario.
type Hydrophone struct {
	Name     string
	Position Position
	Track    Track
}

// NewHydrophone builds a hydrophone from 2 or 3 coordinates.
func NewHydrophone(name string, coords []float64) (*Hydrophone, error) {
	pos, err := FromCoords(coords)
	if err != nil {
		return nil, fmt.Errorf("hydrophone %q: %w", name, err)
	}
	if !pos.IsFinite() {
		return nil, fmt.Errorf("hydrophone %q: position coordinates must be finite", name)
	}
	return &Hydrophone{Name: name, Position: pos}, nil
}

// PlanTrack plans the hydrophone's constant-velocity track towards end.
func (h *Hydrophone) PlanTrack(end Position, speed float64, fps int) error {
	track, err := PlanTrack(h.Position, end, speed, fps)
	if err != nil {
		return fmt.Errorf("hydrophone %q: %w", h.Name, err)
	}
	h.Track = track
	return nil
}

// OceanCurrent is a uniform current acting on the scenario.
type OceanCurrent struct {
	// Direction is the unit-less flow direction.
	Direction Position `json:"direction" yaml:"direction"`
	// Strength is the displacement per frame in meters.
	Strength float64 `json:"strength" yaml:"strength"`
}

// Drift returns the displacement the current applies in one frame.
func (c OceanCurrent) Drift() Position {
	return Position{
		X: c.Direction.X * c.Strength,
		Y: c.Direction.Y * c.Strength,
		Z: c.Direction.Z * c.Strength,
	}
}
