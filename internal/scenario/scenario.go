package scenario

import (
	"fmt"
)

// boundsMargin is the clearance added past the furthest object when growing
// the environment bounds.
const boundsMargin = 50.0

// DefaultMaxDraft is the default maximum ship draft in meters.
const DefaultMaxDraft = 10.0

// Scenario is a simulation environment holding ships and hydrophones. Its
// bounds grow dynamically as objects are added.
type Scenario struct {
	dimension int
	maxDraft  float64
	width     float64
	length    float64
	height    float64
	current   *OceanCurrent

	ships       []*Ship
	hydrophones []*Hydrophone
}

// New creates a scenario with the given dimensionality (2 or 3) and maximum
// ship draft in meters.
func New(dimension int, maxDraft float64) (*Scenario, error) {
	if dimension != 2 && dimension != 3 {
		return nil, fmt.Errorf("scenario dimension must be 2 or 3, got %d", dimension)
	}
	if maxDraft <= 0 {
		maxDraft = DefaultMaxDraft
	}
	return &Scenario{
		dimension: dimension,
		maxDraft:  maxDraft,
		width:     -1,
		length:    -1,
		height:    -1,
	}, nil
}

// Dimension returns the scenario dimensionality.
func (s *Scenario) Dimension() int { return s.dimension }

// Bounds returns the current environment bounds (width, length, height) in
// meters. Height is meaningful for 3D scenarios only.
func (s *Scenario) Bounds() (width, length, height float64) {
	return s.width, s.length, s.height
}

// SetCurrent sets the uniform ocean current applied during simulation.
func (s *Scenario) SetCurrent(c OceanCurrent) {
	s.current = &c
}

// AddShip places a ship in the scenario, clamping its depth to the maximum
// draft, and grows the bounds around it.
func (s *Scenario) AddShip(ship *Ship) error {
	if ship == nil {
		return fmt.Errorf("ship is nil")
	}
	if !ship.Position.IsFinite() {
		return fmt.Errorf("ship %q: position coordinates must be finite", ship.Name)
	}
	if ship.Position.Z > s.maxDraft {
		ship.Position.Z = s.maxDraft
	}
	s.ships = append(s.ships, ship)
	s.grow(ship.Position)
	return nil
}

// AddHydrophone places a hydrophone in the scenario and grows the bounds
// around it.
func (s *Scenario) AddHydrophone(h *Hydrophone) error {
	if h == nil {
		return fmt.Errorf("hydrophone is nil")
	}
	if !h.Position.IsFinite() {
		return fmt.Errorf("hydrophone %q: position coordinates must be finite", h.Name)
	}
	s.hydrophones = append(s.hydrophones, h)
	s.grow(h.Position)
	return nil
}

// Ships returns the ships in the scenario, in insertion order.
func (s *Scenario) Ships() []*Ship { return s.ships }

// Hydrophones returns the hydrophones in the scenario, in insertion order.
func (s *Scenario) Hydrophones() []*Hydrophone { return s.hydrophones }

// Simulate advances every object with a planned track by the given number of
// frames, applying the ocean current drift to each step, and leaves each
// object at its final position.
func (s *Scenario) Simulate(frames int) error {
	if frames < 0 {
		return fmt.Errorf("frames must be non-negative, got %d", frames)
	}
	var drift Position
	if s.current != nil {
		drift = s.current.Drift()
	}
	for _, ship := range s.ships {
		ship.Position = advance(ship.Track, ship.Position, drift, frames)
		s.grow(ship.Position)
	}
	for _, h := range s.hydrophones {
		h.Position = advance(h.Track, h.Position, drift, frames)
		s.grow(h.Position)
	}
	return nil
}

// advance walks a track for the given number of frames, accumulating the
// per-frame drift. Objects without a track only drift.
func advance(track Track, current, drift Position, frames int) Position {
	pos := current
	if len(track) > 0 {
		pos = track.At(frames)
	}
	for i := 0; i < frames; i++ {
		pos = pos.Add(drift)
	}
	return pos
}

// grow expands the environment bounds to cover p with a safety margin.
func (s *Scenario) grow(p Position) {
	if s.width < p.X {
		s.width = p.X + boundsMargin
	}
	if s.length < p.Y {
		s.length = p.Y + boundsMargin
	}
	if s.dimension == 3 && s.height < p.Z {
		s.height = p.Z + boundsMargin
	}
}
