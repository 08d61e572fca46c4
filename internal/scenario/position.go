// Package scenario models naval and underwater scenarios: ships and
// hydrophones placed in a bounded environment, their tracks over time and
// the ocean current acting on them. Positions are in meters with Z as depth,
// positive downwards.
package scenario

import (
	"fmt"
	"math"
)

// Position is a point in the scenario, in meters. Z is depth.
type Position struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Distance returns the Euclidean distance to other in meters.
func (p Position) Distance(other Position) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	dz := p.Z - other.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}

// Add returns the position displaced by d.
func (p Position) Add(d Position) Position {
	return Position{X: p.X + d.X, Y: p.Y + d.Y, Z: p.Z + d.Z}
}

// IsFinite reports whether all coordinates are finite numbers.
func (p Position) IsFinite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0) &&
		!math.IsNaN(p.Z) && !math.IsInf(p.Z, 0)
}

// FromCoords builds a position from 2 or 3 coordinates; 2D positions are
// promoted to the surface (Z = 0).
func FromCoords(coords []float64) (Position, error) {
	switch len(coords) {
	case 2:
		return Position{X: coords[0], Y: coords[1]}, nil
	case 3:
		return Position{X: coords[0], Y: coords[1], Z: coords[2]}, nil
	default:
		return Position{}, fmt.Errorf("position requires 2 or 3 coordinates, got %d", len(coords))
	}
}

// Track is a sampled path through the scenario, one position per frame.
type Track []Position

// constantVelocityTrack samples the straight path from start to end over
// totalFrames steps, inclusive of both endpoints.
func constantVelocityTrack(start, end Position, totalFrames int) Track {
	track := make(Track, totalFrames+1)
	for t := 0; t <= totalFrames; t++ {
		frac := float64(t) / float64(totalFrames)
		track[t] = Position{
			X: start.X + (end.X-start.X)*frac,
			Y: start.Y + (end.Y-start.Y)*frac,
			Z: start.Z + (end.Z-start.Z)*frac,
		}
	}
	return track
}

// PlanTrack returns the constant-velocity track from start towards end at
// the given speed in m/s, sampled at fps frames per second. Zero speed
// yields a single-frame track at the start position.
func PlanTrack(start, end Position, speed float64, fps int) (Track, error) {
	if speed < 0 {
		return nil, fmt.Errorf("speed must be non-negative, got %g", speed)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	if speed == 0 {
		return Track{start}, nil
	}
	seconds := start.Distance(end) / speed
	totalFrames := int(seconds * float64(fps))
	if totalFrames == 0 {
		return Track{start}, nil
	}
	return constantVelocityTrack(start, end, totalFrames), nil
}

// PlanTrackDuration returns the track from start to end covered in the given
// number of seconds, sampled at fps frames per second.
func PlanTrackDuration(start, end Position, seconds float64, fps int) (Track, error) {
	if seconds <= 0 {
		return nil, fmt.Errorf("duration must be positive, got %g", seconds)
	}
	if fps <= 0 {
		return nil, fmt.Errorf("fps must be positive, got %d", fps)
	}
	totalFrames := int(seconds * float64(fps))
	if totalFrames == 0 {
		totalFrames = 1
	}
	return constantVelocityTrack(start, end, totalFrames), nil
}

// At returns the track position at the given frame, holding the last
// position once the track is exhausted.
func (t Track) At(frame int) Position {
	if len(t) == 0 {
		return Position{}
	}
	if frame >= len(t) {
		return t[len(t)-1]
	}
	if frame < 0 {
		return t[0]
	}
	return t[frame]
}
