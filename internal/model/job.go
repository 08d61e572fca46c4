// Package model defines the job request and status types shared by the
// service, validation and HTTP layers.
package model

import "time"

// JobState is the lifecycle state of a synthesis job.
type JobState string

const (
	JobQueued    JobState = "queued"
	JobRunning   JobState = "running"
	JobCompleted JobState = "completed"
	JobFailed    JobState = "failed"
)

// CurrentSpec describes the ocean current applied to the scenario.
type CurrentSpec struct {
	Direction []float64 `json:"direction"`
	Strength  float64   `json:"strength"`
}

// ShipSpec describes one ship in a job request. Position and Destination
// hold 2 or 3 coordinates in meters; 2D positions sit at the surface.
type ShipSpec struct {
	Name          string    `json:"name"`
	Position      []float64 `json:"position"`
	Destination   []float64 `json:"destination,omitempty"`
	SpeedMS       float64   `json:"speed_ms,omitempty"`
	NoiseKind     string    `json:"noise_kind,omitempty"`
	SourceLevelDB float64   `json:"source_level_db"`
}

// HydrophoneSpec describes one receiver in a job request.
type HydrophoneSpec struct {
	Name     string    `json:"name"`
	Position []float64 `json:"position"`
}

// ScenarioSpec describes the geometry of a job request.
type ScenarioSpec struct {
	Dimension   int              `json:"dimension,omitempty"`
	Current     *CurrentSpec     `json:"current,omitempty"`
	Ships       []ShipSpec       `json:"ships,omitempty"`
	Hydrophones []HydrophoneSpec `json:"hydrophones"`
}

// JobRequest is the payload of POST /v1/jobs.
type JobRequest struct {
	Label           string       `json:"label"`
	SeaState        int          `json:"sea_state"`
	Rain            string       `json:"rain,omitempty"`
	Shipping        string       `json:"shipping,omitempty"`
	DurationSeconds float64      `json:"duration_seconds"`
	SampleRate      float64      `json:"sample_rate"`
	Seed            int64        `json:"seed,omitempty"`
	Scenario        ScenarioSpec `json:"scenario"`
}

// Job is the tracked state of a submitted request.
type Job struct {
	ID          string     `json:"job_id"`
	State       JobState   `json:"state"`
	Request     JobRequest `json:"request"`
	RunID       string     `json:"run_id,omitempty"`
	Error       string     `json:"error,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// Clone returns a copy safe to hand outside the registry lock.
func (j *Job) Clone() *Job {
	c := *j
	if j.StartedAt != nil {
		t := *j.StartedAt
		c.StartedAt = &t
	}
	if j.FinishedAt != nil {
		t := *j.FinishedAt
		c.FinishedAt = &t
	}
	return &c
}

// Terminal reports whether the job has finished, successfully or not.
func (j *Job) Terminal() bool {
	return j.State == JobCompleted || j.State == JobFailed
}
