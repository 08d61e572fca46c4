package job

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/ambient"
	"github.com/labsonar/synthesis/internal/dataset"
	"github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/metrics"
	"github.com/labsonar/synthesis/internal/model"
	"github.com/labsonar/synthesis/internal/scenario"
	"github.com/labsonar/synthesis/internal/synth"
	"github.com/labsonar/synthesis/internal/util/workerpool"
	"github.com/labsonar/synthesis/internal/validation"
)

// ServiceConfig holds job service configuration.
type ServiceConfig struct {
	// TrackFPS is the geometry sampling rate for planned tracks.
	TrackFPS int
	// JobTimeout bounds a single render, zero means no limit.
	JobTimeout time.Duration
	// MaxDraft caps ship depth in meters, zero means the scenario default.
	MaxDraft float64
}

// Service validates, queues and executes synthesis jobs.
type Service struct {
	registry  *Registry
	pool      *workerpool.Pool
	renderer  *synth.Renderer
	writer    *dataset.Writer
	validator *validation.Validator
	metrics   *metrics.Metrics
	logger    *zap.Logger

	trackFPS   int
	jobTimeout time.Duration
	maxDraft   float64
}

// NewService wires the job pipeline together. The metrics argument may be
// nil in tests.
func NewService(
	cfg *ServiceConfig,
	pool *workerpool.Pool,
	renderer *synth.Renderer,
	writer *dataset.Writer,
	validator *validation.Validator,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Service {
	if cfg == nil {
		cfg = &ServiceConfig{}
	}
	fps := cfg.TrackFPS
	if fps <= 0 {
		fps = synth.DefaultFPS
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		registry:   NewRegistry(),
		pool:       pool,
		renderer:   renderer,
		writer:     writer,
		validator:  validator,
		metrics:    m,
		logger:     logger,
		trackFPS:   fps,
		jobTimeout: cfg.JobTimeout,
		maxDraft:   cfg.MaxDraft,
	}
}

// Submit validates the request and queues it for rendering.
func (s *Service) Submit(ctx context.Context, req *model.JobRequest) (*model.Job, error) {
	if err := s.validator.ValidateRequest(req); err != nil {
		if s.metrics != nil {
			s.metrics.JobsRejectedTotal.Inc()
		}
		return nil, err
	}
	// Resolve conditions and geometry up front so queueing cannot fail later
	// on a malformed request.
	cond, err := conditionsFromRequest(req)
	if err != nil {
		return nil, err
	}
	if _, err := s.buildScenario(req); err != nil {
		return nil, err
	}

	j := &model.Job{
		ID:          uuid.New().String(),
		State:       model.JobQueued,
		Request:     *req,
		SubmittedAt: time.Now().UTC(),
	}
	s.registry.Add(j)

	task := workerpool.Task{
		JobID: j.ID,
		Fn: func(taskCtx context.Context) error {
			return s.execute(taskCtx, j.ID, cond)
		},
	}
	if err := s.pool.Submit(task); err != nil {
		s.registry.Update(j.ID, func(j *model.Job) {
			j.State = model.JobFailed
			j.Error = err.Error()
			now := time.Now().UTC()
			j.FinishedAt = &now
		})
		if s.metrics != nil {
			s.metrics.JobsRejectedTotal.Inc()
		}
		stats := s.pool.Stats()
		return nil, errors.QueueFull(stats.QueuedTasks, stats.QueueSize)
	}

	if s.metrics != nil {
		s.metrics.JobQueueDepth.Set(float64(s.pool.Stats().QueuedTasks))
	}
	s.logger.Info("Job queued",
		zap.String("job_id", j.ID),
		zap.String("label", req.Label),
		zap.Float64("duration_seconds", req.DurationSeconds))

	return j.Clone(), nil
}

// Get returns the job with the given id.
func (s *Service) Get(id string) (*model.Job, error) {
	return s.registry.Get(id)
}

// List returns all tracked jobs in submission order.
func (s *Service) List() []*model.Job {
	return s.registry.List()
}

// PoolStats exposes the render pool counters.
func (s *Service) PoolStats() workerpool.Stats {
	return s.pool.Stats()
}

// execute runs a queued job to completion.
func (s *Service) execute(ctx context.Context, jobID string, cond ambient.Conditions) error {
	if s.jobTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.jobTimeout)
		defer cancel()
	}

	var req model.JobRequest
	var submitted time.Time
	if err := s.registry.Update(jobID, func(j *model.Job) {
		j.State = model.JobRunning
		now := time.Now().UTC()
		j.StartedAt = &now
		req = j.Request
		submitted = j.SubmittedAt
	}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.JobQueueDepth.Set(float64(s.pool.Stats().QueuedTasks))
	}

	runID, err := s.render(ctx, &req, cond)
	now := time.Now().UTC()

	s.registry.Update(jobID, func(j *model.Job) {
		j.FinishedAt = &now
		if err != nil {
			j.State = model.JobFailed
			j.Error = err.Error()
			return
		}
		j.State = model.JobCompleted
		j.RunID = runID
	})

	if s.metrics != nil {
		state := string(model.JobCompleted)
		if err != nil {
			state = string(model.JobFailed)
		}
		s.metrics.JobsTotal.WithLabelValues(state).Inc()
		s.metrics.JobDuration.Observe(now.Sub(submitted).Seconds())
	}
	if err != nil {
		s.logger.Error("Job failed", zap.String("job_id", jobID), zap.Error(err))
		return err
	}
	s.logger.Info("Job completed", zap.String("job_id", jobID), zap.String("run_id", runID))
	return nil
}

// render builds the scenario, renders the signals and writes the run.
func (s *Service) render(ctx context.Context, req *model.JobRequest, cond ambient.Conditions) (string, error) {
	scn, err := s.buildScenario(req)
	if err != nil {
		return "", err
	}

	frames := int(req.DurationSeconds * float64(s.trackFPS))
	if frames > 0 {
		if err := scn.Simulate(frames); err != nil {
			return "", errors.ScenarioRejected(err.Error())
		}
	}

	renderStart := time.Now()
	res, err := s.renderer.Render(ctx, scn, cond, req.DurationSeconds, req.SampleRate, req.Seed)
	if err != nil {
		return "", errors.RenderFailed("render failed", err)
	}
	if s.metrics != nil {
		s.metrics.RenderDuration.Observe(time.Since(renderStart).Seconds())
		s.metrics.ChannelsRenderedTotal.Add(float64(len(res.Channels)))
		for _, ch := range res.Channels {
			s.metrics.SamplesGeneratedTotal.Add(float64(len(ch.Samples)))
		}
	}

	manifest, err := s.writer.WriteRun(res, cond, req.Label)
	if err != nil {
		if dataset.IsDiskSpaceError(err) {
			dse := err.(*dataset.DiskSpaceError)
			if dse.Stopped {
				return "", errors.DiskFull(dse.UsagePercent, dse.AvailableBytes)
			}
			return "", errors.DiskThrottled(dse.UsagePercent)
		}
		return "", errors.DatasetFailed("failed to write run", err)
	}
	if s.metrics != nil {
		s.metrics.RunsWrittenTotal.Inc()
		s.metrics.RunBytesWritten.Observe(float64(dataset.EstimateRunBytes(res)))
	}
	return manifest.RunID, nil
}

// buildScenario constructs the simulation geometry from the request.
func (s *Service) buildScenario(req *model.JobRequest) (*scenario.Scenario, error) {
	dim := req.Scenario.Dimension
	if dim == 0 {
		dim = 3
	}
	scn, err := scenario.New(dim, s.maxDraft)
	if err != nil {
		return nil, errors.ScenarioRejected(err.Error())
	}

	for i := range req.Scenario.Ships {
		spec := &req.Scenario.Ships[i]
		ship, err := scenario.NewShip(spec.Name, spec.Position,
			scenario.NoiseProfile{Kind: spec.NoiseKind, Level: spec.SourceLevelDB})
		if err != nil {
			return nil, errors.ScenarioRejected(err.Error())
		}
		if len(spec.Destination) > 0 && spec.SpeedMS > 0 {
			dest, err := scenario.FromCoords(spec.Destination)
			if err != nil {
				return nil, errors.ScenarioRejected(err.Error())
			}
			if err := ship.PlanTrack(dest, spec.SpeedMS, s.trackFPS); err != nil {
				return nil, errors.ScenarioRejected(err.Error())
			}
		}
		if err := scn.AddShip(ship); err != nil {
			return nil, errors.ScenarioRejected(err.Error())
		}
	}

	for i := range req.Scenario.Hydrophones {
		spec := &req.Scenario.Hydrophones[i]
		h, err := scenario.NewHydrophone(spec.Name, spec.Position)
		if err != nil {
			return nil, errors.ScenarioRejected(err.Error())
		}
		if err := scn.AddHydrophone(h); err != nil {
			return nil, errors.ScenarioRejected(err.Error())
		}
	}

	if req.Scenario.Current != nil {
		dir, err := scenario.FromCoords(req.Scenario.Current.Direction)
		if err != nil {
			return nil, errors.ScenarioRejected(err.Error())
		}
		scn.SetCurrent(scenario.OceanCurrent{Direction: dir, Strength: req.Scenario.Current.Strength})
	}
	return scn, nil
}

// conditionsFromRequest resolves the ambient conditions of a request. Empty
// rain and shipping fields mean none.
func conditionsFromRequest(req *model.JobRequest) (ambient.Conditions, error) {
	var cond ambient.Conditions

	sea, err := ambient.ParseSea(req.SeaState)
	if err != nil {
		return cond, errors.UnknownCondition("sea_state", strconv.Itoa(req.SeaState))
	}
	cond.Sea = sea

	cond.Rain = ambient.RainNone
	if req.Rain != "" {
		rain, err := ambient.ParseRain(req.Rain)
		if err != nil {
			return cond, errors.UnknownCondition("rain", req.Rain)
		}
		cond.Rain = rain
	}

	cond.Shipping = ambient.ShippingNone
	if req.Shipping != "" {
		shipping, err := ambient.ParseShipping(req.Shipping)
		if err != nil {
			return cond, errors.UnknownCondition("shipping", req.Shipping)
		}
		cond.Shipping = shipping
	}
	return cond, nil
}
