package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/labsonar/synthesis/internal/dataset"
	"github.com/labsonar/synthesis/internal/errors"
	"github.com/labsonar/synthesis/internal/model"
	"github.com/labsonar/synthesis/internal/synth"
	"github.com/labsonar/synthesis/internal/util/workerpool"
	"github.com/labsonar/synthesis/internal/validation"
)

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()

	root := t.TempDir()
	writer, err := dataset.NewWriter(root, nil, zap.NewNop())
	require.NoError(t, err)

	pool := workerpool.New(&workerpool.Config{Name: "test", MaxWorkers: 1, QueueSize: 4, Logger: zap.NewNop()})
	t.Cleanup(func() { pool.Stop(time.Second) })

	svc := NewService(nil, pool,
		synth.NewRenderer(nil, zap.NewNop()),
		writer,
		validation.NewValidator(),
		nil,
		zap.NewNop())
	return svc, root
}

func testRequest() *model.JobRequest {
	return &model.JobRequest{
		Label:           "unit",
		SeaState:        2,
		Rain:            "light",
		DurationSeconds: 0.5,
		SampleRate:      2000,
		Seed:            11,
		Scenario: model.ScenarioSpec{
			Ships: []model.ShipSpec{
				{Name: "contact", Position: []float64{200, 0, 5}, SourceLevelDB: 150},
			},
			Hydrophones: []model.HydrophoneSpec{
				{Name: "h1", Position: []float64{0, 0, 20}},
			},
		},
	}
}

func waitTerminal(t *testing.T, svc *Service, id string) *model.Job {
	t.Helper()
	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		j, err := svc.Get(id)
		require.NoError(t, err)
		if j.Terminal() {
			return j
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("job did not finish in time")
	return nil
}

func TestSubmitRunsToCompletion(t *testing.T) {
	svc, root := newTestService(t)

	j, err := svc.Submit(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, model.JobQueued, j.State)

	done := waitTerminal(t, svc, j.ID)
	require.Equal(t, model.JobCompleted, done.State, "error: %s", done.Error)
	assert.NotEmpty(t, done.RunID)
	assert.NotNil(t, done.StartedAt)
	assert.NotNil(t, done.FinishedAt)

	_, err = os.Stat(filepath.Join(root, done.RunID, "manifest.yaml"))
	assert.NoError(t, err)
}

func TestSubmitRejectsInvalidRequest(t *testing.T) {
	svc, _ := newTestService(t)

	req := testRequest()
	req.SampleRate = 1
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidArgument, errors.GetCode(err))
	assert.Empty(t, svc.List())
}

func TestSubmitRejectsUnknownConditions(t *testing.T) {
	svc, _ := newTestService(t)

	req := testRequest()
	req.Rain = "sideways"
	_, err := svc.Submit(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeUnknownCondition, errors.GetCode(err))
}

func TestGetUnknownJob(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Get("bogus")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeJobNotFound, errors.GetCode(err))
}

func TestListPreservesSubmissionOrder(t *testing.T) {
	svc, _ := newTestService(t)

	first, err := svc.Submit(context.Background(), testRequest())
	require.NoError(t, err)
	second, err := svc.Submit(context.Background(), testRequest())
	require.NoError(t, err)

	jobs := svc.List()
	require.Len(t, jobs, 2)
	assert.Equal(t, first.ID, jobs[0].ID)
	assert.Equal(t, second.ID, jobs[1].ID)

	waitTerminal(t, svc, first.ID)
	waitTerminal(t, svc, second.ID)
}

func TestShipWithTrackCompletes(t *testing.T) {
	svc, _ := newTestService(t)

	req := testRequest()
	req.Scenario.Ships[0].Destination = []float64{0, 0, 5}
	req.Scenario.Ships[0].SpeedMS = 10

	j, err := svc.Submit(context.Background(), req)
	require.NoError(t, err)

	done := waitTerminal(t, svc, j.ID)
	assert.Equal(t, model.JobCompleted, done.State, "error: %s", done.Error)
}

func TestBuildScenarioClampsShipDraft(t *testing.T) {
	svc, _ := newTestService(t)
	svc.maxDraft = 5

	req := testRequest()
	req.Scenario.Ships[0].Position = []float64{200, 0, 50}

	scn, err := svc.buildScenario(req)
	require.NoError(t, err)
	require.Len(t, scn.Ships(), 1)
	assert.Equal(t, 5.0, scn.Ships()[0].Position.Z)
}

func TestRegistryUpdateUnknown(t *testing.T) {
	r := NewRegistry()
	err := r.Update("nope", func(j *model.Job) {})
	assert.Error(t, err)
	assert.Equal(t, 0, r.Len())
}
