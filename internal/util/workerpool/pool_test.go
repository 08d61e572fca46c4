package workerpool

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPoolExecutesTasks(t *testing.T) {
	p := New(&Config{Name: "render", MaxWorkers: 2, QueueSize: 8, Logger: zap.NewNop()})
	defer p.Stop(time.Second)

	var count int32
	done := make(chan struct{}, 4)
	for i := 0; i < 4; i++ {
		err := p.Submit(Task{
			JobID: fmt.Sprintf("job-%d", i),
			Fn: func(ctx context.Context) error {
				atomic.AddInt32(&count, 1)
				done <- struct{}{}
				return nil
			},
		})
		require.NoError(t, err)
	}
	for i := 0; i < 4; i++ {
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("task did not run")
		}
	}
	assert.Equal(t, int32(4), atomic.LoadInt32(&count))
}

func TestPoolRejectsWhenFull(t *testing.T) {
	p := New(&Config{Name: "tiny", MaxWorkers: 1, QueueSize: 1, Logger: zap.NewNop()})
	defer p.Stop(time.Second)

	block := make(chan struct{})
	require.NoError(t, p.Submit(Task{JobID: "blocker", Fn: func(ctx context.Context) error {
		<-block
		return nil
	}}))

	// Fill the queue, then overflow it.
	var rejected bool
	for i := 0; i < 5; i++ {
		if err := p.Submit(Task{JobID: "extra", Fn: func(ctx context.Context) error { return nil }}); err != nil {
			rejected = true
			break
		}
	}
	close(block)
	assert.True(t, rejected)
	assert.Greater(t, p.Stats().RejectedTasks, uint64(0))
}

func TestPoolRecoversFromPanic(t *testing.T) {
	p := New(&Config{Name: "panicky", MaxWorkers: 1, QueueSize: 2, Logger: zap.NewNop()})
	defer p.Stop(time.Second)

	done := make(chan struct{})
	require.NoError(t, p.Submit(Task{JobID: "boom", Fn: func(ctx context.Context) error {
		defer close(done)
		panic("render exploded")
	}}))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("panicking task never ran")
	}

	// The worker must survive and take more work.
	ok := make(chan struct{})
	require.NoError(t, p.Submit(Task{JobID: "after", Fn: func(ctx context.Context) error {
		close(ok)
		return nil
	}}))
	select {
	case <-ok:
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}

	assert.Greater(t, p.Stats().FailedTasks, uint64(0))
}

func TestPoolStopRejectsNewWork(t *testing.T) {
	p := New(&Config{Name: "stopping", MaxWorkers: 1, QueueSize: 1, Logger: zap.NewNop()})
	require.NoError(t, p.Stop(time.Second))

	err := p.Submit(Task{JobID: "late", Fn: func(ctx context.Context) error { return nil }})
	assert.Error(t, err)
}

func TestSubmitWithContextCancellation(t *testing.T) {
	p := New(&Config{Name: "ctx", MaxWorkers: 1, QueueSize: 1, Logger: zap.NewNop()})
	defer p.Stop(time.Second)

	block := make(chan struct{})
	defer close(block)
	require.NoError(t, p.Submit(Task{JobID: "blocker", Fn: func(ctx context.Context) error {
		<-block
		return nil
	}}))
	// Saturate the queue so the next submit must block.
	p.Submit(Task{JobID: "fill", Fn: func(ctx context.Context) error { return nil }})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := p.SubmitWithContext(ctx, Task{JobID: "waiting", Fn: func(ctx context.Context) error { return nil }})
	if err == nil {
		// The queue drained before the deadline, which is also fine.
		return
	}
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatsUtilization(t *testing.T) {
	s := Stats{MaxWorkers: 4, ActiveWorkers: 2, QueueSize: 10, QueuedTasks: 5}
	assert.InDelta(t, 50.0, s.WorkerUtilization(), 1e-9)
	assert.InDelta(t, 50.0, s.QueueUtilization(), 1e-9)

	var zero Stats
	assert.Equal(t, 0.0, zero.WorkerUtilization())
	assert.Equal(t, 0.0, zero.QueueUtilization())
}
