package jobs

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestQueueProcessesJobs(t *testing.T) {
	var mu sync.Mutex
	seen := make(map[string]bool)
	done := make(chan struct{}, 3)

	q := NewQueue("test", func(ctx context.Context, job Job) error {
		mu.Lock()
		seen[job.ID] = true
		mu.Unlock()
		done <- struct{}{}
		return nil
	}, QueueConfig{Workers: 2})
	q.Start(context.Background())
	defer q.Stop()

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, q.Enqueue(Job{ID: id, Type: "persist"}))
	}
	for i := 0; i < 3; i++ {
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("job not processed")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 3)
}

func TestQueueNoRetryDropsAfterFirstFailure(t *testing.T) {
	var attempts int32
	dropped := make(chan Job, 1)

	q := NewQueue("no-retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("backend down")
	}, QueueConfig{Workers: 1, NoRetry: true, RetryDelay: time.Millisecond, OnDrop: func(job Job, err error) {
		dropped <- job
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "persist"}))

	select {
	case job := <-dropped:
		assert.Equal(t, "j1", job.ID)
		assert.Equal(t, 1, job.Attempt)
	case <-time.After(time.Second):
		t.Fatal("job was not dropped")
	}
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&attempts))
}

func TestQueueRetriesByDefault(t *testing.T) {
	var attempts int32
	dropped := make(chan struct{}, 1)

	q := NewQueue("retry", func(ctx context.Context, job Job) error {
		atomic.AddInt32(&attempts, 1)
		return errors.New("fail")
	}, QueueConfig{Workers: 1, MaxRetries: 2, RetryDelay: time.Millisecond, OnDrop: func(Job, error) {
		dropped <- struct{}{}
	}})
	q.Start(context.Background())
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1"}))
	select {
	case <-dropped:
	case <-time.After(time.Second):
		t.Fatal("job was not dropped")
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestEnqueueBeforeStartFails(t *testing.T) {
	q := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, q.Enqueue(Job{ID: "x"}))
	q.Stop()
}

func TestEnqueueReportsFullBuffer(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{}, 1)
	q := NewQueue("full", func(ctx context.Context, job Job) error {
		started <- struct{}{}
		<-release
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 1})
	q.Start(context.Background())
	defer q.Stop()
	defer close(release)

	require.NoError(t, q.Enqueue(Job{ID: "busy"}))
	<-started
	require.NoError(t, q.Enqueue(Job{ID: "buffered"}))

	err := q.Enqueue(Job{ID: "overflow"})
	assert.True(t, errors.Is(err, ErrQueueFull))
}

func TestStopDrainsBufferedJobs(t *testing.T) {
	var completed int32
	release := make(chan struct{})
	q := NewQueue("drain", func(ctx context.Context, job Job) error {
		<-release
		atomic.AddInt32(&completed, 1)
		return nil
	}, QueueConfig{Workers: 1, BufferSize: 8, ShutdownTimeout: 5 * time.Second})
	q.Start(context.Background())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	close(release)
	q.Stop()

	assert.Equal(t, int32(5), atomic.LoadInt32(&completed))
	err := q.Enqueue(Job{ID: "late"})
	assert.True(t, errors.Is(err, ErrQueueStopped))
}

func TestStopDropsJobsLeftAfterTimeout(t *testing.T) {
	var mu sync.Mutex
	var dropped []string
	q := NewQueue("slow", func(ctx context.Context, job Job) error {
		<-ctx.Done()
		return ctx.Err()
	}, QueueConfig{Workers: 1, BufferSize: 4, NoRetry: true, ShutdownTimeout: 20 * time.Millisecond, OnDrop: func(job Job, err error) {
		mu.Lock()
		defer mu.Unlock()
		dropped = append(dropped, job.ID)
		if job.ID != "running" {
			assert.True(t, errors.Is(err, ErrQueueStopped))
		}
	}})
	q.Start(context.Background())

	for _, id := range []string{"running", "waiting-1", "waiting-2"} {
		require.NoError(t, q.Enqueue(Job{ID: id}))
	}
	q.Stop()

	mu.Lock()
	defer mu.Unlock()
	assert.ElementsMatch(t, []string{"running", "waiting-1", "waiting-2"}, dropped)
}
