package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"igtracker/pkg/logger"
)

func TestAddJobAndList(t *testing.T) {
	s, err := New("UTC", 0, logger.NewTestLogger())
	require.NoError(t, err)

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.AddJob("refresh", "0 */6 * * *", noop))
	require.NoError(t, s.AddJob("another", "@every 1h", noop))

	s.Start()
	defer s.Stop()

	jobs := s.ListJobs()
	require.Len(t, jobs, 2)
	assert.Equal(t, "another", jobs[0].Name)
	assert.Equal(t, "refresh", jobs[1].Name)
	assert.Equal(t, "0 */6 * * *", jobs[1].Schedule)
	assert.False(t, jobs[1].NextRun.IsZero())
	assert.Equal(t, 0, jobs[1].NextRun.Hour()%6)

	s.RemoveJob("another")
	assert.Len(t, s.ListJobs(), 1)
}

func TestAddJobReplacesByName(t *testing.T) {
	s, err := New("", 0, nil)
	require.NoError(t, err)

	noop := func(ctx context.Context) error { return nil }
	require.NoError(t, s.AddJob("refresh", "@every 1h", noop))
	require.NoError(t, s.AddJob("refresh", "@every 2h", noop))

	jobs := s.ListJobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "@every 2h", jobs[0].Schedule)
}

func TestInvalidInput(t *testing.T) {
	_, err := New("Mars/Olympus", 0, nil)
	assert.Error(t, err)

	s, err := New("UTC", 0, nil)
	require.NoError(t, err)
	assert.Error(t, s.AddJob("bad", "every tuesday", func(ctx context.Context) error { return nil }))
	assert.Empty(t, s.ListJobs())

	assert.NoError(t, ValidateSchedule("*/15 * * * *"))
	assert.Error(t, ValidateSchedule("* * *"))
}

func TestRunNow(t *testing.T) {
	log := logger.NewTestLogger()
	s, err := New("UTC", 50*time.Millisecond, log)
	require.NoError(t, err)

	err = s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, log.HasMessage("job failed"))

	boom := errors.New("boom")
	assert.ErrorIs(t, s.RunNow("fail", func(ctx context.Context) error { return boom }), boom)
	assert.NoError(t, s.RunNow("ok", func(ctx context.Context) error { return nil }))
	assert.True(t, log.HasMessage("job completed"))
}

func TestScheduledJobRuns(t *testing.T) {
	s, err := New("UTC", 0, nil)
	require.NoError(t, err)

	var runs int32
	require.NoError(t, s.AddJob("tick", "@every 1s", func(ctx context.Context) error {
		atomic.AddInt32(&runs, 1)
		return nil
	}))
	s.Start()

	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 3*time.Second, 50*time.Millisecond)
	<-s.Stop().Done()
}

func TestStopCancelsRunningJob(t *testing.T) {
	s, err := New("UTC", 0, nil)
	require.NoError(t, err)

	started := make(chan struct{}, 1)
	var cancelled int32
	require.NoError(t, s.AddJob("long", "@every 1s", func(ctx context.Context) error {
		select {
		case started <- struct{}{}:
		default:
		}
		<-ctx.Done()
		atomic.StoreInt32(&cancelled, 1)
		return ctx.Err()
	}))
	s.Start()

	select {
	case <-started:
	case <-time.After(3 * time.Second):
		t.Fatal("job did not start")
	}

	select {
	case <-s.Stop().Done():
	case <-time.After(2 * time.Second):
		t.Fatal("running job was not cancelled")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
}
