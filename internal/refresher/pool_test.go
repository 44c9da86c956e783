package refresher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
	"igtracker/pkg/tracker"
)

type mockRunner struct {
	delay   time.Duration
	mu      sync.Mutex
	calls   map[string]int
	fail    map[string][]error
	active  int32
	maxSeen int32
}

func newMockRunner() *mockRunner {
	return &mockRunner{calls: make(map[string]int), fail: make(map[string][]error)}
}

func (m *mockRunner) Run(ctx context.Context, username, ownerID string) (*tracker.Result, error) {
	cur := atomic.AddInt32(&m.active, 1)
	defer atomic.AddInt32(&m.active, -1)
	for {
		seen := atomic.LoadInt32(&m.maxSeen)
		if cur <= seen || atomic.CompareAndSwapInt32(&m.maxSeen, seen, cur) {
			break
		}
	}

	key := ownerID + "/" + username
	m.mu.Lock()
	m.calls[key]++
	var err error
	if queued := m.fail[key]; len(queued) > 0 {
		err = queued[0]
		m.fail[key] = queued[1:]
	}
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}
	return &tracker.Result{}, nil
}

func (m *mockRunner) callCount(key string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[key]
}

func jobs(n int) []Job {
	out := make([]Job, n)
	for i := range out {
		out[i] = Job{OwnerID: "alice", Username: fmt.Sprintf("user%d", i)}
	}
	return out
}

func sourceUnavailable(cause errs.ErrorType) error {
	return errs.Wrap(errs.ErrorTypeSourceUnavailable, "failed to fetch", errs.New(cause, "cause"))
}

func TestRefreshAll(t *testing.T) {
	runner := newMockRunner()
	runner.delay = 5 * time.Millisecond

	summary := RefreshAll(context.Background(), runner, jobs(10), Options{Workers: 3, MaxAttempts: 1}, logger.NewTestLogger())

	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, 10, summary.Succeeded)
	assert.Empty(t, summary.Failed)
	assert.LessOrEqual(t, atomic.LoadInt32(&runner.maxSeen), int32(3))
	for i := 0; i < 10; i++ {
		assert.Equal(t, 1, runner.callCount(fmt.Sprintf("alice/user%d", i)))
	}
}

func TestRetryableFailuresAreRetried(t *testing.T) {
	runner := newMockRunner()
	runner.fail["alice/user0"] = []error{
		sourceUnavailable(errs.ErrorTypeNetwork),
		sourceUnavailable(errs.ErrorTypeRateLimit),
	}

	summary := RefreshAll(context.Background(), runner, jobs(1),
		Options{Workers: 1, MaxAttempts: 3, RetryDelay: time.Millisecond}, nil)

	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 3, runner.callCount("alice/user0"))
}

func TestPermanentFailuresAreNotRetried(t *testing.T) {
	runner := newMockRunner()
	runner.fail["alice/user0"] = []error{sourceUnavailable(errs.ErrorTypeAuth)}
	runner.fail["alice/user1"] = []error{errs.New(errs.ErrorTypeProfileNotFound, "gone")}

	summary := RefreshAll(context.Background(), runner, jobs(3),
		Options{Workers: 2, MaxAttempts: 3, RetryDelay: time.Millisecond}, nil)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Succeeded)
	require.Len(t, summary.Failed, 2)
	for _, failed := range summary.Failed {
		assert.Equal(t, 1, failed.Attempts)
	}
	assert.Equal(t, 1, runner.callCount("alice/user0"))
	assert.Equal(t, 1, runner.callCount("alice/user1"))
}

func TestRetriesExhausted(t *testing.T) {
	runner := newMockRunner()
	runner.fail["alice/user0"] = []error{
		sourceUnavailable(errs.ErrorTypeServerError),
		sourceUnavailable(errs.ErrorTypeServerError),
		sourceUnavailable(errs.ErrorTypeServerError),
	}

	summary := RefreshAll(context.Background(), runner, jobs(1),
		Options{Workers: 1, MaxAttempts: 2, RetryDelay: time.Millisecond}, nil)

	require.Len(t, summary.Failed, 1)
	failed := summary.Failed[0]
	assert.Equal(t, 2, failed.Attempts)
	assert.Equal(t, errs.ErrorTypeSourceUnavailable, errs.TypeOf(failed.Error))
	assert.True(t, errs.IsType(failed.Error, errs.ErrorTypeServerError))
}

func TestJobTimeout(t *testing.T) {
	runner := newMockRunner()
	runner.delay = time.Second

	start := time.Now()
	summary := RefreshAll(context.Background(), runner, jobs(2),
		Options{Workers: 2, MaxAttempts: 3, JobTimeout: 20 * time.Millisecond}, nil)

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, 0, summary.Succeeded)
	require.Len(t, summary.Failed, 2)
	for _, failed := range summary.Failed {
		assert.ErrorIs(t, failed.Error, context.DeadlineExceeded)
		assert.Equal(t, 1, failed.Attempts)
	}
}

func TestPoolSubmitAfterStop(t *testing.T) {
	pool := NewPool(newMockRunner(), Options{}, nil)
	pool.Start(context.Background())

	require.NoError(t, pool.Submit(Job{OwnerID: "alice", Username: "natgeo"}))
	go pool.Stop()

	var results []Result
	for r := range pool.Results() {
		results = append(results, r)
	}
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)

	assert.ErrorIs(t, pool.Submit(Job{OwnerID: "alice", Username: "natgeo"}), ErrPoolStopped)
	pool.Stop()
}

func TestCancelledContext(t *testing.T) {
	runner := newMockRunner()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary := RefreshAll(ctx, runner, jobs(5), Options{Workers: 1, MaxAttempts: 1}, nil)

	assert.Equal(t, 0, summary.Succeeded)
	assert.LessOrEqual(t, summary.Total, 5)
}
