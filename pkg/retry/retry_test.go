package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "igtracker/pkg/errors"
	"igtracker/pkg/logger"
)

func fastConfig(maxAttempts int) *Config {
	return &Config{
		MaxAttempts: maxAttempts,
		Backoff:     &ConstantBackoff{Delay: time.Millisecond},
		Context:     context.Background(),
		Logger:      logger.NewTestLogger(),
	}
}

func TestExponentialBackoff(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{0, 0},
		{1, 100 * time.Millisecond},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, time.Second},
		{9, time.Second},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("attempt %d", tt.attempt), func(t *testing.T) {
			assert.Equal(t, tt.want, backoff.NextDelay(tt.attempt))
		})
	}
}

func TestExponentialBackoffJitterBounds(t *testing.T) {
	backoff := &ExponentialBackoff{
		BaseDelay:    100 * time.Millisecond,
		MaxDelay:     time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.5,
	}
	for i := 0; i < 20; i++ {
		d := backoff.NextDelay(2)
		assert.GreaterOrEqual(t, d, 100*time.Millisecond)
		assert.LessOrEqual(t, d, 300*time.Millisecond)
	}
}

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	attempts := 0
	var retried []int
	cfg := fastConfig(5)
	cfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		retried = append(retried, attempt)
	}

	err := Do(func() error {
		attempts++
		if attempts < 3 {
			return &errs.Error{Type: errs.ErrorTypeNetwork, Message: "reset by peer"}
		}
		return nil
	}, cfg)

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Equal(t, []int{1, 2}, retried)
}

func TestDoMaxAttemptsExceeded(t *testing.T) {
	attempts := 0
	cause := &errs.Error{Type: errs.ErrorTypeServerError, Message: "502", Code: 502}

	err := Do(func() error {
		attempts++
		return cause
	}, fastConfig(3))

	require.Error(t, err)
	assert.Equal(t, 3, attempts)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "max retry attempts (3) exceeded")
}

func TestDoStopsOnNonRetryableRoot(t *testing.T) {
	attempts := 0
	authErr := &errs.Error{Type: errs.ErrorTypeAuth, Message: "cookies expired", Code: 401}

	err := Do(func() error {
		attempts++
		return errs.Wrap(errs.ErrorTypeSourceUnavailable, "fetch profile", authErr)
	}, fastConfig(5))

	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.True(t, errs.IsType(err, errs.ErrorTypeAuth))
}

func TestDoRetriesWrappedRateLimit(t *testing.T) {
	attempts := 0
	rateErr := &errs.Error{Type: errs.ErrorTypeRateLimit, Message: "slow down", Code: 429}

	err := Do(func() error {
		attempts++
		if attempts == 1 {
			return errs.Wrap(errs.ErrorTypeSourceUnavailable, "fetch profile", rateErr)
		}
		return nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestDoContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(0)
	cfg.Backoff = &ConstantBackoff{Delay: time.Hour}
	cfg.Context = ctx

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	err := Do(func() error { return errors.New("transient") }, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDefaultRetryIf(t *testing.T) {
	assert.False(t, DefaultRetryIf(nil))
	assert.False(t, DefaultRetryIf(context.Canceled))
	assert.False(t, DefaultRetryIf(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.True(t, DefaultRetryIf(errors.New("untyped")))
	assert.False(t, DefaultRetryIf(errs.New(errs.ErrorTypeProfileNotFound, "gone")))
	assert.True(t, DefaultRetryIf(errs.New(errs.ErrorTypeStoreUnavailable, "locked")))
}

func TestErrorTypeBackoffForError(t *testing.T) {
	etb := NewErrorTypeBackoff()

	rate := errs.Wrap(errs.ErrorTypeSourceUnavailable, "fetch", errs.New(errs.ErrorTypeRateLimit, "429"))
	assert.Same(t, etb.RateLimitBackoff, etb.ForError(rate))
	assert.Same(t, etb.NetworkErrorBackoff, etb.ForError(errs.New(errs.ErrorTypeNetwork, "eof")))
	assert.Same(t, etb.ServerErrorBackoff, etb.ForError(errs.New(errs.ErrorTypeStoreUnavailable, "busy")))
	assert.Same(t, etb.DefaultBackoff, etb.ForError(errors.New("plain")))
}

func TestDoWithResult(t *testing.T) {
	attempts := 0
	got, err := DoWithResult(func() (string, error) {
		attempts++
		if attempts < 2 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, fastConfig(3))

	require.NoError(t, err)
	assert.Equal(t, "ok", got)
}
