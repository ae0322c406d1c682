package retry

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360/tickfifo/errors"
)

var errBusy = errors.WrapTransient(stderrors.New("busy"), "test", "op", "call")

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: 10 * time.Millisecond,
		MaxDelay:     100 * time.Millisecond,
		Multiplier:   2.0,
		AddJitter:    false,
	}
}

func TestRetry_Success(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errBusy
		}
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 3, attempts)
}

func TestRetry_AllAttemptsFail(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(3), func() error {
		attempts++
		return errBusy
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "3 attempts failed")
	assert.True(t, errors.IsTransient(err))
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, 3, attempts)
}

func TestRetry_InvalidErrorsFailFast(t *testing.T) {
	bad := errors.WrapInvalid(errors.ErrInvalidData, "test", "op", "decode")

	attempts := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		attempts++
		return bad
	})

	assert.Equal(t, 1, attempts)
	assert.Same(t, bad, err)
}

func TestRetry_NonRetryable(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), fastConfig(5), func() error {
		attempts++
		return NonRetryable(errBusy)
	})

	assert.Equal(t, 1, attempts)
	assert.True(t, IsNonRetryable(err))
	assert.ErrorIs(t, err, errBusy)
	assert.Nil(t, NonRetryable(nil))
}

func TestRetry_CustomRetryable(t *testing.T) {
	plain := stderrors.New("plain")
	cfg := fastConfig(4)
	cfg.Retryable = func(err error) bool { return stderrors.Is(err, plain) }

	attempts := 0
	_ = Do(context.Background(), cfg, func() error {
		attempts++
		return plain
	})
	assert.Equal(t, 4, attempts)
}

func TestRetry_OnRetry(t *testing.T) {
	var delays []time.Duration
	cfg := fastConfig(3)
	cfg.OnRetry = func(attempt int, delay time.Duration, err error) {
		assert.ErrorIs(t, err, errBusy)
		delays = append(delays, delay)
	}

	_ = Do(context.Background(), cfg, func() error { return errBusy })
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 20 * time.Millisecond}, delays)
}

func TestRetry_ContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := fastConfig(5)
	cfg.InitialDelay = 100 * time.Millisecond
	cfg.MaxDelay = time.Second

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	attempts := 0
	err := Do(ctx, cfg, func() error {
		attempts++
		return errBusy
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errors.IsTransient(err))
	assert.Less(t, attempts, 5)
}

func TestRetry_BackoffTiming(t *testing.T) {
	start := time.Now()
	attempts := 0

	_ = Do(context.Background(), fastConfig(4), func() error {
		attempts++
		return errBusy
	})

	elapsed := time.Since(start)

	// 10ms + 20ms + 40ms
	assert.GreaterOrEqual(t, elapsed, 70*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
	assert.Equal(t, 4, attempts)
}

func TestRetry_MaxDelay(t *testing.T) {
	cfg := fastConfig(4)
	cfg.MaxDelay = 25 * time.Millisecond
	cfg.Multiplier = 10.0

	var delays []time.Duration
	cfg.OnRetry = func(_ int, d time.Duration, _ error) { delays = append(delays, d) }

	_ = Do(context.Background(), cfg, func() error { return errBusy })
	assert.Equal(t, []time.Duration{10 * time.Millisecond, 25 * time.Millisecond, 25 * time.Millisecond}, delays)
}

func TestRetry_InvalidConfig(t *testing.T) {
	tests := []Config{
		{InitialDelay: -time.Millisecond},
		{MaxDelay: -time.Millisecond},
		{Multiplier: -1},
		{InitialDelay: time.Second, MaxDelay: time.Millisecond},
	}
	for _, cfg := range tests {
		err := Do(context.Background(), cfg, func() error { return nil })
		require.Error(t, err)
		assert.True(t, errors.IsInvalid(err))
	}
}

func TestRetry_WithResult(t *testing.T) {
	attempts := 0
	result, err := DoWithResult(context.Background(), fastConfig(3), func() (string, error) {
		attempts++
		if attempts < 3 {
			return "", errBusy
		}
		return "success", nil
	})

	assert.NoError(t, err)
	assert.Equal(t, "success", result)
	assert.Equal(t, 3, attempts)
}

func TestRetry_Presets(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.True(t, cfg.AddJitter)

	assert.Equal(t, 10, Quick().MaxAttempts)
	assert.Equal(t, 30, Persistent().MaxAttempts)
}

func TestRetry_ZeroAttempts(t *testing.T) {
	attempts := 0
	err := Do(context.Background(), Config{}, func() error {
		attempts++
		return nil
	})

	assert.NoError(t, err)
	assert.Equal(t, 1, attempts)
}
