package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorClass_String(t *testing.T) {
	assert.Equal(t, "transient", ErrorTransient.String())
	assert.Equal(t, "invalid", ErrorInvalid.String())
	assert.Equal(t, "fatal", ErrorFatal.String())
	assert.Equal(t, "unknown", ErrorClass(-1).String())
	assert.Equal(t, "unknown", ErrorClass(7).String())
}

func TestClassify(t *testing.T) {
	queueFull := WrapTransient(ErrResourceExhausted, "Pool", "Submit", "enqueue job")
	badWidth := WrapInvalid(ErrInvalidConfig, "Buffer", "New", "validate config")

	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorTransient},
		{"unrecognised", errors.New("something odd"), ErrorTransient},
		{"cancelled run", context.Canceled, ErrorTransient},
		{"scenario deadline", fmt.Errorf("run scenarios: %w", context.DeadlineExceeded), ErrorTransient},
		{"nats down", ErrNoConnection, ErrorTransient},
		{"connect message", errors.New("dial tcp: connection refused"), ErrorTransient},
		{"bad scenario file", fmt.Errorf("load: %w", ErrParsingFailed), ErrorInvalid},
		{"unknown op", ErrUnknownOperation, ErrorInvalid},
		{"bare config error", ErrInvalidConfig, ErrorFatal},
		{"panic message", errors.New("panic: slot index out of range"), ErrorFatal},
		// An explicit class beats the sentinel underneath.
		{"queue full", queueFull, ErrorTransient},
		{"width out of range", badWidth, ErrorInvalid},
		{"wrapped twice", fmt.Errorf("fifosim: %w", badWidth), ErrorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err), "err: %v", tt.err)
			if tt.err == nil {
				assert.False(t, IsTransient(tt.err))
				assert.False(t, IsInvalid(tt.err))
				assert.False(t, IsFatal(tt.err))
			}
		})
	}
}

func TestPredicates_ExplicitClassOnly(t *testing.T) {
	err := WrapInvalid(ErrInvalidConfig, "config", "Validate", "check width")
	assert.True(t, IsInvalid(err))
	assert.False(t, IsFatal(err), "explicit class hides the fatal sentinel")
	assert.False(t, IsTransient(err))

	timeout := WrapFatal(errors.New("read timeout"), "reportstore", "Save", "put")
	assert.True(t, IsFatal(timeout))
	assert.False(t, IsTransient(timeout), "explicit class hides the message pattern")
}

func TestWrap(t *testing.T) {
	assert.NoError(t, Wrap(nil, "Buffer", "New", "validate config"))

	err := Wrap(errors.New("depth must be positive"), "Buffer", "New", "validate config")
	assert.EqualError(t, err, "Buffer.New: validate config failed: depth must be positive")
}

func TestWrapClassified(t *testing.T) {
	base := errors.New("publish refused")

	tests := []struct {
		name  string
		wrap  func(error, string, string, string) error
		class ErrorClass
	}{
		{"transient", WrapTransient, ErrorTransient},
		{"fatal", WrapFatal, ErrorFatal},
		{"invalid", WrapInvalid, ErrorInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.wrap(base, "Port", "respond", "publish state")

			var ce *ClassifiedError
			require.ErrorAs(t, err, &ce)
			assert.Equal(t, tt.class, ce.Class)
			assert.Equal(t, "Port", ce.Component)
			assert.Equal(t, "respond", ce.Operation)
			assert.EqualError(t, err, "Port.respond: publish state failed: publish refused")
			assert.ErrorIs(t, err, base)

			assert.NoError(t, tt.wrap(nil, "Port", "respond", "publish state"))
		})
	}
}

func TestClassifiedError_Message(t *testing.T) {
	base := errors.New("slot 3 corrupt")
	assert.EqualError(t, newClassified(ErrorFatal, base, "Buffer", "Tick", ""), "slot 3 corrupt")
	assert.EqualError(t, newClassified(ErrorFatal, base, "Buffer", "Tick", "tick 9 aborted"), "tick 9 aborted")
}

func BenchmarkClassify(b *testing.B) {
	err := WrapTransient(ErrResourceExhausted, "Pool", "Submit", "enqueue job")
	for i := 0; i < b.N; i++ {
		Classify(err)
	}
}
