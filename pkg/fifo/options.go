package fifo

import (
	"log/slog"

	"github.com/c360/tickfifo/metric"
)

// DropKind tells which side of the buffer rejected a request.
type DropKind int

const (
	// Overflow is a write requested while the buffer was full.
	Overflow DropKind = iota
	// Underflow is a read requested while the buffer was empty.
	Underflow
)

// String returns a human-readable representation of the drop kind.
func (k DropKind) String() string {
	switch k {
	case Overflow:
		return "overflow"
	case Underflow:
		return "underflow"
	default:
		return "unknown"
	}
}

// Drop describes one rejected request. Data is the rejected write payload
// (masked to the buffer width) and zero for underflows.
type Drop struct {
	Kind DropKind
	Tick uint64
	Data uint64
}

// DropCallback is called for every rejected request, outside the buffer lock.
type DropCallback func(Drop)

// Option configures buffer behavior using the functional options pattern.
type Option func(*bufferOptions)

type bufferOptions struct {
	dropCallback DropCallback
	logger       *slog.Logger

	// metricsReg is optional; when set, statistics are also exported to Prometheus
	metricsReg    metric.MetricsRegistrar
	metricsPrefix string
}

// WithMetrics exports per-buffer Prometheus metrics labelled with name.
// A nil registry or empty name leaves metrics disabled.
func WithMetrics(registry metric.MetricsRegistrar, name string) Option {
	return func(opts *bufferOptions) {
		if registry != nil && name != "" {
			opts.metricsReg = registry
			opts.metricsPrefix = name
		}
	}
}

// WithDropCallback sets a function called for every rejected write or read.
func WithDropCallback(callback DropCallback) Option {
	return func(opts *bufferOptions) {
		opts.dropCallback = callback
	}
}

// WithLogger sets the logger used for debug output of drops and resets.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *bufferOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

func applyOptions(options ...Option) *bufferOptions {
	opts := &bufferOptions{
		logger: slog.Default(),
	}

	for _, opt := range options {
		if opt != nil {
			opt(opts)
		}
	}

	return opts
}
