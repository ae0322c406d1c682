// Package errors provides standardized error handling patterns for tickfifo.
//
// # Overview
//
// The package implements a three-class error classification: Transient
// (temporary, retryable), Invalid (bad input, non-retryable), and Fatal
// (unrecoverable, stop processing).
//
// The FIFO core itself never fails at runtime: overflow and underflow
// attempts are silently dropped and only counted. Errors appear at the edges:
// construction with a bad depth or width, malformed configuration or scenario
// files, and transport failures in the tick port.
//
// # Error Classification
//
//   - Transient: NATS timeouts, lost connections, context cancellation
//   - Invalid: malformed scenario steps, bad tick requests, bad configuration
//     wrapped with WrapInvalid
//   - Fatal: unwrapped configuration errors, resource exhaustion
//
// Classification works with errors.Is, errors.As and wrapping chains.
//
// # Error Wrapping Pattern
//
// All wrapping follows the format:
//
//	"component.method: action failed: %w"
//
// Three wrappers set the class explicitly:
//
//	errors.WrapTransient(err, "Client", "Connect", "establish connection")
//	errors.WrapInvalid(errors.ErrInvalidConfig, "Buffer", "New", "depth must be positive")
//	errors.WrapFatal(err, "Server", "Start", "listen")
//
// The generic Wrap preserves the class of the wrapped error:
//
//	errors.Wrap(err, "Scenario", "Load", "read file")
//
// # Standard Error Variables
//
//   - Lifecycle: ErrAlreadyStarted, ErrNotStarted, ErrAlreadyStopped
//   - Connection: ErrNoConnection, ErrConnectionTimeout, ErrSubscriptionFailed
//   - Data: ErrInvalidData, ErrParsingFailed
//   - Configuration: ErrInvalidConfig, ErrMissingConfig, ErrConfigNotFound
//   - Testbench: ErrUnknownOperation
//   - Resources: ErrResourceExhausted
//
// Check classification before deciding how to react:
//
//	buf, err := fifo.New(cfg)
//	if err != nil {
//	    if errors.IsInvalid(err) {
//	        // report to the operator, do not retry
//	    }
//	    return err
//	}
//
// # Thread Safety
//
// Error variables are immutable and ClassifiedError values are safe to share
// across goroutines after creation.
package errors
