// Package errors classifies failures as transient, invalid or fatal and
// wraps them with the component and method that produced them.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorClass decides how a caller reacts to an error.
type ErrorClass int

const (
	// ErrorTransient may succeed when retried.
	ErrorTransient ErrorClass = iota
	// ErrorInvalid is caused by bad input, a bad file or a bad call.
	ErrorInvalid
	// ErrorFatal stops the caller.
	ErrorFatal
)

var classNames = [...]string{
	ErrorTransient: "transient",
	ErrorInvalid:   "invalid",
	ErrorFatal:     "fatal",
}

func (ec ErrorClass) String() string {
	if ec < 0 || int(ec) >= len(classNames) {
		return "unknown"
	}
	return classNames[ec]
}

// Sentinels shared by every package. Match them with errors.Is.
var (
	ErrAlreadyStarted = errors.New("component already started")
	ErrNotStarted     = errors.New("component not started")
	ErrAlreadyStopped = errors.New("component already stopped")

	ErrNoConnection       = errors.New("no connection available")
	ErrConnectionTimeout  = errors.New("connection timeout")
	ErrSubscriptionFailed = errors.New("subscription failed")

	ErrInvalidData   = errors.New("invalid data format")
	ErrParsingFailed = errors.New("parsing failed")

	ErrInvalidConfig  = errors.New("invalid configuration")
	ErrMissingConfig  = errors.New("missing required configuration")
	ErrConfigNotFound = errors.New("configuration not found")

	ErrUnknownOperation = errors.New("unknown operation")

	ErrResourceExhausted = errors.New("resource exhausted")
)

// rule classifies errors that were never wrapped with a class.
type rule struct {
	sentinels []error
	patterns  []string
}

var rules = map[ErrorClass]rule{
	ErrorTransient: {
		sentinels: []error{ErrConnectionTimeout, ErrNoConnection,
			context.DeadlineExceeded, context.Canceled},
		patterns: []string{"timeout", "connection", "temporary", "unavailable"},
	},
	ErrorFatal: {
		sentinels: []error{ErrInvalidConfig, ErrMissingConfig, ErrResourceExhausted},
		patterns:  []string{"fatal", "panic", "invalid config", "missing config"},
	},
	ErrorInvalid: {
		sentinels: []error{ErrInvalidData, ErrParsingFailed, ErrUnknownOperation},
	},
}

func (r rule) match(err error) bool {
	for _, s := range r.sentinels {
		if errors.Is(err, s) {
			return true
		}
	}
	if len(r.patterns) == 0 {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, p := range r.patterns {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

// ClassifiedError carries an explicit class. It always takes precedence
// over sentinel and message matching.
type ClassifiedError struct {
	Class     ErrorClass
	Err       error
	Message   string
	Component string
	Operation string
}

func (ce *ClassifiedError) Error() string {
	if ce.Message == "" {
		return ce.Err.Error()
	}
	return ce.Message
}

func (ce *ClassifiedError) Unwrap() error { return ce.Err }

func is(err error, class ErrorClass) bool {
	if err == nil {
		return false
	}
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce.Class == class
	}
	return rules[class].match(err)
}

// IsTransient reports whether err is worth retrying.
func IsTransient(err error) bool { return is(err, ErrorTransient) }

// IsFatal reports whether err should stop the caller.
func IsFatal(err error) bool { return is(err, ErrorFatal) }

// IsInvalid reports whether err was caused by bad input.
func IsInvalid(err error) bool { return is(err, ErrorInvalid) }

// Classify returns the class of err. Unrecognised errors, and nil, are
// transient.
func Classify(err error) ErrorClass {
	for _, class := range []ErrorClass{ErrorTransient, ErrorFatal, ErrorInvalid} {
		if is(err, class) {
			return class
		}
	}
	return ErrorTransient
}

func newClassified(class ErrorClass, err error, component, operation, message string) *ClassifiedError {
	return &ClassifiedError{
		Class:     class,
		Err:       err,
		Message:   message,
		Component: component,
		Operation: operation,
	}
}

// Wrap annotates err as "component.method: action failed: err".
func Wrap(err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s.%s: %s failed: %w", component, method, action, err)
}

func wrapAs(class ErrorClass, err error, component, method, action string) error {
	if err == nil {
		return nil
	}
	wrapped := Wrap(err, component, method, action)
	return newClassified(class, wrapped, component, method, wrapped.Error())
}

// WrapTransient wraps err and marks it retryable.
func WrapTransient(err error, component, method, action string) error {
	return wrapAs(ErrorTransient, err, component, method, action)
}

// WrapFatal wraps err and marks it fatal.
func WrapFatal(err error, component, method, action string) error {
	return wrapAs(ErrorFatal, err, component, method, action)
}

// WrapInvalid wraps err and marks it as caused by bad input.
func WrapInvalid(err error, component, method, action string) error {
	return wrapAs(ErrorInvalid, err, component, method, action)
}
