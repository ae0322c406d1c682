package worker

import (
	stderrors "errors"

	"github.com/c360/tickfifo/errors"
)

// Pool errors carry a class: lifecycle misuse is invalid, a full queue or a
// slow stop is transient and may be retried.
var (
	ErrNilProcessor       = errors.WrapInvalid(stderrors.New("nil processor"), "Pool", "NewPool", "create pool")
	ErrPoolNotStarted     = errors.WrapInvalid(errors.ErrNotStarted, "Pool", "Submit", "queue work")
	ErrPoolStopped        = errors.WrapInvalid(errors.ErrAlreadyStopped, "Pool", "Submit", "queue work")
	ErrPoolAlreadyStarted = errors.WrapInvalid(errors.ErrAlreadyStarted, "Pool", "Start", "start workers")
	ErrQueueFull          = errors.WrapTransient(errors.ErrResourceExhausted, "Pool", "Submit", "queue full")
	ErrStopTimeout        = errors.WrapTransient(errors.ErrConnectionTimeout, "Pool", "Stop", "wait for workers")
)
