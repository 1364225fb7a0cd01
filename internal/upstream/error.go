package upstream

import (
	"errors"
	"fmt"
)

// Error describes a failed call to an external gateway. Transient errors
// (network failures, 5xx responses) may be retried; permanent ones (4xx)
// must surface immediately.
type Error struct {
	Op         string
	StatusCode int
	Transient  bool
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// NewTransient wraps a network-level failure that never reached the gateway.
func NewTransient(op string, err error) *Error {
	return &Error{Op: op, Transient: true, Err: err}
}

// NewStatusError classifies an HTTP response: 5xx is transient, anything
// else that is an error is permanent.
func NewStatusError(op string, statusCode int, err error) *Error {
	return &Error{
		Op:         op,
		StatusCode: statusCode,
		Transient:  statusCode >= 500,
		Err:        err,
	}
}

// IsTransient reports whether err is a gateway error worth retrying.
func IsTransient(err error) bool {
	var ue *Error
	return errors.As(err, &ue) && ue.Transient
}
