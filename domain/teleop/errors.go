package teleop

import (
	"errors"
	"fmt"
)

// Client errors
var (
	// ErrPrecondition is wrapped by every error caused by calling an operation in the wrong state.
	ErrPrecondition      = errors.New("precondition violation")
	ErrAlreadyConnected  = fmt.Errorf("%w: client is already connected", ErrPrecondition)
	ErrConnectInProgress = fmt.Errorf("%w: connect already in progress", ErrPrecondition)
	ErrConnectAborted    = errors.New("connect aborted by disconnect")
	ErrInvalidEndpoint   = errors.New("invalid bridge endpoint")
	ErrInvalidCommand    = errors.New("invalid drive command")
)

// ConnectError reports a transport that could not be established.
type ConnectError struct {
	Endpoint string
	Err      error
}

func (e *ConnectError) Error() string {
	return fmt.Sprintf("connect to %s: %v", e.Endpoint, e.Err)
}

// Unwrap provides compatibility for Go 1.13+ error chains.
func (e *ConnectError) Unwrap() error {
	return e.Err
}
