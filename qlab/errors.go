package qlab

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrRemoteRejected matches every *RemoteRejectedError.
	ErrRemoteRejected = errors.New("QLab rejected request")
	// ErrTimeoutStall matches every *TimeoutStallError.
	ErrTimeoutStall = errors.New("timeout waiting for reply from QLab")
	// ErrInvalidCueType is returned before any request is sent for an unknown cue kind.
	ErrInvalidCueType = errors.New("invalid cue type")
)

// RemoteRejectedError is returned when QLab answers a request with a status
// other than ok.
type RemoteRejectedError struct {
	Address string
	Args    []any
	Status  string
	Payload string
}

func (e *RemoteRejectedError) Error() string {
	base := fmt.Sprintf("QLab returned %s for %s (args: %v)", e.Status, e.Address, e.Args)
	if e.Payload == "" {
		return base
	}
	return formatErrorWithJSON(base, e.Payload).Error()
}

func (e *RemoteRejectedError) Is(target error) bool {
	return target == ErrRemoteRejected
}

// TimeoutStallError is returned when no reply arrived for a request within
// the configured timeout.
type TimeoutStallError struct {
	Address string
	Args    []any
	Waited  time.Duration
}

func (e *TimeoutStallError) Error() string {
	return fmt.Sprintf("timeout waiting for reply from QLab for %s (args: %v) after %v - is QLab running and accessible?", e.Address, e.Args, e.Waited)
}

func (e *TimeoutStallError) Unwrap() error {
	return ErrTimeoutStall
}
