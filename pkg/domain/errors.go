package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies pipeline and execution failures.
type ErrorKind string

const (
	KindGeometry     ErrorKind = "geometry"
	KindCompensation ErrorKind = "compensation"
	KindEncoding     ErrorKind = "encoding"
	KindTransport    ErrorKind = "transport"
	KindProtocol     ErrorKind = "protocol"
)

// Sentinels matched by errors.Is against any *Error of the same kind.
var (
	ErrGeometry          = errors.New("geometry error")
	ErrCompensation      = errors.New("compensation error")
	ErrEncoding          = errors.New("encoding error")
	ErrTransport         = errors.New("transport error")
	ErrProtocolViolation = errors.New("protocol violation")
)

var kindSentinels = map[ErrorKind]error{
	KindGeometry:     ErrGeometry,
	KindCompensation: ErrCompensation,
	KindEncoding:     ErrEncoding,
	KindTransport:    ErrTransport,
	KindProtocol:     ErrProtocolViolation,
}

// ErrJobNotFound is returned when a job ID cannot be found in the store.
var ErrJobNotFound = errors.New("job not found")

// ErrProfileNotFound is returned when a device profile cannot be found.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDeviceNotFound is returned when no device is registered under a name.
var ErrDeviceNotFound = errors.New("device not found")

// ErrDeviceBusy is returned when a job is submitted to a device that is running another job.
var ErrDeviceBusy = errors.New("device busy")

// ErrNoActiveJob is returned by control requests against an idle device.
var ErrNoActiveJob = errors.New("no active job")

// ErrInvalidTransition is returned when a status change is not allowed.
var ErrInvalidTransition = errors.New("invalid status transition")

// Error is a failure tagged with the stage that produced it and the
// offending value, so that callers can render a precise message.
type Error struct {
	Kind   ErrorKind
	Stage  string // e.g. "flatten", "tile", "blade-offset", "write"
	Reason string
	Value  any // The value that failed (may be nil)
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Stage, e.Reason)
	if e.Value != nil {
		msg = fmt.Sprintf("%s (got %v)", msg, e.Value)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches the kind sentinel (e.g. errors.Is(err, ErrGeometry)).
func (e *Error) Is(target error) bool {
	return kindSentinels[e.Kind] == target
}

// NewError builds an *Error without a wrapped cause.
func NewError(kind ErrorKind, stage, reason string, value any) *Error {
	return &Error{Kind: kind, Stage: stage, Reason: reason, Value: value}
}

// WrapError builds an *Error around cause.
func WrapError(kind ErrorKind, stage string, cause error) *Error {
	return &Error{Kind: kind, Stage: stage, Reason: "failed", Err: cause}
}

// KindOf returns the kind of the first *Error in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return "", false
}
