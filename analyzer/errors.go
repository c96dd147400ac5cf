package analyzer

import (
	"errors"
	"fmt"
)

var (
	// ErrNoDialer is returned when a Session is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the analyzer.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrAlreadyClosed is returned when Close is called on a Session that has
	// already been closed, or when an operation is attempted after Close.
	ErrAlreadyClosed = errors.New("session already closed")

	// ErrFramingTimeout is returned when the transport yields no bytes before
	// its configured per-read deadline while a response line is expected.
	ErrFramingTimeout = errors.New("timed out waiting for response bytes")

	// ErrFramingClosed is returned when the transport reports end-of-stream
	// while a response line is still being assembled.
	ErrFramingClosed = errors.New("transport closed mid-response")

	// ErrDeviceNotResponding is returned by version queries when the device
	// produces nothing at all, which usually means it is absent or powered
	// off rather than misbehaving.
	ErrDeviceNotResponding = errors.New("device not responding")

	// ErrAcquisitionAborted is returned when the device terminates a sample
	// stream with an ERROR line. Individual malformed sample lines do not
	// trigger it; they degrade to invalid points instead.
	ErrAcquisitionAborted = errors.New("device aborted acquisition")

	// ErrInvalidRequest is returned when a sweep request violates its
	// invariants before any transport I/O happens.
	ErrInvalidRequest = errors.New("invalid sweep request")

	// ErrSessionBusy is returned when a sweep is requested while another one
	// is still in flight on the same session. The request is rejected
	// immediately, without touching the transport.
	ErrSessionBusy = errors.New("sweep already in flight")
)

// UnexpectedResponseError is returned when the device answers a command with
// something other than the expected OK acknowledgement.
type UnexpectedResponseError struct {
	Got string
}

func (e *UnexpectedResponseError) Error() string {
	return fmt.Sprintf("unexpected response: %q", e.Got)
}

// SetupError reports which setup command a sweep failed on. The device is
// powered off (best effort) before it is surfaced to the caller.
type SetupError struct {
	Stage string
	Err   error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("sweep setup failed at %s: %v", e.Stage, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
