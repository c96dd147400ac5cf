// Package analyzer drives a RigExpert AA-30-class vector-impedance
// analyzer over a serial link: it issues the device's ASCII commands,
// assembles its irregularly framed replies, runs multi-point frequency
// sweeps, and derives SWR, return loss, and time-domain reflectometry from
// the raw impedance samples.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// Session owns the transport connection to one analyzer exclusively. At
// most one sweep may be in flight at a time; concurrent requests are
// rejected with ErrSessionBusy.
type Session struct {
	transport Transport
	framer    *framer
	config    Config
	logger    *slog.Logger

	closed    bool
	sweeping  atomic.Bool
	cancelled atomic.Bool

	version string

	// Cached protocol state, mutated only by the goroutine driving the
	// protocol calls.
	centerHz uint64
	spanHz   uint64
}

// Open dials the analyzer, powers it on, and queries its firmware version.
// The device is left powered on; Close powers it off and releases the
// transport.
func Open(config Config) (*Session, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.Dialer.Dial()
	if err != nil {
		return nil, err
	}

	// Serial ports bound their own blocking reads; apply the configured
	// per-line deadline when the transport supports it.
	if rt, ok := transport.(interface{ SetReadTimeout(time.Duration) error }); ok {
		if err := rt.SetReadTimeout(config.ReadTimeout); err != nil {
			transport.Close()
			return nil, fmt.Errorf("set read timeout: %w", err)
		}
	}

	s := &Session{
		transport: transport,
		framer:    newFramer(transport),
		config:    config,
		logger:    config.Logger,
	}

	if err := s.init(); err != nil {
		transport.Close()
		return nil, fmt.Errorf("initialize analyzer: %w", err)
	}
	return s, nil
}

// init powers the RF board on and reads the firmware identification. A
// device that stays silent here is reported as not responding.
func (s *Session) init() error {
	if err := s.PowerOn(); err != nil {
		return err
	}
	version, err := s.QueryVersion()
	if err != nil {
		return err
	}
	s.version = version
	s.logger.Info("analyzer connected", "version", version)
	return nil
}

// Version returns the firmware identification line read during Open.
func (s *Session) Version() string { return s.version }

// Cancel requests that an in-flight sweep stop. It is advisory: the sweep
// checks it at point boundaries, never mid-read, and completes normally
// with whatever partial result was accumulated.
func (s *Session) Cancel() {
	s.cancelled.Store(true)
}

// Close powers the device off (best effort) and releases the transport.
// After Close the session cannot be reused.
func (s *Session) Close() error {
	if s.closed {
		return ErrAlreadyClosed
	}
	s.closed = true
	if err := s.PowerOff(); err != nil {
		s.logger.Warn("power off on close failed", "error", err)
	}
	return s.transport.Close()
}

// RunSweep executes one sweep and blocks until it finishes. All transport
// I/O happens on the calling goroutine; after each acquired point a
// Progress snapshot is sent to the progress channel (which may be nil).
// Snapshots arrive in strictly increasing index order with no duplicates.
//
// Cancellation — via Cancel or the context — is a normal completion path:
// the partial result is returned with a nil error. Every path, including
// failures, powers the device off before returning, so the session stays
// reusable.
func (s *Session) RunSweep(ctx context.Context, req SweepRequest, progress chan<- Progress) (*SweepResult, error) {
	if s.closed {
		return nil, ErrAlreadyClosed
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !s.sweeping.CompareAndSwap(false, true) {
		return nil, ErrSessionBusy
	}
	defer s.sweeping.Store(false)
	s.cancelled.Store(false)

	if err := s.setup(req); err != nil {
		s.powerOffQuietly()
		return nil, err
	}

	result, err := s.acquire(ctx, req, progress)
	s.powerOffQuietly()
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Session) setup(req SweepRequest) error {
	if err := s.PowerOn(); err != nil {
		return &SetupError{Stage: "power on", Err: err}
	}
	if err := s.SetCenterFrequency(req.centerHz()); err != nil {
		return &SetupError{Stage: "set center frequency", Err: err}
	}
	if err := s.SetSpan(req.spanHz()); err != nil {
		return &SetupError{Stage: "set span", Err: err}
	}
	return nil
}

func (s *Session) acquire(ctx context.Context, req SweepRequest, progress chan<- Progress) (*SweepResult, error) {
	stream, err := s.stream(req.Points)
	if err != nil {
		return nil, err
	}

	z0 := s.config.ReferenceImpedance
	points := make([]MeasuredPoint, 0, req.Points)
	cancelled := false

	for {
		if s.cancelled.Load() || ctx.Err() != nil {
			cancelled = true
			break
		}
		if !stream.Next() {
			break
		}
		sample := stream.Point()
		points = append(points, MeasuredPoint{Sample: sample, Derived: derive(sample, z0)})
		if progress != nil {
			snapshot := make([]MeasuredPoint, len(points))
			copy(snapshot, points)
			progress <- Progress{Index: len(points) - 1, Points: snapshot}
		}
	}

	if !cancelled {
		if err := stream.Err(); err != nil {
			// A cancel that lands while the stream is mid-failure wins:
			// the caller asked to stop, so the partial result stands.
			if !s.cancelled.Load() {
				return nil, err
			}
			cancelled = true
		}
	}

	result := &SweepResult{
		Request:    req,
		Points:     points,
		TimeDomain: timeDomain(points),
		Complete:   !cancelled && len(points) == req.Points,
	}
	s.logger.Info("sweep finished",
		"points", len(points),
		"requested", req.Points,
		"complete", result.Complete,
		"cancelled", cancelled,
	)
	return result, nil
}

// powerOffQuietly is the device-safety backstop: every sweep path powers
// the board off before control returns to the caller, and a failure to do
// so is logged rather than masking the primary outcome.
func (s *Session) powerOffQuietly() {
	if err := s.PowerOff(); err != nil {
		s.logger.Warn("power off after sweep failed", "error", err)
	}
}
