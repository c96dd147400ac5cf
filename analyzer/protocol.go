package analyzer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// send writes a command with its CR terminator. No response is read as part
// of this call; write and read are decoupled so the streaming sample
// protocol can interleave them.
func (s *Session) send(cmd string) error {
	if _, err := s.transport.Write([]byte(cmd + cmdTerminator)); err != nil {
		return fmt.Errorf("write command %q: %w", cmd, err)
	}
	return nil
}

// expectOK reads one scalar line and requires it to be the OK token.
func (s *Session) expectOK() error {
	line, err := s.framer.nextScalar()
	if err != nil {
		return err
	}
	if line != okToken {
		return &UnexpectedResponseError{Got: line}
	}
	return nil
}

// PowerOn turns the RF board on. The device is not immediately ready after
// acknowledging; the configured settle delay is honored before returning.
func (s *Session) PowerOn() error {
	if err := s.send(cmdPowerOn); err != nil {
		return err
	}
	if err := s.expectOK(); err != nil {
		return err
	}
	time.Sleep(s.config.SettleDelay)
	return nil
}

// PowerOff turns the RF board off.
func (s *Session) PowerOff() error {
	if err := s.send(cmdPowerOff); err != nil {
		return err
	}
	return s.expectOK()
}

// SetCenterFrequency sets the sweep center frequency in Hz. The cached
// value is updated only after the device acknowledges, so a rejected
// command never leaves the session half-mutated.
func (s *Session) SetCenterFrequency(hz uint64) error {
	if err := s.send(cmdSetFreq + strconv.FormatUint(hz, 10)); err != nil {
		return err
	}
	if err := s.expectOK(); err != nil {
		return err
	}
	s.centerHz = hz
	return nil
}

// SetSpan sets the sweep span in Hz, with the same failure discipline as
// SetCenterFrequency.
func (s *Session) SetSpan(hz uint64) error {
	if err := s.send(cmdSetSpan + strconv.FormatUint(hz, 10)); err != nil {
		return err
	}
	if err := s.expectOK(); err != nil {
		return err
	}
	s.spanHz = hz
	return nil
}

// QueryVersion asks the device for its firmware identification and returns
// the line verbatim. A framing timeout here means the device is absent or
// off, and is reported as ErrDeviceNotResponding.
func (s *Session) QueryVersion() (string, error) {
	if err := s.send(cmdVersion); err != nil {
		return "", err
	}
	line, err := s.framer.nextScalar()
	if err != nil {
		if errors.Is(err, ErrFramingTimeout) {
			return "", fmt.Errorf("%w: no reply to %s", ErrDeviceNotResponding, cmdVersion)
		}
		return "", err
	}
	return line, nil
}

// stream issues FRX<count> and returns a single-pass iterator over the
// resulting sample lines. The iterator consumes directly from the live
// transport and cannot be restarted or rewound.
func (s *Session) stream(count int) (*sampleStream, error) {
	if err := s.send(cmdSample + strconv.Itoa(count)); err != nil {
		return nil, err
	}
	return &sampleStream{framer: s.framer, want: count, leading: true}, nil
}

// sampleStream iterates over the lines of one FRX acquisition in the usual
// Next/Err style. The device may end the stream early with an OK line
// (success, short result) or an ERROR line (ErrAcquisitionAborted).
type sampleStream struct {
	framer *framer
	want   int
	read   int

	// leading is set until the first counted line; blank filler lines ahead
	// of the data are skipped, but once counting starts every line keeps
	// its position.
	leading bool

	point   SamplePoint
	err     error
	done    bool
	earlyOK bool
}

// Next advances to the next sample line. It returns false when the stream
// ends, whether by count, early OK, device error, or transport failure;
// check Err afterwards.
func (st *sampleStream) Next() bool {
	if st.done || st.read >= st.want {
		st.done = true
		return false
	}

	line, err := st.framer.nextRaw()
	for err == nil && line == "" && st.leading {
		line, err = st.framer.nextRaw()
	}
	st.leading = false
	if err != nil {
		st.done = true
		st.err = err
		return false
	}

	if strings.HasPrefix(line, okToken) {
		// Device-side completion before the full count; not an error.
		st.done = true
		st.earlyOK = true
		return false
	}
	if strings.HasPrefix(line, errorToken) {
		st.done = true
		st.err = fmt.Errorf("%w: %q at point %d", ErrAcquisitionAborted, line, st.read)
		return false
	}

	st.point = parseSample(line)
	st.read++
	return true
}

// Point returns the sample produced by the last successful Next call.
func (st *sampleStream) Point() SamplePoint { return st.point }

// Err returns the error that terminated the stream, if any.
func (st *sampleStream) Err() error { return st.err }

// EarlyOK reports whether the device ended the stream with an OK line
// before the requested count was reached.
func (st *sampleStream) EarlyOK() bool { return st.earlyOK }

// Count returns how many counted lines have been consumed so far.
func (st *sampleStream) Count() int { return st.read }

// parseSample parses a freq,resistance,reactance triple. A line that does
// not parse, or that reports a non-positive frequency, degrades to an
// invalid sample so the point keeps its index instead of aborting the
// sweep.
func parseSample(line string) SamplePoint {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return invalidSample()
	}
	freq, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil || freq <= 0 || math.IsNaN(freq) {
		return invalidSample()
	}
	resistance, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
	if err != nil {
		return invalidSample()
	}
	reactance, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return invalidSample()
	}
	return SamplePoint{
		FrequencyHz:   freq,
		ResistanceOhm: resistance,
		ReactanceOhm:  reactance,
	}
}
