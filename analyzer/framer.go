package analyzer

import (
	"bytes"
	"errors"
	"io"
)

// framer assembles logical response lines from the analyzer's raw byte
// stream. The device's framing is irregular: replies are CRLF-delimited but
// interleaved with spurious blank lines, and a response is complete either
// after a double CRLF or when the trailing text ends in the OK token. All of
// that irregularity is kept here, in one place, so the protocol layer above
// only ever sees logical lines.
//
// The framer reads one byte at a time, exactly like the instrument's
// reference tooling, and keeps no lookahead of its own.
type framer struct {
	r io.Reader
	b [1]byte
}

func newFramer(r io.Reader) *framer {
	return &framer{r: r}
}

// readByte pulls a single byte from the transport. A zero-byte read with a
// nil error is how serial ports report an expired read timeout.
func (f *framer) readByte() (byte, error) {
	n, err := f.r.Read(f.b[:])
	if n > 0 {
		return f.b[0], nil
	}
	if err == nil {
		return 0, ErrFramingTimeout
	}
	if errors.Is(err, io.EOF) {
		return 0, ErrFramingClosed
	}
	return 0, err
}

// nextScalar returns the next meaningful response line.
//
// CR bytes are dropped. A CRLF terminating a non-empty payload completes the
// line. A CRLF with an empty payload is a blank filler line: the first one
// is skipped transparently, but a second consecutive one means the response
// itself is empty (the double-CRLF termination the device uses for some
// replies). Accumulated unterminated text ending in the OK token completes
// immediately, without waiting for a terminator.
func (f *framer) nextScalar() (string, error) {
	var payload []byte
	var lastCR bool
	blanks := 0

	for {
		c, err := f.readByte()
		if err != nil {
			return "", err
		}
		switch {
		case c == '\r':
			lastCR = true
		case c == '\n' && lastCR:
			lastCR = false
			if len(payload) > 0 {
				return string(payload), nil
			}
			blanks++
			if blanks == 2 {
				return "", nil
			}
		default:
			lastCR = false
			payload = append(payload, c)
			if bytes.HasSuffix(payload, []byte(okToken)) {
				return string(payload), nil
			}
		}
	}
}

// nextRaw returns one CRLF-delimited payload with no filtering. It is used
// inside a fixed-count sample stream, where every line counts and blank or
// malformed lines must keep their position.
func (f *framer) nextRaw() (string, error) {
	var payload []byte
	var lastCR bool

	for {
		c, err := f.readByte()
		if err != nil {
			return "", err
		}
		switch {
		case c == '\r':
			lastCR = true
		case c == '\n' && lastCR:
			return string(payload), nil
		default:
			lastCR = false
			payload = append(payload, c)
		}
	}
}
