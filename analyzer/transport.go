package analyzer

import (
	"fmt"
	"io"

	"go.bug.st/serial"
)

// Transport represents an established, bidirectional byte stream to an
// antenna analyzer.
//
// A Transport is assumed to be already connected and ready for use. Reads
// are expected to block until bytes arrive or a transport-level deadline
// expires; a read that returns (0, nil) is interpreted as that deadline
// expiring, which is how serial ports report a read timeout. Typical
// implementations include serial ports and in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to an analyzer.
//
// Dialer abstracts how the device connection is created (for example, via a
// serial port or a test double) and is intended to be used during session
// construction only. Once a Transport is obtained, the Dialer is no longer
// needed.
type Dialer interface {
	// Dial creates and returns a connected Transport. It returns an error if
	// the transport cannot be established.
	Dial() (Transport, error)
}

// SerialDialer opens an analyzer over a serial port using go.bug.st/serial.
//
// The zero Mode defaults to the AA-30 line settings (38400 8N1). BaudRate is
// only consulted when Mode is nil.
type SerialDialer struct {
	PortName string
	BaudRate int
	Mode     *serial.Mode
}

func (d SerialDialer) Dial() (Transport, error) {
	if d.PortName == "" {
		return nil, fmt.Errorf("analyzer: serial port name is required")
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud == 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}
	return port, nil
}
