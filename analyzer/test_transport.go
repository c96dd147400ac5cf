package analyzer

import (
	"io"
	"strings"
	"sync"
)

// TestTransport is a test helper that simulates an analyzer behind a
// blocking transport. Reads block on a channel until data is available,
// like a real serial port would, and an optional handler produces the
// device's reply to each written command.
//
// A zero-length chunk pushed into the read side is delivered as a
// (0, nil) read, which is how serial ports report a read timeout.
type TestTransport struct {
	mu       sync.Mutex
	readChan chan []byte
	pending  []byte
	closed   bool
	commands []string

	// Respond, when set, maps a received command (CR stripped) to the raw
	// bytes the fake device sends back. An empty reply sends nothing.
	Respond func(cmd string) string
}

// NewTestTransport creates a new test transport. Exported for use in tests.
func NewTestTransport(respond func(cmd string) string) *TestTransport {
	return &TestTransport{
		readChan: make(chan []byte, 64),
		Respond:  respond,
	}
}

func (t *TestTransport) Write(p []byte) (n int, err error) {
	cmd := strings.TrimSuffix(string(p), cmdTerminator)
	t.mu.Lock()
	t.commands = append(t.commands, cmd)
	respond := t.Respond
	t.mu.Unlock()

	if respond != nil {
		if reply := respond(cmd); reply != "" {
			t.Push(reply)
		}
	}
	return len(p), nil
}

func (t *TestTransport) Read(p []byte) (n int, err error) {
	t.mu.Lock()
	if len(t.pending) > 0 {
		n = copy(p, t.pending)
		t.pending = t.pending[n:]
		t.mu.Unlock()
		return n, nil
	}
	t.mu.Unlock()

	data, ok := <-t.readChan
	if !ok {
		return 0, io.EOF
	}
	n = copy(p, data)
	if n < len(data) {
		t.mu.Lock()
		t.pending = append(t.pending, data[n:]...)
		t.mu.Unlock()
	}
	return n, nil
}

func (t *TestTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	close(t.readChan)
	return nil
}

// Push queues raw bytes to be read from the transport, simulating
// unscripted device output.
func (t *TestTransport) Push(data string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- []byte(data)
	}
}

// PushTimeout makes the next blocking read return (0, nil), which the
// framer interprets as an expired read deadline.
func (t *TestTransport) PushTimeout() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.closed {
		t.readChan <- nil
	}
}

// Commands returns every command written so far, CR terminators stripped.
func (t *TestTransport) Commands() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]string, len(t.commands))
	copy(out, t.commands)
	return out
}

// TestDialer hands out a fixed transport, for wiring a TestTransport into
// Open.
type TestDialer struct {
	Transport Transport
	Err       error
}

func (d TestDialer) Dial() (Transport, error) {
	if d.Err != nil {
		return nil, d.Err
	}
	return d.Transport, nil
}
