package analyzer

import (
	"errors"
	"strings"
	"testing"
)

// timeoutReader simulates a serial port whose read deadline keeps expiring.
type timeoutReader struct{}

func (timeoutReader) Read(p []byte) (int, error) { return 0, nil }

func TestFramerScalar(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "value line then acknowledgement",
			input:    "VALUE\r\nOK\r\n",
			expected: []string{"VALUE", "OK"},
		},
		{
			name:     "double CRLF is an empty response",
			input:    "\r\n\r\nOK\r\n",
			expected: []string{"", "OK"},
		},
		{
			name:     "blank filler line skipped",
			input:    "\r\nOK\r\n",
			expected: []string{"OK"},
		},
		{
			name:     "trailing OK completes without terminator",
			input:    "OK",
			expected: []string{"OK"},
		},
		{
			name:     "version line",
			input:    "AA-30 109\r\n",
			expected: []string{"AA-30 109"},
		},
		{
			name:     "filler before a value line",
			input:    "\r\nAA-30 109\r\n",
			expected: []string{"AA-30 109"},
		},
		{
			name:     "bare CR dropped inside payload",
			input:    "VAL\rUE\r\n",
			expected: []string{"VALUE"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFramer(strings.NewReader(tt.input))
			for i, want := range tt.expected {
				got, err := f.nextScalar()
				if err != nil {
					t.Fatalf("line %d: unexpected error: %v", i, err)
				}
				if got != want {
					t.Errorf("line %d: got %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestFramerScalarTimeout(t *testing.T) {
	f := newFramer(timeoutReader{})

	_, err := f.nextScalar()
	if !errors.Is(err, ErrFramingTimeout) {
		t.Errorf("expected ErrFramingTimeout, got: %v", err)
	}
}

func TestFramerScalarClosedMidLine(t *testing.T) {
	f := newFramer(strings.NewReader("VAL"))

	_, err := f.nextScalar()
	if !errors.Is(err, ErrFramingClosed) {
		t.Errorf("expected ErrFramingClosed, got: %v", err)
	}
}

func TestFramerRaw(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{
			name:     "two sample lines",
			input:    "14000000,50.0,0.0\r\n14100000,52.1,-3.0\r\n",
			expected: []string{"14000000,50.0,0.0", "14100000,52.1,-3.0"},
		},
		{
			name:     "blank line kept in raw mode",
			input:    "\r\n14000000,50.0,0.0\r\n",
			expected: []string{"", "14000000,50.0,0.0"},
		},
		{
			name:     "CR dropped",
			input:    "a\rb\r\n",
			expected: []string{"ab"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFramer(strings.NewReader(tt.input))
			for i, want := range tt.expected {
				got, err := f.nextRaw()
				if err != nil {
					t.Fatalf("line %d: unexpected error: %v", i, err)
				}
				if got != want {
					t.Errorf("line %d: got %q, want %q", i, got, want)
				}
			}
		})
	}
}

func TestFramerRawClosed(t *testing.T) {
	f := newFramer(strings.NewReader("14000000,50"))

	_, err := f.nextRaw()
	if !errors.Is(err, ErrFramingClosed) {
		t.Errorf("expected ErrFramingClosed, got: %v", err)
	}
}
