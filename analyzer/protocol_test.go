package analyzer

import (
	"errors"
	"math"
	"testing"
	"time"
)

// newWiredSession builds a session directly over a TestTransport, skipping
// the Open handshake, so individual protocol operations can be exercised.
func newWiredSession(tt *TestTransport) *Session {
	config := Config{
		Dialer:      TestDialer{Transport: tt},
		SettleDelay: time.Millisecond,
	}
	config.setDefaults()
	return &Session{
		transport: tt,
		framer:    newFramer(tt),
		config:    config,
		logger:    config.Logger,
	}
}

func TestExpectOKUnexpectedResponse(t *testing.T) {
	tt := NewTestTransport(nil)
	s := newWiredSession(tt)
	tt.Push("ERROR\r\n")

	err := s.expectOK()

	var unexpected *UnexpectedResponseError
	if !errors.As(err, &unexpected) {
		t.Fatalf("expected UnexpectedResponseError, got: %v", err)
	}
	if unexpected.Got != "ERROR" {
		t.Errorf("got %q, want %q", unexpected.Got, "ERROR")
	}
}

func TestSetCenterFrequency(t *testing.T) {
	t.Run("acknowledged command updates the cache", func(t *testing.T) {
		tt := NewTestTransport(func(cmd string) string { return "OK\r\n" })
		s := newWiredSession(tt)

		if err := s.SetCenterFrequency(15_750_000); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.centerHz != 15_750_000 {
			t.Errorf("cached center = %d, want 15750000", s.centerHz)
		}

		commands := tt.Commands()
		if len(commands) != 1 || commands[0] != "FQ15750000" {
			t.Errorf("unexpected commands: %v", commands)
		}
	})

	t.Run("rejected command leaves the cache untouched", func(t *testing.T) {
		tt := NewTestTransport(func(cmd string) string { return "ERROR\r\n" })
		s := newWiredSession(tt)
		s.centerHz = 7_000_000

		err := s.SetCenterFrequency(15_750_000)
		if err == nil {
			t.Fatal("expected an error")
		}
		if s.centerHz != 7_000_000 {
			t.Errorf("cached center = %d, want previous value 7000000", s.centerHz)
		}
	})
}

func TestSetSpan(t *testing.T) {
	tt := NewTestTransport(func(cmd string) string { return "OK\r\n" })
	s := newWiredSession(tt)

	if err := s.SetSpan(24_500_000); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.spanHz != 24_500_000 {
		t.Errorf("cached span = %d, want 24500000", s.spanHz)
	}

	commands := tt.Commands()
	if len(commands) != 1 || commands[0] != "SW24500000" {
		t.Errorf("unexpected commands: %v", commands)
	}
}

func TestQueryVersionTimeout(t *testing.T) {
	tt := NewTestTransport(nil)
	tt.Respond = func(cmd string) string {
		tt.PushTimeout()
		return ""
	}
	s := newWiredSession(tt)

	_, err := s.QueryVersion()
	if !errors.Is(err, ErrDeviceNotResponding) {
		t.Errorf("expected ErrDeviceNotResponding, got: %v", err)
	}
}

func TestParseSample(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		valid bool
	}{
		{"plain triple", "14000000,50.0,0.0", true},
		{"spaces around fields", " 14000000 , 50.0 , -3.5 ", true},
		{"non-positive frequency", "-5.0,50.0,0.0", false},
		{"zero frequency", "0,50.0,0.0", false},
		{"too few fields", "14000000,50.0", false},
		{"too many fields", "14000000,50.0,0.0,1.0", false},
		{"garbage", "garbage", false},
		{"non-numeric field", "14000000,fifty,0.0", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := parseSample(tt.line)
			if p.Valid() != tt.valid {
				t.Errorf("parseSample(%q).Valid() = %v, want %v", tt.line, p.Valid(), tt.valid)
			}
			if !tt.valid && !math.IsNaN(p.FrequencyHz) {
				t.Errorf("invalid sample should carry NaN markers, got %+v", p)
			}
		})
	}
}

func TestStreamErrorTruncation(t *testing.T) {
	tt := NewTestTransport(nil)
	s := newWiredSession(tt)

	stream, err := s.stream(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt.Push("3500000,50.0,0.0\r\n6000000,25.0,10.0\r\nERROR\r\n")

	var points []SamplePoint
	for stream.Next() {
		points = append(points, stream.Point())
	}

	if len(points) != 2 {
		t.Fatalf("expected exactly 2 points before the abort, got %d", len(points))
	}
	if !errors.Is(stream.Err(), ErrAcquisitionAborted) {
		t.Errorf("expected ErrAcquisitionAborted, got: %v", stream.Err())
	}
	if stream.Count() != 2 {
		t.Errorf("Count() = %d, want 2", stream.Count())
	}
}

func TestStreamEarlyOK(t *testing.T) {
	tt := NewTestTransport(nil)
	s := newWiredSession(tt)

	stream, err := s.stream(5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt.Push("3500000,50.0,0.0\r\n6000000,25.0,10.0\r\n9000000,75.0,0.0\r\nOK\r\n")

	count := 0
	for stream.Next() {
		count++
	}

	if count != 3 {
		t.Errorf("expected 3 points, got %d", count)
	}
	if stream.Err() != nil {
		t.Errorf("early OK is not an error, got: %v", stream.Err())
	}
	if !stream.EarlyOK() {
		t.Error("expected EarlyOK to be reported")
	}
}

func TestStreamSkipsLeadingBlankLines(t *testing.T) {
	tt := NewTestTransport(nil)
	s := newWiredSession(tt)

	stream, err := s.stream(1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt.Push("\r\n\r\n14000000,50.0,0.0\r\n")

	if !stream.Next() {
		t.Fatalf("expected a point, stream ended: %v", stream.Err())
	}
	if got := stream.Point().FrequencyHz; got != 14000000 {
		t.Errorf("frequency = %v, want 14000000", got)
	}
	if stream.Next() {
		t.Error("expected the stream to end after the requested count")
	}
}

func TestStreamTimeout(t *testing.T) {
	tt := NewTestTransport(nil)
	s := newWiredSession(tt)

	stream, err := s.stream(2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	tt.Push("14000000,50.0,0.0\r\n")
	tt.PushTimeout()

	if !stream.Next() {
		t.Fatalf("expected the first point, stream ended: %v", stream.Err())
	}
	if stream.Next() {
		t.Fatal("expected the stream to fail on the second point")
	}
	if !errors.Is(stream.Err(), ErrFramingTimeout) {
		t.Errorf("expected ErrFramingTimeout, got: %v", stream.Err())
	}
}
