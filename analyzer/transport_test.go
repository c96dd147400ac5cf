package analyzer_test

import (
	"errors"
	"io"
	"testing"

	"go.bug.st/serial"
	"go.uber.org/mock/gomock"

	"github.com/rfbench/aa30gw/analyzer"
)

func TestSerialDialerEmptyPortName(t *testing.T) {
	_, err := analyzer.SerialDialer{}.Dial()
	if err == nil {
		t.Fatal("expected an error")
	}
	if err.Error() != "analyzer: serial port name is required" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestSerialDialerNonexistentPort(t *testing.T) {
	_, err := analyzer.SerialDialer{PortName: "/dev/nonexistent-aa30"}.Dial()
	if err == nil {
		t.Fatal("expected an error opening a nonexistent port")
	}
}

func TestSerialDialerExplicitMode(t *testing.T) {
	d := analyzer.SerialDialer{
		PortName: "/dev/nonexistent-aa30",
		Mode:     &serial.Mode{BaudRate: 115200},
	}
	_, err := d.Dial()
	if err == nil {
		t.Fatal("expected an error opening a nonexistent port")
	}
}

func TestTransportInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := analyzer.NewMockTransport(ctrl)
	transport.EXPECT().Write([]byte("VER\r")).Return(4, nil)
	transport.EXPECT().Read(gomock.Any()).Return(0, io.EOF)
	transport.EXPECT().Close().Return(nil)

	if n, err := transport.Write([]byte("VER\r")); n != 4 || err != nil {
		t.Errorf("Write = (%d, %v), want (4, nil)", n, err)
	}
	if _, err := transport.Read(make([]byte, 1)); !errors.Is(err, io.EOF) {
		t.Errorf("Read error = %v, want io.EOF", err)
	}
	if err := transport.Close(); err != nil {
		t.Errorf("Close = %v, want nil", err)
	}
}

func TestDialerInterface(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	transport := analyzer.NewMockTransport(ctrl)
	dialer := analyzer.NewMockDialer(ctrl)
	dialer.EXPECT().Dial().Return(transport, nil)

	got, err := dialer.Dial()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != transport {
		t.Error("Dial returned a different transport")
	}
}

func TestDialerInterfaceError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	dialErr := errors.New("port in use")
	dialer := analyzer.NewMockDialer(ctrl)
	dialer.EXPECT().Dial().Return(nil, dialErr)

	_, err := dialer.Dial()
	if !errors.Is(err, dialErr) {
		t.Errorf("Dial error = %v, want %v", err, dialErr)
	}
}
