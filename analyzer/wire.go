package analyzer

const (
	// Terminal control. Commands go out with a bare CR; the device
	// frames its replies with CRLF.
	cmdTerminator = "\r"

	// Response tokens.
	okToken    = "OK"
	errorToken = "ERROR"

	// Command vocabulary.
	cmdPowerOn  = "ON"
	cmdPowerOff = "OFF"
	cmdVersion  = "VER"
	cmdSetFreq  = "FQ"  // FQ<hz>: set center frequency
	cmdSetSpan  = "SW"  // SW<hz>: set sweep span
	cmdSample   = "FRX" // FRX<n>: stream n impedance samples
)
