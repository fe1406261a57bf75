package fetc

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
	"go.bug.st/serial"
)

const (
	defaultBaudRate = 9600
	defaultTimeout  = 1500 * time.Millisecond

	fetchQuery = "FETC?"

	readChunkSize = 64
)

// LineEnding denotes the terminator appended to the query command. It is a
// configuration choice, never auto-detected.
type LineEnding string

const (

	// LineEndingCRLF terminates the query with \r\n (default)
	LineEndingCRLF LineEnding = "\r\n"

	// LineEndingLF terminates the query with a single \n
	LineEndingLF LineEnding = "\n"
)

// Port denotes the transport capability required from an open serial
// connection (satisfied by go.bug.st/serial.Port)
type Port interface {
	io.ReadWriteCloser

	// SetReadTimeout bounds the next Read call
	SetReadTimeout(t time.Duration) error

	// ResetInputBuffer discards unread input
	ResetInputBuffer() error
}

// Device denotes a resistance / voltage meter answering FETC? queries over
// a line-oriented serial protocol
type Device struct {
	portName   string
	baudRate   int
	lineEnding LineEnding
	timeout    time.Duration
	unit       meter.Unit

	port Port

	logger meter.Logger
}

// New instantiates a new Device, executing functional options, if any.
// The device starts disconnected; call Open to establish the session.
func New(options ...func(*Device)) *Device {

	d := &Device{
		baudRate:   defaultBaudRate,
		lineEnding: LineEndingCRLF,
		timeout:    defaultTimeout,
		unit:       meter.UnitMilliOhm,
		logger:     &meter.NullLogger{},
	}

	// Execute functional options (if any), see options.go for implementation
	for _, option := range options {
		option(d)
	}

	return d
}

// ListPorts enumerates the serial ports available on the host
func ListPorts() ([]string, error) {
	return serial.GetPortsList()
}

// Open establishes the serial session. A no-op with a transport injected
// via WithTransport.
func (d *Device) Open() error {

	if d.port != nil {
		return nil
	}
	if d.portName == "" {
		return fmt.Errorf("no serial port configured")
	}

	port, err := serial.Open(d.portName, &serial.Mode{BaudRate: d.baudRate})
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.portName, err)
	}
	d.port = port

	d.logger.Infof("connected to %s @ %d bps", d.portName, d.baudRate)
	return nil
}

// Close terminates the connection to the device
func (d *Device) Close() error {
	if d.port == nil {
		return nil
	}

	err := d.port.Close()
	d.port = nil
	return err
}

// ConnectionStatus returns the current status of the serial connection
func (d *Device) ConnectionStatus() meter.ConnectionStatus {
	if d.port != nil {
		return meter.ConnectionStatus{State: meter.StateConnected}
	}
	return meter.ConnectionStatus{State: meter.StateDisconnected}
}

// PortName returns the configured serial port name
func (d *Device) PortName() string {
	return d.portName
}

// Unit returns the unit resistance readings are converted into
func (d *Device) Unit() meter.Unit {
	return d.unit
}

// Read issues a single FETC? exchange and parses the response line. The
// instrument reports resistance in ohms; the value is converted into the
// configured display unit before being returned.
func (d *Device) Read() (meter.Reading, error) {

	if d.port == nil {
		return meter.Reading{}, meter.ErrNotConnected
	}

	line, err := d.query()
	if err != nil {
		return meter.Reading{}, err
	}

	rOhm, volt, status, err := parseLine(line)
	if err != nil {
		return meter.Reading{}, err
	}

	return meter.Reading{
		TimeStamp:  time.Now(),
		Unit:       d.unit,
		Resistance: rOhm * d.unit.FromOhm(),
		Voltage:    volt,
		Status:     status,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////

// query sends the FETC? command and reads one response line
func (d *Device) query() (string, error) {

	// Discard any stale input before issuing the command
	if err := d.port.ResetInputBuffer(); err != nil {
		d.logger.Warnf("failed to reset input buffer: %s", err)
	}

	if _, err := d.port.Write([]byte(fetchQuery + string(d.lineEnding))); err != nil {
		return "", fmt.Errorf("failed to send query: %w", err)
	}

	return d.readLine()
}

// readLine accumulates input until a newline arrives or the timeout window
// elapses. The timeout is enforced by the transport, not by busy-waiting.
func (d *Device) readLine() (string, error) {

	deadline := time.Now().Add(d.timeout)

	var buf bytes.Buffer
	chunk := make([]byte, readChunkSize)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return "", meter.ErrTimeout
		}
		if err := d.port.SetReadTimeout(remaining); err != nil {
			return "", fmt.Errorf("failed to set read timeout: %w", err)
		}

		n, err := d.port.Read(chunk)
		if err != nil {
			return "", fmt.Errorf("serial read failed: %w", err)
		}
		if n == 0 {
			// go.bug.st/serial signals an expired read timeout with a
			// zero-byte read
			return "", meter.ErrTimeout
		}
		buf.Write(chunk[:n])

		if i := bytes.IndexByte(buf.Bytes(), '\n'); i >= 0 {
			return string(buf.Bytes()[:i]), nil
		}
	}
}

// parseLine splits a response of the form
// "+5.87263E-03,+3.09940E+00,+0" into its resistance (ohms), voltage
// (volts) and optional status code. A status field that fails to parse as
// an integer is treated as absent, not as an error.
func parseLine(line string) (rOhm, volt float64, status *int, err error) {

	s := strings.TrimSpace(line)
	parts := strings.Split(s, ",")
	if len(parts) < 2 {
		return 0, 0, nil, &meter.MalformedResponseError{Line: s}
	}

	rOhm, err = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return 0, 0, nil, &meter.MalformedResponseError{Line: s}
	}
	volt, err = strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return 0, 0, nil, &meter.MalformedResponseError{Line: s}
	}

	if len(parts) >= 3 {
		if code, convErr := strconv.Atoi(strings.TrimPrefix(strings.TrimSpace(parts[2]), "+")); convErr == nil {
			status = &code
		}
	}

	return rOhm, volt, status, nil
}
