package fetc

import (
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
)

// WithPortName sets the serial port to open
func WithPortName(portName string) func(*Device) {
	return func(d *Device) {
		d.portName = portName
	}
}

// WithBaudRate sets the serial baud rate
func WithBaudRate(baudRate int) func(*Device) {
	return func(d *Device) {
		d.baudRate = baudRate
	}
}

// WithLineEnding sets the query command terminator
func WithLineEnding(lineEnding LineEnding) func(*Device) {
	return func(d *Device) {
		d.lineEnding = lineEnding
	}
}

// WithTimeout sets the response read timeout
func WithTimeout(timeout time.Duration) func(*Device) {
	return func(d *Device) {
		d.timeout = timeout
	}
}

// WithUnit sets the unit resistance readings are converted into
func WithUnit(unit meter.Unit) func(*Device) {
	return func(d *Device) {
		d.unit = unit
	}
}

// WithTransport sets an already open transport (used for testing)
func WithTransport(port Port) func(*Device) {
	return func(d *Device) {
		d.port = port
	}
}

// WithLogger sets a logger for the device
func WithLogger(logger meter.Logger) func(*Device) {
	return func(d *Device) {
		d.logger = logger
	}
}
