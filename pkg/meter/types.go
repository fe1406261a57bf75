package meter

import "time"

// Unit denotes the unit resistance readings are expressed in
type Unit string

const (

	// UnitUnknown denotes an unknown / invalid unit
	UnitUnknown Unit = "--"

	// UnitOhm denotes readings kept in instrument-native ohms
	UnitOhm Unit = "Ω"

	// UnitMilliOhm denotes readings converted to milliohms
	UnitMilliOhm Unit = "mΩ"
)

// FromOhm returns the factor that converts an instrument-native ohm
// value into this unit
func (u Unit) FromOhm() float64 {
	if u == UnitMilliOhm {
		return 1000.
	}
	return 1.
}

// State denotes a connection state
type State int

const (

	// StateDisconnected is active while no instrument session is open
	StateDisconnected State = iota

	// StateConnected is active while being connected to the instrument
	StateConnected
)

// ConnectionStatus denotes the current status of the instrument connection
type ConnectionStatus struct {
	Error error
	State
}

// Reading denotes one resistance / voltage acquisition at a certain point
// in time. Resistance is expressed in the unit the source was configured
// with, voltage always in volts.
type Reading struct {
	TimeStamp  time.Time
	Unit       Unit
	Resistance float64
	Voltage    float64

	// Status holds the optional instrument status code, if the response
	// carried one
	Status *int
}

// Reader provides a single resistance / voltage acquisition
type Reader interface {

	// Read obtains one reading (or fails with one of the errors from
	// errors.go)
	Read() (Reading, error)
}
