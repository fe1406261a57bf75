package session

import (
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
)

// NotificationKind classifies session notifications
type NotificationKind int

const (

	// NotifyNextPoint asks the operator to measure the next point
	// (Manual mode only)
	NotifyNextPoint NotificationKind = iota

	// NotifyManualDone signals that all points have been visited in
	// Manual mode
	NotifyManualDone

	// NotifyAutoDone signals that an Auto run finished
	NotifyAutoDone

	// NotifyHalted signals that an Auto run stopped on an error
	NotifyHalted

	// NotifyExported signals a completed automatic export
	NotifyExported
)

// Notification denotes an ephemeral session event a caller may surface
type Notification struct {
	Kind    NotificationKind
	Message string

	// TTL suggests how long a caller should display the notification
	// before self-dismissing; zero means sticky
	TTL time.Duration

	// Err carries the cause for NotifyHalted
	Err error
}

// PointResult denotes one recorded measurement and its classification
type PointResult struct {
	Index   int
	Reading meter.Reading
	Verdict meter.Verdict
}
