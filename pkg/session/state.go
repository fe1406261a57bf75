package session

import (
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
)

// Point denotes one test location with its recorded readings and derived
// outcome. Passed is always recomputed from the readings and the active
// limits, never set independently.
type Point struct {
	Resistance *float64
	Voltage    *float64
	Passed     bool
}

// State owns the ordered per-point results and the current-point cursor.
// A point-count change always constructs a fresh State rather than
// resizing in place.
type State struct {
	points []Point
	cursor int
}

// NewState creates a state of pointCount empty points with the cursor at 0
func NewState(pointCount int) *State {
	if pointCount < 1 {
		pointCount = 1
	}
	return &State{points: make([]Point, pointCount)}
}

// Len returns the number of points
func (s *State) Len() int {
	return len(s.points)
}

// Cursor returns the current 0-based point index
func (s *State) Cursor() int {
	return s.cursor
}

// AtLast returns if the cursor is on the final point
func (s *State) AtLast() bool {
	return s.cursor >= len(s.points)-1
}

// Seek moves the cursor, clamped to the valid index range
func (s *State) Seek(idx int) {
	if idx < 0 {
		idx = 0
	}
	if idx > len(s.points)-1 {
		idx = len(s.points) - 1
	}
	s.cursor = idx
}

// Advance moves the cursor one point forward; the cursor holds at the last
// point, it never wraps around
func (s *State) Advance() {
	if !s.AtLast() {
		s.cursor++
	}
}

// Point returns a copy of the point at idx
func (s *State) Point(idx int) Point {
	return s.points[idx]
}

// Points returns a copy of all points
func (s *State) Points() []Point {
	points := make([]Point, len(s.points))
	copy(points, s.points)
	return points
}

// Clear zeroes all point data and resets the cursor, preserving the point
// count
func (s *State) Clear() {
	for i := range s.points {
		s.points[i] = Point{}
	}
	s.cursor = 0
}

// Record writes a reading into the point under the cursor and recomputes
// its derived outcome
func (s *State) Record(reading meter.Reading, limits meter.Limits) meter.Verdict {

	r, v := reading.Resistance, reading.Voltage
	p := &s.points[s.cursor]
	p.Resistance = &r
	p.Voltage = &v

	verdict := limits.Evaluate(p.Resistance, p.Voltage)
	p.Passed = verdict.Pass
	return verdict
}

// Recompute re-derives every point's outcome against new limits
func (s *State) Recompute(limits meter.Limits) {
	for i := range s.points {
		p := &s.points[i]
		p.Passed = limits.Evaluate(p.Resistance, p.Voltage).Pass
	}
}

// Complete returns if every point holds both readings
func (s *State) Complete() bool {
	for i := range s.points {
		if s.points[i].Resistance == nil || s.points[i].Voltage == nil {
			return false
		}
	}
	return true
}

// Snapshot denotes a read-only projection of a session, consumed by export
// and status surfaces
type Snapshot struct {
	Model  string
	Unit   meter.Unit
	Limits meter.Limits
	Points []Point
	Cursor int
	Taken  time.Time
}

// Overall returns the aggregate verdict: PASS only if every point holds a
// resistance reading and every point passed
func (s Snapshot) Overall() bool {
	for _, p := range s.Points {
		if p.Resistance == nil || !p.Passed {
			return false
		}
	}
	return true
}
