package meter

import "fmt"

// Bounds denotes one inclusive acceptance interval
type Bounds struct {
	Min float64
	Max float64
}

// BoundsFromSetTol derives an interval from a center ± tolerance
// representation
func BoundsFromSetTol(set, tol float64) (Bounds, error) {
	if tol < 0 {
		return Bounds{}, fmt.Errorf("tolerance must be >= 0, got %g", tol)
	}
	return Bounds{Min: set - tol, Max: set + tol}, nil
}

// Contains returns if x lies within the interval, inclusive on both ends
func (b Bounds) Contains(x float64) bool {
	return b.Min <= x && x <= b.Max
}

// Center returns the midpoint of the interval
func (b Bounds) Center() float64 {
	return (b.Min + b.Max) / 2
}

// HalfSpan returns half the width of the interval
func (b Bounds) HalfSpan() float64 {
	return (b.Max - b.Min) / 2
}

// Validate checks interval sanity
func (b Bounds) Validate() error {
	if b.Min > b.Max {
		return fmt.Errorf("invalid bounds: min %g > max %g", b.Min, b.Max)
	}
	return nil
}

// Limits denotes the acceptance intervals for both measured quantities
type Limits struct {
	R Bounds
	V Bounds
}

// Validate checks both intervals
func (l Limits) Validate() error {
	if err := l.R.Validate(); err != nil {
		return fmt.Errorf("resistance limits: %w", err)
	}
	if err := l.V.Validate(); err != nil {
		return fmt.Errorf("voltage limits: %w", err)
	}
	return nil
}

// Verdict denotes the outcome of evaluating a reading against limits
type Verdict struct {
	WithinR bool
	WithinV bool
	Pass    bool
}

// Evaluate classifies a pair of optional readings. A missing value never
// counts as within range, so a half-completed point is a fail.
func (l Limits) Evaluate(r, v *float64) Verdict {
	var verdict Verdict
	verdict.WithinR = r != nil && l.R.Contains(*r)
	verdict.WithinV = v != nil && l.V.Contains(*v)
	verdict.Pass = verdict.WithinR && verdict.WithinV
	return verdict
}

// EvaluateReading classifies a complete reading
func (l Limits) EvaluateReading(reading Reading) Verdict {
	return l.Evaluate(&reading.Resistance, &reading.Voltage)
}
