package sim

import (
	"math/rand"
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
)

// Draw mix of the generator: most readings land inside the acceptance band,
// the rest are displaced well outside of it. The split and the span
// multipliers are the behavioral contract of the fallback source, not a
// calibrated noise model.
const (
	passProbability = 0.8

	insideSpanFactor = 0.6

	outsideSpanMin = 0.7
	outsideSpanMax = 1.6
)

// Reader denotes a simulated reading source centered on the midpoint of
// the configured limits. Used standalone when no instrument is present, or
// as a recovery path when an instrument read fails.
type Reader struct {
	limits meter.Limits
	unit   meter.Unit

	rand *rand.Rand
}

// New instantiates a new simulated Reader, executing functional options,
// if any
func New(limits meter.Limits, options ...func(*Reader)) *Reader {

	r := &Reader{
		limits: limits,
		unit:   meter.UnitMilliOhm,
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// WithUnit sets the unit resistance readings are labeled with
func WithUnit(unit meter.Unit) func(*Reader) {
	return func(r *Reader) {
		r.unit = unit
	}
}

// WithRand sets the random source (used for deterministic testing)
func WithRand(rnd *rand.Rand) func(*Reader) {
	return func(r *Reader) {
		r.rand = rnd
	}
}

// Read produces one synthetic resistance / voltage pair. With probability
// 0.8 both axes are drawn uniformly within ±60% of the half-span around
// the limit centers; otherwise both are displaced by 70%–160% of the
// half-span in a randomly chosen direction.
func (r *Reader) Read() (meter.Reading, error) {

	var resistance, voltage float64
	if r.rand.Float64() < passProbability {
		resistance = r.drawInside(r.limits.R)
		voltage = r.drawInside(r.limits.V)
	} else {
		resistance = r.drawOutside(r.limits.R)
		voltage = r.drawOutside(r.limits.V)
	}

	return meter.Reading{
		TimeStamp:  time.Now(),
		Unit:       r.unit,
		Resistance: resistance,
		Voltage:    voltage,
	}, nil
}

////////////////////////////////////////////////////////////////////////////////

func (r *Reader) drawInside(b meter.Bounds) float64 {
	span := insideSpanFactor * b.HalfSpan()
	return b.Center() + (2*r.rand.Float64()-1)*span
}

func (r *Reader) drawOutside(b meter.Bounds) float64 {
	sign := 1.
	if r.rand.Intn(2) == 0 {
		sign = -1.
	}
	displacement := outsideSpanMin + r.rand.Float64()*(outsideSpanMax-outsideSpanMin)
	return b.Center() + sign*displacement*b.HalfSpan()
}
