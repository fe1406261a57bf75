package meter

import (
	"math"
	"testing"
)

func TestBoundsInclusive(t *testing.T) {
	b := Bounds{Min: 9.5, Max: 10.5}

	cases := []struct {
		x    float64
		want bool
	}{
		{9.5, true},
		{10.5, true},
		{10.0, true},
		{9.499999, false},
		{10.500001, false},
	}
	for _, c := range cases {
		if got := b.Contains(c.x); got != c.want {
			t.Errorf("Contains(%g) = %v, want %v", c.x, got, c.want)
		}
	}
}

func TestBoundsFromSetTol(t *testing.T) {
	b, err := BoundsFromSetTol(10, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if b.Min != 9.5 || b.Max != 10.5 {
		t.Fatalf("unexpected bounds: %+v", b)
	}

	if _, err := BoundsFromSetTol(10, -0.1); err == nil {
		t.Fatalf("negative tolerance was unexpectedly accepted")
	}
}

func TestSetTolEquivalence(t *testing.T) {
	fromSetTol, err := BoundsFromSetTol(10, 0.5)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	explicit := Bounds{Min: 9.5, Max: 10.5}

	for x := 9.0; x <= 11.0; x += 0.05 {
		if fromSetTol.Contains(x) != explicit.Contains(x) {
			t.Errorf("representations disagree at %g", x)
		}
	}
}

func TestBoundsGeometry(t *testing.T) {
	b := Bounds{Min: 9.5, Max: 10.5}
	if math.Abs(b.Center()-10) > 1e-12 {
		t.Errorf("unexpected center: %g", b.Center())
	}
	if math.Abs(b.HalfSpan()-0.5) > 1e-12 {
		t.Errorf("unexpected half-span: %g", b.HalfSpan())
	}
}

func TestLimitsValidate(t *testing.T) {
	valid := Limits{R: Bounds{Min: 9.5, Max: 10.5}, V: Bounds{Min: 4.9, Max: 5.1}}
	if err := valid.Validate(); err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	inverted := Limits{R: Bounds{Min: 10.5, Max: 9.5}, V: Bounds{Min: 4.9, Max: 5.1}}
	if err := inverted.Validate(); err == nil {
		t.Fatalf("inverted bounds were unexpectedly accepted")
	}
}

func TestEvaluate(t *testing.T) {
	limits := Limits{R: Bounds{Min: 9.5, Max: 10.5}, V: Bounds{Min: 4.9, Max: 5.1}}

	f := func(x float64) *float64 { return &x }

	cases := []struct {
		name string
		r, v *float64
		want Verdict
	}{
		{"both within", f(10), f(5), Verdict{WithinR: true, WithinV: true, Pass: true}},
		{"r at lower bound", f(9.5), f(5), Verdict{WithinR: true, WithinV: true, Pass: true}},
		{"r at upper bound", f(10.5), f(5), Verdict{WithinR: true, WithinV: true, Pass: true}},
		{"r out of range", f(11), f(5), Verdict{WithinR: false, WithinV: true, Pass: false}},
		{"v out of range", f(10), f(5.2), Verdict{WithinR: true, WithinV: false, Pass: false}},
		{"r missing", nil, f(5), Verdict{WithinR: false, WithinV: true, Pass: false}},
		{"v missing", f(10), nil, Verdict{WithinR: true, WithinV: false, Pass: false}},
		{"both missing", nil, nil, Verdict{}},
	}
	for _, c := range cases {
		if got := limits.Evaluate(c.r, c.v); got != c.want {
			t.Errorf("%s: got %+v, want %+v", c.name, got, c.want)
		}
	}
}

func TestUnitConversion(t *testing.T) {
	if UnitMilliOhm.FromOhm() != 1000. {
		t.Errorf("unexpected milliohm factor: %g", UnitMilliOhm.FromOhm())
	}
	if UnitOhm.FromOhm() != 1. {
		t.Errorf("unexpected ohm factor: %g", UnitOhm.FromOhm())
	}
}
