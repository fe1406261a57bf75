package session

import (
	"os"
	"path/filepath"
	"testing"
)

func f(x float64) *float64 { return &x }

func validConfig() Config {
	return Config{
		Model:          "ACME-42",
		PointCount:     4,
		AutoIntervalMs: 100,
		Limits: LimitsConfig{
			R: BoundsConfig{Min: f(9.5), Max: f(10.5)},
			V: BoundsConfig{Set: f(5.0), Tol: f(0.1)},
		},
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(cfg *Config)
		wantErr bool
	}{
		{"valid", func(cfg *Config) {}, false},
		{"zero interval allowed (defaulted later)", func(cfg *Config) { cfg.AutoIntervalMs = 0 }, false},
		{"point count zero", func(cfg *Config) { cfg.PointCount = 0 }, true},
		{"point count negative", func(cfg *Config) { cfg.PointCount = -3 }, true},
		{"interval below floor", func(cfg *Config) { cfg.AutoIntervalMs = 9 }, true},
		{"min greater than max", func(cfg *Config) { cfg.Limits.R = BoundsConfig{Min: f(10.5), Max: f(9.5)} }, true},
		{"negative tolerance", func(cfg *Config) { cfg.Limits.V = BoundsConfig{Set: f(5.0), Tol: f(-0.1)} }, true},
		{"both limit shapes", func(cfg *Config) {
			cfg.Limits.R = BoundsConfig{Min: f(9.5), Max: f(10.5), Set: f(10), Tol: f(0.5)}
		}, true},
		{"no limit shape", func(cfg *Config) { cfg.Limits.R = BoundsConfig{} }, true},
		{"bad export format", func(cfg *Config) { cfg.Export.Format = "csv" }, true},
		{"bad line ending", func(cfg *Config) { cfg.Serial.LineEnding = "cr" }, true},
		{"bad unit", func(cfg *Config) { cfg.Serial.Unit = "kiloohm" }, true},
	}

	for _, c := range cases {
		cfg := validConfig()
		c.mutate(&cfg)
		err := Validate(&cfg)
		if c.wantErr && err == nil {
			t.Errorf("%s: expected error, got none", c.name)
		}
		if !c.wantErr && err != nil {
			t.Errorf("%s: unexpected error: %s", c.name, err)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	cfg := validConfig()
	cfg.AutoIntervalMs = 0
	cfg.Model = "  ACME-42  "

	Normalize(&cfg)

	if cfg.AutoIntervalMs != 500 {
		t.Errorf("unexpected interval default: %d", cfg.AutoIntervalMs)
	}
	if cfg.Model != "ACME-42" {
		t.Errorf("model not trimmed: %q", cfg.Model)
	}
	if cfg.Serial.BaudRate != 9600 || cfg.Serial.TimeoutMs != 1500 {
		t.Errorf("unexpected serial defaults: %+v", cfg.Serial)
	}
	if cfg.Serial.LineEnding != "crlf" || cfg.Serial.Unit != "milliohm" {
		t.Errorf("unexpected serial defaults: %+v", cfg.Serial)
	}
	if cfg.Export.Format != "narrative" {
		t.Errorf("unexpected export format default: %q", cfg.Export.Format)
	}
	if !cfg.Fallback() {
		t.Errorf("fallback policy not defaulted to enabled")
	}
}

func TestMeterLimitsEquivalence(t *testing.T) {
	explicit := validConfig()
	explicit.Limits = LimitsConfig{
		R: BoundsConfig{Min: f(9.5), Max: f(10.5)},
		V: BoundsConfig{Min: f(4.9), Max: f(5.1)},
	}
	setTol := validConfig()
	setTol.Limits = LimitsConfig{
		R: BoundsConfig{Set: f(10), Tol: f(0.5)},
		V: BoundsConfig{Set: f(5), Tol: f(0.1)},
	}

	a, err := explicit.MeterLimits()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	b, err := setTol.MeterLimits()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if a != b {
		t.Fatalf("representations normalized differently: %+v vs %+v", a, b)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rvcheck.yaml")
	raw := []byte(`model: ACME-42
point_count: 8
auto_interval_ms: 250
limits:
  r:
    set: 10.0
    tol: 0.5
  v:
    min: 4.9
    max: 5.1
export:
  auto: true
  format: table
serial:
  port: /dev/ttyUSB0
  line_ending: lf
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write config file: %s", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}

	if cfg.Model != "ACME-42" || cfg.PointCount != 8 || cfg.AutoIntervalMs != 250 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if !cfg.Export.Auto || cfg.Export.Format != "table" {
		t.Errorf("unexpected export config: %+v", cfg.Export)
	}
	if cfg.Serial.Port != "/dev/ttyUSB0" || cfg.Serial.LineEnding != "lf" {
		t.Errorf("unexpected serial config: %+v", cfg.Serial)
	}
	// Normalization filled the omitted serial fields
	if cfg.Serial.BaudRate != 9600 || cfg.Serial.TimeoutMs != 1500 {
		t.Errorf("serial defaults not applied: %+v", cfg.Serial)
	}

	limits, err := cfg.MeterLimits()
	if err != nil {
		t.Fatalf("unexpected error: %s", err)
	}
	if limits.R.Min != 9.5 || limits.R.Max != 10.5 {
		t.Errorf("set/tol not normalized: %+v", limits.R)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rvcheck.yaml")
	raw := []byte(`point_count: 0
limits:
  r: {min: 9.5, max: 10.5}
  v: {min: 4.9, max: 5.1}
`)
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("failed to write config file: %s", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("invalid config was unexpectedly accepted")
	}
}
