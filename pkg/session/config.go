package session

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rvlab/rvcheck/pkg/meter"
	"gopkg.in/yaml.v3"
)

const (
	defaultPointCount     = 20
	defaultAutoIntervalMs = 500
	defaultBaudRate       = 9600
	defaultTimeoutMs      = 1500

	minAutoIntervalMs = 10
)

// Config is the full configuration surface consumed by the session core
type Config struct {
	Model          string       `yaml:"model"`
	PointCount     int          `yaml:"point_count"`
	AutoIntervalMs int          `yaml:"auto_interval_ms"`
	Limits         LimitsConfig `yaml:"limits"`
	Export         ExportConfig `yaml:"export"`
	Serial         SerialConfig `yaml:"serial"`

	// FallbackOnError selects the recovery policy for Timeout /
	// MalformedResponse instrument failures: fall back to a simulated
	// reading (true, default) or halt the run (false). A missing
	// connection always halts, regardless of this setting.
	FallbackOnError *bool `yaml:"fallback_on_error"`
}

// LimitsConfig holds the acceptance intervals for both quantities
type LimitsConfig struct {
	R BoundsConfig `yaml:"r"`
	V BoundsConfig `yaml:"v"`
}

// BoundsConfig accepts either an explicit min / max pair or a center ±
// tolerance pair. Exactly one representation must be given per axis; both
// normalize to the same internal interval.
type BoundsConfig struct {
	Min *float64 `yaml:"min"`
	Max *float64 `yaml:"max"`
	Set *float64 `yaml:"set"`
	Tol *float64 `yaml:"tol"`
}

// ExportConfig controls result export
type ExportConfig struct {
	Auto   bool   `yaml:"auto"`
	Dir    string `yaml:"dir"`
	Format string `yaml:"format"` // "narrative" (default) or "table"
}

// SerialConfig describes the instrument connection
type SerialConfig struct {
	Port       string `yaml:"port"`
	BaudRate   int    `yaml:"baud_rate"`
	LineEnding string `yaml:"line_ending"` // "crlf" (default) or "lf"
	TimeoutMs  int    `yaml:"timeout_ms"`
	Unit       string `yaml:"unit"` // "milliohm" (default) or "ohm"
}

// Default returns the configuration used when no file is provided
func Default() Config {
	rSet, rTol := 10.0, 0.5
	vSet, vTol := 5.0, 0.1
	return Config{
		PointCount:     defaultPointCount,
		AutoIntervalMs: defaultAutoIntervalMs,
		Limits: LimitsConfig{
			R: BoundsConfig{Set: &rSet, Tol: &rTol},
			V: BoundsConfig{Set: &vSet, Tol: &vTol},
		},
	}
}

// Load reads, validates and normalizes a yaml configuration file
func Load(path string) (Config, error) {

	raw, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return Config{}, err
	}
	Normalize(&cfg)

	return cfg, nil
}

// Validate checks configuration correctness. It performs declarative
// validation only and MUST NOT mutate configuration.
func Validate(cfg *Config) error {

	if cfg.PointCount < 1 {
		return fmt.Errorf("point_count must be >= 1, got %d", cfg.PointCount)
	}
	if cfg.AutoIntervalMs != 0 && cfg.AutoIntervalMs < minAutoIntervalMs {
		return fmt.Errorf("auto_interval_ms must be >= %d, got %d", minAutoIntervalMs, cfg.AutoIntervalMs)
	}

	if _, err := cfg.Limits.R.bounds(); err != nil {
		return fmt.Errorf("limits.r: %w", err)
	}
	if _, err := cfg.Limits.V.bounds(); err != nil {
		return fmt.Errorf("limits.v: %w", err)
	}

	switch cfg.Export.Format {
	case "", "narrative", "table":
	default:
		return fmt.Errorf("export.format must be \"narrative\" or \"table\", got %q", cfg.Export.Format)
	}

	switch cfg.Serial.LineEnding {
	case "", "crlf", "lf":
	default:
		return fmt.Errorf("serial.line_ending must be \"crlf\" or \"lf\", got %q", cfg.Serial.LineEnding)
	}
	switch cfg.Serial.Unit {
	case "", "milliohm", "ohm":
	default:
		return fmt.Errorf("serial.unit must be \"milliohm\" or \"ohm\", got %q", cfg.Serial.Unit)
	}
	if cfg.Serial.BaudRate < 0 {
		return fmt.Errorf("serial.baud_rate must be positive, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Serial.TimeoutMs < 0 {
		return fmt.Errorf("serial.timeout_ms must be positive, got %d", cfg.Serial.TimeoutMs)
	}

	return nil
}

// Normalize applies post-validation defaults. It is allowed to mutate
// configuration and MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	cfg.Model = strings.TrimSpace(cfg.Model)

	if cfg.AutoIntervalMs == 0 {
		cfg.AutoIntervalMs = defaultAutoIntervalMs
	}
	if cfg.Export.Format == "" {
		cfg.Export.Format = "narrative"
	}
	if cfg.Serial.BaudRate == 0 {
		cfg.Serial.BaudRate = defaultBaudRate
	}
	if cfg.Serial.TimeoutMs == 0 {
		cfg.Serial.TimeoutMs = defaultTimeoutMs
	}
	if cfg.Serial.LineEnding == "" {
		cfg.Serial.LineEnding = "crlf"
	}
	if cfg.Serial.Unit == "" {
		cfg.Serial.Unit = "milliohm"
	}
	if cfg.FallbackOnError == nil {
		fallback := true
		cfg.FallbackOnError = &fallback
	}
}

// MeterLimits returns the normalized acceptance intervals
func (c Config) MeterLimits() (meter.Limits, error) {

	r, err := c.Limits.R.bounds()
	if err != nil {
		return meter.Limits{}, fmt.Errorf("limits.r: %w", err)
	}
	v, err := c.Limits.V.bounds()
	if err != nil {
		return meter.Limits{}, fmt.Errorf("limits.v: %w", err)
	}

	return meter.Limits{R: r, V: v}, nil
}

// Unit returns the resistance display unit
func (c Config) Unit() meter.Unit {
	if c.Serial.Unit == "ohm" {
		return meter.UnitOhm
	}
	return meter.UnitMilliOhm
}

// AutoInterval returns the configured auto-mode interval
func (c Config) AutoInterval() time.Duration {
	return time.Duration(c.AutoIntervalMs) * time.Millisecond
}

// Fallback returns the normalized recovery policy flag
func (c Config) Fallback() bool {
	return c.FallbackOnError == nil || *c.FallbackOnError
}

func (b BoundsConfig) bounds() (meter.Bounds, error) {

	explicit := b.Min != nil && b.Max != nil
	setTol := b.Set != nil && b.Tol != nil

	switch {
	case explicit && setTol:
		return meter.Bounds{}, fmt.Errorf("specify either min/max or set/tol, not both")
	case explicit:
		bounds := meter.Bounds{Min: *b.Min, Max: *b.Max}
		return bounds, bounds.Validate()
	case setTol:
		return meter.BoundsFromSetTol(*b.Set, *b.Tol)
	default:
		return meter.Bounds{}, fmt.Errorf("either min/max or set/tol must be given")
	}
}
