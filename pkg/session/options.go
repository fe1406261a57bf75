package session

import "github.com/rvlab/rvcheck/pkg/meter"

// WithInstrument sets the instrument reading source. Without one the
// controller runs on simulated readings exclusively.
func WithInstrument(r meter.Reader) func(*Controller) {
	return func(c *Controller) {
		c.instrument = r
	}
}

// WithFallback overrides the simulated fallback source (used for testing)
func WithFallback(r meter.Reader) func(*Controller) {
	return func(c *Controller) {
		c.fallback = r
	}
}

// WithExporter sets the exporter invoked on Auto-run completion when
// auto-export is enabled
func WithExporter(e Exporter) func(*Controller) {
	return func(c *Controller) {
		c.exporter = e
	}
}

// WithLogger sets a logger for the controller
func WithLogger(logger meter.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}
