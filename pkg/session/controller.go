package session

import (
	"errors"
	"sync"
	"time"

	"github.com/fatih/stopwatch"
	"github.com/rvlab/rvcheck/pkg/meter"
	"github.com/rvlab/rvcheck/pkg/sim"
)

// minTickInterval is the floor of the auto-loop rescheduling delay,
// enforced regardless of the configured interval
const minTickInterval = 50 * time.Millisecond

// Mode selects between operator-paced and timer-paced acquisition
type Mode int

const (

	// ModeManual advances one point per explicit MeasureOne call
	ModeManual Mode = iota

	// ModeAuto advances on a timer until the last point is visited
	ModeAuto
)

// Exporter persists a completed session. Wired to pkg/report by the
// caller; kept as an interface here so the session core never touches the
// filesystem itself.
type Exporter interface {

	// ExportAuto writes a report for the snapshot to a configured
	// destination and returns the written path
	ExportAuto(s Snapshot) (string, error)
}

// Controller drives Manual and Auto measurement over a session state. All
// mutation happens under one lock; the auto loop is a cooperative,
// timer-driven re-entry, each tick runs to completion before the next is
// scheduled.
type Controller struct {
	mu sync.Mutex

	cfg    Config
	limits meter.Limits
	state  *State

	instrument meter.Reader // nil when running on simulated readings only
	fallback   meter.Reader

	mode        Mode
	autoRunning bool
	timer       *time.Timer
	gen         uint64 // invalidates pending ticks scheduled before a stop

	watch *stopwatch.Stopwatch
	last  *meter.Reading

	exporter Exporter

	notificationHandler func(n Notification)
	notificationChan    chan Notification

	resultHandler func(res PointResult)
	resultChan    chan PointResult

	logger meter.Logger
}

// New instantiates a new Controller for the given configuration, executing
// functional options, if any
func New(cfg Config, options ...func(*Controller)) (*Controller, error) {

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	Normalize(&cfg)

	limits, err := cfg.MeterLimits()
	if err != nil {
		return nil, err
	}

	c := &Controller{
		cfg:      cfg,
		limits:   limits,
		state:    NewState(cfg.PointCount),
		fallback: sim.New(limits, sim.WithUnit(cfg.Unit())),
		logger:   &meter.NullLogger{},
	}

	// Execute functional options (if any), see options.go for implementation
	for _, option := range options {
		option(c)
	}

	return c, nil
}

// SetNotificationHandler defines a handler function that is called upon
// session notifications
func (c *Controller) SetNotificationHandler(fn func(n Notification)) {
	c.notificationHandler = fn
}

// SetNotificationChannel defines a channel that session notifications are
// put on
func (c *Controller) SetNotificationChannel(ch chan Notification) {
	c.notificationChan = ch
}

// SetResultHandler defines a handler function that is called upon each
// recorded measurement
func (c *Controller) SetResultHandler(fn func(res PointResult)) {
	c.resultHandler = fn
}

// SetResultChannel defines a channel that recorded measurements are put on
func (c *Controller) SetResultChannel(ch chan PointResult) {
	c.resultChan = ch
}

// Config returns the active configuration
func (c *Controller) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

// Mode returns the active acquisition mode
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// SetMode switches between Manual and Auto acquisition. Leaving Auto while
// a run is active stops the run; beyond that a mode switch has no effect
// on session data.
func (c *Controller) SetMode(mode Mode) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if mode != ModeAuto {
		c.stopLocked()
	}
	c.mode = mode
}

// Running returns if an Auto run is active
func (c *Controller) Running() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.autoRunning
}

// Last returns the most recent reading, if any
func (c *Controller) Last() (meter.Reading, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last == nil {
		return meter.Reading{}, false
	}
	return *c.last, true
}

// Elapsed returns the wall-clock time of the current / most recent Auto run
func (c *Controller) Elapsed() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.watch == nil {
		return 0
	}
	return c.watch.ElapsedTime()
}

// Snapshot returns a read-only projection of the current session
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Seek moves the point cursor (clamped to the valid range)
func (c *Controller) Seek(idx int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state.Seek(idx)
}

// Clear zeroes all recorded point data and resets the cursor, keeping the
// configuration in effect
func (c *Controller) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.state.Clear()
	c.last = nil
}

// Reset discards the session entirely and constructs a fresh state
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopLocked()
	c.state = NewState(c.cfg.PointCount)
	c.last = nil
}

// ApplyConfig validates and applies a new configuration. On a validation
// error nothing changes and the previous configuration remains in effect.
// A point-count change stops any active Auto run and rebuilds the session,
// discarding all readings; otherwise recorded outcomes are re-derived
// against the new limits in place.
func (c *Controller) ApplyConfig(cfg Config) error {

	if err := Validate(&cfg); err != nil {
		return err
	}
	Normalize(&cfg)

	limits, err := cfg.MeterLimits()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if cfg.PointCount != c.state.Len() {
		c.stopLocked()
		c.state = NewState(cfg.PointCount)
		c.last = nil
	} else {
		c.state.Recompute(limits)
	}

	c.cfg = cfg
	c.limits = limits
	c.fallback = sim.New(limits, sim.WithUnit(cfg.Unit()))

	return nil
}

// MeasureOne performs a single Manual-mode measurement at the current
// point
func (c *Controller) MeasureOne() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.measureOne(false)
}

// TestRead obtains one reading without recording it into the session
func (c *Controller) TestRead() (meter.Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.read()
}

// StartAuto begins a timed run from the current point. A no-op if a run is
// already active. The first measurement is performed immediately.
func (c *Controller) StartAuto() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.autoRunning {
		return nil
	}

	c.mode = ModeAuto
	c.autoRunning = true
	c.gen++
	if c.watch == nil {
		c.watch = stopwatch.Start(0)
	} else {
		c.watch.Reset()
		c.watch.Start(0)
	}

	err := c.measureOne(true)
	if c.autoRunning {
		c.scheduleLocked()
	}
	return err
}

// StopAuto halts an active Auto run and cancels any pending tick.
// Idempotent.
func (c *Controller) StopAuto() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopLocked()
}

////////////////////////////////////////////////////////////////////////////////

// measureOne obtains, classifies and records one reading at the cursor,
// then advances or terminates. Must be called with c.mu held.
func (c *Controller) measureOne(fromAuto bool) error {

	reading, err := c.read()
	if err != nil {
		if fromAuto {
			c.stopLocked()
			c.notify(Notification{Kind: NotifyHalted, Message: "measurement halted", Err: err})
		}
		c.logger.Errorf("measurement failed: %s", err)
		return err
	}

	c.last = &reading
	verdict := c.state.Record(reading, c.limits)
	c.emitResult(PointResult{Index: c.state.Cursor(), Reading: reading, Verdict: verdict})

	if !c.state.AtLast() {
		if !fromAuto && c.mode == ModeManual {
			c.notify(Notification{
				Kind:    NotifyNextPoint,
				Message: "Please measure the next cell",
				TTL:     time.Second,
			})
		}
		c.state.Advance()
		return nil
	}

	// Last point visited: the cursor holds, the run (if any) terminates
	if fromAuto {
		c.stopLocked()
		if c.cfg.Export.Auto && c.exporter != nil {
			if path, exportErr := c.exporter.ExportAuto(c.snapshotLocked()); exportErr != nil {
				c.logger.Errorf("auto export failed: %s", exportErr)
			} else {
				c.notify(Notification{Kind: NotifyExported, Message: path})
			}
		}
		c.notify(Notification{Kind: NotifyAutoDone, Message: "Auto measurement finished."})
		return nil
	}

	c.notify(Notification{Kind: NotifyManualDone, Message: "Measured all cells."})
	return nil
}

// read obtains one reading, applying the configured recovery policy: a
// missing connection always propagates, other instrument failures fall
// back to the simulated source when enabled.
func (c *Controller) read() (meter.Reading, error) {

	source := c.instrument
	if source == nil {
		source = c.fallback
	}

	reading, err := source.Read()
	if err == nil {
		return reading, nil
	}
	if errors.Is(err, meter.ErrNotConnected) {
		return meter.Reading{}, err
	}
	if c.cfg.Fallback() && source != c.fallback {
		c.logger.Warnf("instrument read failed, falling back to simulated reading: %s", err)
		return c.fallback.Read()
	}

	return meter.Reading{}, err
}

func (c *Controller) scheduleLocked() {
	gen := c.gen
	c.timer = time.AfterFunc(c.tickInterval(), func() {
		c.tick(gen)
	})
}

// tick is the timer re-entry point of the Auto loop. A tick scheduled
// before a stop observes the stale generation and performs no work.
func (c *Controller) tick(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.autoRunning || gen != c.gen {
		return
	}

	_ = c.measureOne(true)
	if c.autoRunning {
		c.scheduleLocked()
	}
}

func (c *Controller) tickInterval() time.Duration {
	if d := c.cfg.AutoInterval(); d > minTickInterval {
		return d
	}
	return minTickInterval
}

// stopLocked clears the running flag, invalidates pending ticks and stops
// the run stopwatch. Must be called with c.mu held.
func (c *Controller) stopLocked() {
	c.autoRunning = false
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.watch != nil {
		c.watch.Stop()
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Model:  c.cfg.Model,
		Unit:   c.cfg.Unit(),
		Limits: c.limits,
		Points: c.state.Points(),
		Cursor: c.state.Cursor(),
		Taken:  time.Now(),
	}
}

func (c *Controller) notify(n Notification) {

	// Call handler function, if any
	if c.notificationHandler != nil {
		c.notificationHandler(n)
	}

	// Put notification on channel, if any
	if c.notificationChan != nil {
		select {
		case c.notificationChan <- n:
		default:
		}
	}
}

func (c *Controller) emitResult(res PointResult) {

	// Call handler function, if any
	if c.resultHandler != nil {
		c.resultHandler(res)
	}

	// Put result on channel, if any
	if c.resultChan != nil {
		select {
		case c.resultChan <- res:
		default:
		}
	}
}
