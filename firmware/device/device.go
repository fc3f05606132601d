// Package device is the control core of a cover node. A Device owns the single
// motion slot shared by both motors, the positions and calibrations, the button
// gesture state and the routines that run across several ticks. All of it is
// mutated from Tick, which the scheduler calls from one goroutine.
package device

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/firmware/commands"
	"github.com/calvinmclean/covernode/firmware/store"
)

// Inputs reports the limit switches, driver faults and push-buttons
type Inputs interface {
	Endstops() (covernode.EndstopState, error)
	Buttons() (covernode.Buttons, error)
}

// Actuator runs and stops the motors
type Actuator interface {
	Run(covernode.MotorID, covernode.Direction) error
	Stop(covernode.MotorID) error
}

// Bus is the line transport to the other nodes
type Bus interface {
	Send(line string) error
	// ReadLines returns every line received since the last call without blocking
	ReadLines() []string
}

// Store persists calibration and position documents
type Store interface {
	LoadCalibration() store.CalibrationDoc
	SaveCalibration(store.CalibrationDoc) error
	LoadPositions() store.PositionDoc
	SavePositions(store.PositionDoc) error
}

// motion is the single active motion of the node
type motion struct {
	motor     covernode.MotorID
	direction covernode.Direction
	start     time.Time

	learnFrom  covernode.Endstop
	learnStart time.Time
}

// Device is the controller of one node
type Device struct {
	cfg      Config
	inputs   Inputs
	actuator Actuator
	bus      Bus
	store    Store
	clock    clock.Clock
	logger   *zap.SugaredLogger
	commands *commands.Dispatcher

	calibration store.CalibrationDoc
	positions   store.PositionDoc

	active  *motion
	job     job
	buttons [2]button

	lastHeartbeat       time.Time
	lastMotionHeartbeat time.Time
}

var _ commands.Controller = &Device{}

// Option customizes a Device
type Option func(*Device)

// WithClock replaces the wall clock, mostly for tests
func WithClock(c clock.Clock) Option {
	return func(d *Device) { d.clock = c }
}

// WithLogger sets the logger used by the Device and its dispatcher
func WithLogger(l *zap.SugaredLogger) Option {
	return func(d *Device) { d.logger = l }
}

// New creates a Device and loads the persisted calibration and positions
func New(cfg Config, inputs Inputs, actuator Actuator, bus Bus, st Store, opts ...Option) (*Device, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	d := &Device{
		cfg:      cfg,
		inputs:   inputs,
		actuator: actuator,
		bus:      bus,
		store:    st,
		clock:    clock.New(),
		logger:   zap.NewNop().Sugar(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.commands = commands.NewDispatcher(d.logger)

	d.calibration = st.LoadCalibration()
	if d.calibration == nil {
		d.calibration = store.CalibrationDoc{}
	}
	d.positions = st.LoadPositions()
	if d.positions == nil {
		d.positions = store.PositionDoc{}
	}

	d.logger.Infow("node ready", "address", cfg.Address, "broadcast", cfg.BroadcastAddr)
	return d, nil
}

// Address is the bus address of the node
func (d *Device) Address() int {
	return d.cfg.Address
}

// Position returns the tracked position of m in percent
func (d *Device) Position(m covernode.MotorID) float64 {
	return d.positions.Get(m)
}

// Calibration returns a copy of the calibration of m, or nil when it is unknown
func (d *Device) Calibration(m covernode.MotorID) *store.Calibration {
	c := d.calibration.Get(m)
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Moving returns the motor currently driven, if any
func (d *Device) Moving() (covernode.MotorID, bool) {
	if d.active == nil {
		return 0, false
	}
	return d.active.motor, true
}

// Busy reports whether a motion or a multi-tick routine holds the motion slot
func (d *Device) Busy() bool {
	return d.active != nil || d.job != nil
}

// Reply sends a line on the bus. Failures are logged, a reply is never retried.
func (d *Device) Reply(line string) {
	if err := d.bus.Send(line); err != nil {
		d.logger.Warnw("failed to send on bus", "line", line, "error", err)
	}
}

// Run announces the node and calls Tick every poll interval until ctx is done.
// Any motion still running at that point is stopped with normal bookkeeping.
func (d *Device) Run(ctx context.Context) error {
	d.Reply(covernode.FormatStart(d.cfg.Address, d.cfg.Version))

	ticker := d.clock.Ticker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		d.Tick()

		select {
		case <-ctx.Done():
			d.Stop()
			return nil
		case <-ticker.C:
		}
	}
}

// Tick runs one pass of the scheduler: heartbeat, buttons, the running routine,
// limit and timeout supervision, then bus intake.
func (d *Device) Tick() {
	now := d.clock.Now()

	d.heartbeat(now)
	d.pollButtons(now)
	d.advanceJob(now)
	d.supervise(now)
	d.drainBus()
}

// heartbeat uses the idle timer while nothing moves and the faster motion timer otherwise
func (d *Device) heartbeat(now time.Time) {
	if d.active == nil {
		if now.Sub(d.lastHeartbeat) > d.cfg.HeartbeatInterval {
			d.lastHeartbeat = now
			d.sendHeartbeat()
		}
		return
	}

	if now.Sub(d.lastMotionHeartbeat) > d.cfg.MotionHeartbeatInterval {
		d.lastMotionHeartbeat = now
		d.sendHeartbeat()
	}
}

func (d *Device) sendHeartbeat() {
	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("skipping heartbeat, failed to read endstops", "error", err)
		return
	}
	for _, m := range covernode.Motors {
		if es.FaultAt(m) {
			d.logger.Warnw("driver fault", "motor", m)
		}
	}

	positions := [2]float64{d.positions.Get(covernode.Motor1), d.positions.Get(covernode.Motor2)}
	d.Reply(covernode.FormatHeartbeat(d.cfg.Address, positions, es))
}

// supervise stops the active motion when its limit switch asserts or when it runs past the timeout.
// While a routine runs it watches the limit switches itself, only the timeout applies.
func (d *Device) supervise(now time.Time) {
	a := d.active
	if a == nil {
		return
	}

	if d.job == nil {
		es, err := d.inputs.Endstops()
		if err != nil {
			d.logger.Warnw("failed to read endstops", "error", err)
		} else if es.Reached(a.motor, a.direction) {
			d.stop()
			d.pin(a.motor, a.direction)
			return
		}
	}

	if now.Sub(a.start) > d.cfg.MotorTimeout {
		d.logger.Errorw("motion timed out", "motor", a.motor, "direction", a.direction, "timeout", d.cfg.MotorTimeout)
		d.Reply(covernode.FormatTimeout(d.cfg.Address, a.motor))
		d.Stop()
	}
}

// pin sets m to the end of travel in direction dir and persists it
func (d *Device) pin(m covernode.MotorID, dir covernode.Direction) {
	pct := 0.0
	if dir == covernode.Open {
		pct = 100
	}
	d.positions[m.Key()] = pct
	d.savePositions()
}

// drainBus dispatches every line addressed to this node or to the broadcast address
func (d *Device) drainBus() {
	for _, line := range d.bus.ReadLines() {
		addr, body, ok := covernode.ParseAddressed(line)
		if !ok {
			continue
		}
		if addr != d.cfg.Address && addr != d.cfg.BroadcastAddr {
			continue
		}
		d.commands.Dispatch(d, body)
	}
}

func (d *Device) savePositions() {
	if err := d.store.SavePositions(d.positions); err != nil {
		d.logger.Errorw("failed to save positions", "error", err)
	}
}

func (d *Device) saveCalibration() {
	if err := d.store.SaveCalibration(d.calibration); err != nil {
		d.logger.Errorw("failed to save calibration", "error", err)
	}
}
