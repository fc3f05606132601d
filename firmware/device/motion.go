package device

import (
	"time"

	"github.com/pkg/errors"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/firmware/store"
)

// Start runs m in direction dir. Only one motor may move at a time, so it returns
// covernode.ErrBusy while a motion or a routine holds the slot.
func (d *Device) Start(m covernode.MotorID, dir covernode.Direction) error {
	if d.Busy() {
		return covernode.ErrBusy
	}
	return d.start(m, dir)
}

// start records the motion and the endstop it starts from, then drives the motor.
// Callers own the motion slot.
func (d *Device) start(m covernode.MotorID, dir covernode.Direction) error {
	now := d.clock.Now()

	from := covernode.EndstopNone
	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("failed to read endstops at start, auto-learn disabled for this motion", "motor", m, "error", err)
	} else {
		from = es.At(m)
	}

	if err := d.actuator.Run(m, dir); err != nil {
		return errors.Wrapf(err, "failed to run motor %d", m)
	}

	d.active = &motion{
		motor:      m,
		direction:  dir,
		start:      now,
		learnFrom:  from,
		learnStart: now,
	}
	d.logger.Debugw("start", "motor", m, "direction", dir, "from", from)
	return nil
}

// Stop cancels any running routine and stops the active motion with normal bookkeeping
func (d *Device) Stop() {
	if d.job != nil {
		d.logger.Infow("routine cancelled", "routine", d.job, "motor", d.job.motor())
		d.job = nil
	}
	d.stop()
}

// stop advances the position of the active motor by the time it ran, stops it,
// persists the position and feeds the auto-learn engine. Without a calibration leg
// the position is left unchanged.
func (d *Device) stop() {
	a := d.active
	if a == nil {
		return
	}

	now := d.clock.Now()
	elapsed := now.Sub(a.start)

	key := a.motor.Key()
	if base := d.calibration.Get(a.motor).Leg(a.direction); base > 0 {
		delta := ms(elapsed) / float64(base) * 100
		if a.direction == covernode.Open {
			d.positions[key] = store.Clamp(d.positions[key] + delta)
		} else {
			d.positions[key] = store.Clamp(d.positions[key] - delta)
		}
	}

	if err := d.actuator.Stop(a.motor); err != nil {
		d.logger.Errorw("failed to stop motor", "motor", a.motor, "error", err)
	}
	d.logger.Debugw("stop", "motor", a.motor, "elapsed", elapsed, "position", d.positions[key])

	d.savePositions()
	d.autoLearn(a, now)

	d.active = nil
}

// halt stops the active motor without touching position or calibration
func (d *Device) halt() {
	a := d.active
	if a == nil {
		return
	}
	if err := d.actuator.Stop(a.motor); err != nil {
		d.logger.Errorw("failed to stop motor", "motor", a.motor, "error", err)
	}
	d.active = nil
}

// Invert stops the active motor and restarts it in the opposite direction once
// InvertDelay has passed. It does nothing while idle.
func (d *Device) Invert() {
	a := d.active
	if a == nil {
		return
	}

	dir := a.direction.Opposite()
	d.logger.Debugw("invert", "motor", a.motor, "from", a.direction, "to", dir)

	d.job = nil
	d.stop()
	d.job = &settleJob{
		m:     a.motor,
		dir:   dir,
		until: d.clock.Now().Add(d.cfg.InvertDelay),
	}
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
