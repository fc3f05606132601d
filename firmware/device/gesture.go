package device

import (
	"time"

	"github.com/calvinmclean/covernode"
)

// button tracks the press edges and recent short presses of one push-button
type button struct {
	pressed    bool
	pressStart time.Time
	history    []time.Time
}

func (d *Device) pollButtons(now time.Time) {
	state, err := d.inputs.Buttons()
	if err != nil {
		d.logger.Warnw("failed to read buttons", "error", err)
		return
	}

	for _, m := range covernode.Motors {
		b := &d.buttons[m-1]
		pressed := state.Pressed(m)

		switch {
		case pressed && !b.pressed:
			b.pressed = true
			b.pressStart = now
		case !pressed && b.pressed:
			b.pressed = false
			d.release(m, now.Sub(b.pressStart), now)
		}
	}
}

// release classifies a completed press. A short press stops the motor, and enough
// short presses in a row start a calibration. A long press starts the motor
// toward the far end, or inverts it if it is already running. Presses between
// the two ranges are ignored.
func (d *Device) release(m covernode.MotorID, held time.Duration, now time.Time) {
	g := d.cfg.Gesture

	switch {
	case held >= g.ShortPressMin && held <= g.ShortPressMax:
		d.shortPress(m, now)
	case held >= g.LongPressMin:
		d.longPress(m)
	default:
		d.logger.Debugw("ignored press", "motor", m, "held", held)
	}
}

func (d *Device) shortPress(m covernode.MotorID, now time.Time) {
	b := &d.buttons[m-1]

	recent := b.history[:0]
	for _, t := range b.history {
		if now.Sub(t) < d.cfg.Gesture.MultiPressWindow {
			recent = append(recent, t)
		}
	}
	b.history = append(recent, now)

	if len(b.history) >= d.cfg.Gesture.MultiPressCount {
		b.history = nil
		d.logger.Infow("multi-press calibration", "motor", m)
		if err := d.Calibrate(m); err != nil {
			d.logger.Warnw("failed to start calibration", "motor", m, "error", err)
		}
		return
	}

	if d.holds(m) {
		d.Stop()
	}
}

func (d *Device) longPress(m covernode.MotorID) {
	if moving, ok := d.Moving(); ok && moving == m {
		d.Invert()
		return
	}

	dir := covernode.Open
	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("failed to read endstops", "motor", m, "error", err)
	} else if es.OpenAt(m) {
		dir = covernode.Close
	}

	if err := d.Start(m, dir); err != nil {
		d.logger.Warnw("failed to start motor from button", "motor", m, "direction", dir, "error", err)
	}
}

// holds reports whether m is the motor using the motion slot
func (d *Device) holds(m covernode.MotorID) bool {
	if d.active != nil && d.active.motor == m {
		return true
	}
	return d.job != nil && d.job.motor() == m
}
