package device

import (
	"fmt"
	"math"
	"time"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/firmware/store"
)

// percentJob runs a motor for a computed duration, or until its limit switch asserts
type percentJob struct {
	m        covernode.MotorID
	dir      covernode.Direction
	target   float64
	deadline time.Time
}

func (j *percentJob) motor() covernode.MotorID { return j.m }

func (j *percentJob) String() string {
	return fmt.Sprintf("move to %.0f%%", j.target)
}

func (j *percentJob) advance(d *Device, now time.Time) bool {
	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("failed to read endstops", "motor", j.m, "error", err)
	} else if es.Reached(j.m, j.dir) {
		d.stop()
		d.pin(j.m, j.dir)
		return true
	}

	if now.Before(j.deadline) {
		return false
	}
	d.stop()
	return true
}

// MoveToPercent drives m from its tracked position toward target using the
// calibrated travel time. Targets at either end run past the computed duration
// by EndOvertravel of a full travel so the limit switch is reached.
func (d *Device) MoveToPercent(m covernode.MotorID, target float64) error {
	cal := d.calibration.Get(m)
	if !cal.Complete() {
		return covernode.ErrNoCalibration
	}
	if d.Busy() {
		return covernode.ErrBusy
	}

	target = store.Clamp(target)
	delta := target - d.positions.Get(m)
	if math.Abs(delta) < 1 {
		d.logger.Debugw("already at target", "motor", m, "target", target)
		return nil
	}

	dir := covernode.Open
	if delta < 0 {
		dir = covernode.Close
	}

	leg := float64(cal.Leg(dir))
	runMS := math.Abs(delta) / 100 * leg
	if target == 0 || target == 100 {
		runMS += d.cfg.EndOvertravel * leg
	}
	duration := time.Duration(runMS * float64(time.Millisecond))

	if err := d.start(m, dir); err != nil {
		return err
	}
	d.job = &percentJob{
		m:        m,
		dir:      dir,
		target:   target,
		deadline: d.active.start.Add(duration),
	}
	d.logger.Debugw("move to percent", "motor", m, "target", target, "direction", dir, "duration", duration)
	return nil
}
