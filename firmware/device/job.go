package device

import (
	"time"

	"github.com/calvinmclean/covernode"
)

// job is a routine that spans several ticks while holding the motion slot.
// advance is called once per tick and reports whether the routine is finished.
type job interface {
	motor() covernode.MotorID
	advance(d *Device, now time.Time) bool
	String() string
}

func (d *Device) advanceJob(now time.Time) {
	if d.job == nil {
		return
	}
	j := d.job
	if j.advance(d, now) && d.job == j {
		d.job = nil
	}
}

// settleJob restarts a motor after the pause that follows an inversion
type settleJob struct {
	m     covernode.MotorID
	dir   covernode.Direction
	until time.Time
}

func (j *settleJob) motor() covernode.MotorID { return j.m }

func (j *settleJob) String() string { return "invert" }

func (j *settleJob) advance(d *Device, now time.Time) bool {
	if now.Before(j.until) {
		return false
	}
	if err := d.start(j.m, j.dir); err != nil {
		d.logger.Errorw("failed to restart inverted motor", "motor", j.m, "error", err)
	}
	return true
}
