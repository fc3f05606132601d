package device

import (
	"math"
	"time"

	"github.com/calvinmclean/covernode"
)

const (
	learnLowerBound = 0.4
	learnUpperBound = 1.6
	learnWeight     = 0.3
)

// autoLearn refines the calibration from a motion that went from one limit switch
// to the other. Motions that start or end away from a limit switch teach nothing.
// It never fails the stop that called it.
func (d *Device) autoLearn(a *motion, now time.Time) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorw("auto-learn failed", "motor", a.motor, "panic", r)
		}
	}()

	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("auto-learn skipped, failed to read endstops", "motor", a.motor, "error", err)
		return
	}

	observed := int(now.Sub(a.learnStart).Milliseconds())
	switch {
	case a.learnFrom == covernode.EndstopFC && es.OpenAt(a.motor):
		d.learn(a.motor, covernode.Open, observed)
	case a.learnFrom == covernode.EndstopFA && es.CloseAt(a.motor):
		d.learn(a.motor, covernode.Close, observed)
	}
}

func (d *Device) learn(m covernode.MotorID, dir covernode.Direction, observed int) {
	cal := d.calibration.Get(m)
	old := cal.Leg(dir)
	if old <= 0 {
		return
	}

	if !plausible(old, observed) {
		d.logger.Debugw("auto-learn rejected outlier", "motor", m, "direction", dir, "calibrated", old, "observed", observed)
		return
	}

	updated := smooth(old, observed)
	if dir == covernode.Open {
		cal.OpenMS = updated
	} else {
		cal.CloseMS = updated
	}
	d.saveCalibration()
	d.logger.Infow("auto-learn", "motor", m, "direction", dir, "old", old, "new", updated)
}

// plausible rejects observations far from the current calibration, such as a
// cover that was blocked or pushed by hand
func plausible(old, observed int) bool {
	o := float64(old)
	return float64(observed) > learnLowerBound*o && float64(observed) < learnUpperBound*o
}

// smooth blends an observation into the calibration with an exponential moving average
func smooth(old, observed int) int {
	return int(math.Round((1-learnWeight)*float64(old) + learnWeight*float64(observed)))
}
