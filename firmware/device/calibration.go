package device

import (
	"fmt"
	"time"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/firmware/store"
)

type calibrationPhase int

const (
	calHoming calibrationPhase = iota
	calSettleBeforeOpen
	calMeasureOpen
	calSettleBeforeClose
	calMeasureClose
)

func (p calibrationPhase) String() string {
	switch p {
	case calHoming:
		return "homing"
	case calSettleBeforeOpen, calSettleBeforeClose:
		return "settling"
	case calMeasureOpen:
		return "measuring open"
	case calMeasureClose:
		return "measuring close"
	default:
		return "unknown"
	}
}

// calibrationJob homes the motor on its close limit, then times a full open
// travel followed by a full close travel
type calibrationJob struct {
	m     covernode.MotorID
	phase calibrationPhase

	until    time.Time
	legStart time.Time
	openMS   int
	closeMS  int
}

func (j *calibrationJob) motor() covernode.MotorID { return j.m }

func (j *calibrationJob) String() string {
	return fmt.Sprintf("calibration (%s)", j.phase)
}

// Calibrate starts the full calibration routine of m. It holds the motion slot
// until both travel times are measured, or until it is cancelled by Stop.
func (d *Device) Calibrate(m covernode.MotorID) error {
	if d.Busy() {
		return covernode.ErrBusy
	}

	j := &calibrationJob{m: m}

	es, err := d.inputs.Endstops()
	if err == nil && es.CloseAt(m) {
		j.settle(d.clock.Now().Add(d.cfg.CalibrationSettle), calSettleBeforeOpen)
	} else {
		if err := d.start(m, covernode.Close); err != nil {
			return err
		}
		j.phase = calHoming
	}

	d.logger.Infow("calibration started", "motor", m, "phase", j.phase)
	d.job = j
	return nil
}

func (j *calibrationJob) settle(until time.Time, next calibrationPhase) {
	j.until = until
	j.phase = next
}

func (j *calibrationJob) advance(d *Device, now time.Time) bool {
	switch j.phase {
	case calHoming:
		if !j.reached(d, covernode.Close) {
			return false
		}
		d.halt()
		j.settle(now.Add(d.cfg.CalibrationSettle), calSettleBeforeOpen)

	case calSettleBeforeOpen:
		if now.Before(j.until) {
			return false
		}
		return !j.startLeg(d, now, covernode.Open, calMeasureOpen)

	case calMeasureOpen:
		if !j.reached(d, covernode.Open) {
			return false
		}
		d.halt()
		j.openMS = int(now.Sub(j.legStart).Milliseconds())
		j.settle(now.Add(d.cfg.CalibrationSettle), calSettleBeforeClose)

	case calSettleBeforeClose:
		if now.Before(j.until) {
			return false
		}
		return !j.startLeg(d, now, covernode.Close, calMeasureClose)

	case calMeasureClose:
		if !j.reached(d, covernode.Close) {
			return false
		}
		d.halt()
		j.closeMS = int(now.Sub(j.legStart).Milliseconds())
		j.finish(d)
		return true
	}

	return false
}

func (j *calibrationJob) reached(d *Device, dir covernode.Direction) bool {
	es, err := d.inputs.Endstops()
	if err != nil {
		d.logger.Warnw("failed to read endstops during calibration", "motor", j.m, "error", err)
		return false
	}
	return es.Reached(j.m, dir)
}

// startLeg drives the motor for a measured leg and reports whether it started
func (j *calibrationJob) startLeg(d *Device, now time.Time, dir covernode.Direction, next calibrationPhase) bool {
	if err := d.start(j.m, dir); err != nil {
		d.logger.Errorw("calibration aborted, failed to start motor", "motor", j.m, "direction", dir, "error", err)
		return false
	}
	j.legStart = now
	j.phase = next
	return true
}

func (j *calibrationJob) finish(d *Device) {
	if j.openMS <= 0 || j.closeMS <= 0 {
		d.logger.Errorw("calibration aborted, invalid measurement", "motor", j.m, "open_ms", j.openMS, "close_ms", j.closeMS)
		return
	}

	d.calibration[j.m.Key()] = &store.Calibration{OpenMS: j.openMS, CloseMS: j.closeMS}
	d.saveCalibration()

	d.positions[j.m.Key()] = 0
	d.savePositions()

	d.logger.Infow("calibration complete", "motor", j.m, "open_ms", j.openMS, "close_ms", j.closeMS)
	d.Reply(covernode.FormatCalibrated(d.cfg.Address, j.m, j.openMS, j.closeMS))
}
