package covernode

import "github.com/pkg/errors"

var (
	// ErrBusy is returned when a motor or a running routine already holds the single motion slot
	ErrBusy = errors.New("another motion is in progress")
	// ErrNoCalibration is returned when a percentage move targets a motor without full-travel timings
	ErrNoCalibration = errors.New("motor is not calibrated")
)
