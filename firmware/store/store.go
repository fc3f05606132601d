// Package store persists the calibration and position documents of a node.
// The two documents are independent: each one is loaded best-effort at startup
// and rewritten wholesale on every change.
package store

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/calvinmclean/covernode"
)

// Calibration is the full-travel timing of one motor
type Calibration struct {
	OpenMS  int `json:"open_ms,omitempty"`
	CloseMS int `json:"close_ms,omitempty"`
}

// Leg returns the full-travel duration in milliseconds for the direction, or 0 when unknown
func (c *Calibration) Leg(d covernode.Direction) int {
	if c == nil {
		return 0
	}
	if d == covernode.Open {
		return c.OpenMS
	}
	return c.CloseMS
}

// Complete reports whether both legs are known
func (c *Calibration) Complete() bool {
	return c != nil && c.OpenMS > 0 && c.CloseMS > 0
}

// CalibrationDoc maps motor keys ("motor1") to their calibration
type CalibrationDoc map[string]*Calibration

// Get returns the calibration of m, or nil if the motor was never calibrated
func (d CalibrationDoc) Get(m covernode.MotorID) *Calibration {
	c := d[m.Key()]
	if c == nil || (c.OpenMS <= 0 && c.CloseMS <= 0) {
		return nil
	}
	return c
}

// PositionDoc maps motor keys to the position in percent
type PositionDoc map[string]float64

// Get returns the stored position of m, clamped to [0,100]
func (d PositionDoc) Get(m covernode.MotorID) float64 {
	return Clamp(d[m.Key()])
}

// Clamp limits a position to [0,100]
func Clamp(pct float64) float64 {
	return min(100, max(0, pct))
}

// File keeps both documents as JSON files
type File struct {
	calibrationPath string
	positionPath    string
	logger          *zap.SugaredLogger
}

// NewFile creates a File store. Paths are used as given, relative paths resolve
// against the working directory of the process.
func NewFile(calibrationPath, positionPath string, logger *zap.SugaredLogger) *File {
	return &File{
		calibrationPath: calibrationPath,
		positionPath:    positionPath,
		logger:          logger,
	}
}

// LoadCalibration reads the calibration document. A missing or corrupt file yields
// an empty document with both motors uncalibrated.
func (f *File) LoadCalibration() CalibrationDoc {
	doc := CalibrationDoc{}
	err := readJSON(f.calibrationPath, &doc)
	if err != nil {
		f.logger.Infow("no usable calibration, motors need calibrating", "path", f.calibrationPath, "error", err)
		return CalibrationDoc{}
	}
	f.logger.Infow("calibration loaded", "path", f.calibrationPath)
	return doc
}

// SaveCalibration rewrites the calibration document
func (f *File) SaveCalibration(doc CalibrationDoc) error {
	return writeJSON(f.calibrationPath, doc)
}

// LoadPositions reads the position document. A missing or corrupt file yields 0%
// for both motors.
func (f *File) LoadPositions() PositionDoc {
	doc := PositionDoc{}
	err := readJSON(f.positionPath, &doc)
	if err != nil {
		f.logger.Infow("no usable positions, using 0%", "path", f.positionPath, "error", err)
		return PositionDoc{}
	}
	for k, v := range doc {
		doc[k] = Clamp(v)
	}
	f.logger.Infow("positions loaded", "path", f.positionPath)
	return doc
}

// SavePositions rewrites the position document
func (f *File) SavePositions(doc PositionDoc) error {
	return writeJSON(f.positionPath, doc)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read file")
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, "failed to parse JSON")
	}
	return nil
}

// writeJSON replaces the file through a rename so a crash mid-write leaves the old document intact
func writeJSON(path string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to marshal document")
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrap(err, "failed to create temp file")
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "failed to write %s", tmp.Name())
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", tmp.Name())
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "failed to replace %s", path)
	}
	return nil
}
