package device

import (
	"time"

	"github.com/pkg/errors"

	"github.com/calvinmclean/covernode"
)

// Config has the bus identity and the timing values that drive the control loop
type Config struct {
	Address       int    `yaml:"address"`
	BroadcastAddr int    `yaml:"broadcast_address"`
	Version       string `yaml:"-"`

	PollInterval            time.Duration `yaml:"poll_interval"`
	HeartbeatInterval       time.Duration `yaml:"heartbeat_interval"`
	MotionHeartbeatInterval time.Duration `yaml:"motion_heartbeat_interval"`

	// MotorTimeout is the hard cutoff for a single motion, regardless of calibration
	MotorTimeout time.Duration `yaml:"motor_timeout"`
	// InvertDelay is the pause between stopping and reversing a motor
	InvertDelay time.Duration `yaml:"invert_delay"`
	// CalibrationSettle is the pause between the legs of a full calibration
	CalibrationSettle time.Duration `yaml:"calibration_settle"`
	// EndOvertravel extends moves to 0% or 100% by this fraction of the leg so the
	// limit switch re-anchors the position
	EndOvertravel float64 `yaml:"end_overtravel"`

	Gesture GestureConfig `yaml:"gesture"`
}

// GestureConfig has the press durations used to classify button gestures
type GestureConfig struct {
	ShortPressMin    time.Duration `yaml:"short_press_min"`
	ShortPressMax    time.Duration `yaml:"short_press_max"`
	LongPressMin     time.Duration `yaml:"long_press_min"`
	MultiPressWindow time.Duration `yaml:"multi_press_window"`
	MultiPressCount  int           `yaml:"multi_press_count"`
}

// DefaultConfig returns the timings the node ships with
func DefaultConfig() Config {
	return Config{
		BroadcastAddr:           covernode.BroadcastAddr,
		PollInterval:            10 * time.Millisecond,
		HeartbeatInterval:       5 * time.Second,
		MotionHeartbeatInterval: 300 * time.Millisecond,
		MotorTimeout:            60 * time.Second,
		InvertDelay:             500 * time.Millisecond,
		CalibrationSettle:       200 * time.Millisecond,
		EndOvertravel:           0.1,
		Gesture: GestureConfig{
			ShortPressMin:    50 * time.Millisecond,
			ShortPressMax:    300 * time.Millisecond,
			LongPressMin:     500 * time.Millisecond,
			MultiPressWindow: 3 * time.Second,
			MultiPressCount:  5,
		},
	}
}

// Validate fills zero values from DefaultConfig and rejects inconsistent timings
func (cfg *Config) Validate() error {
	def := DefaultConfig()

	if cfg.BroadcastAddr == 0 {
		cfg.BroadcastAddr = def.BroadcastAddr
	}
	setDefault(&cfg.PollInterval, def.PollInterval)
	setDefault(&cfg.HeartbeatInterval, def.HeartbeatInterval)
	setDefault(&cfg.MotionHeartbeatInterval, def.MotionHeartbeatInterval)
	setDefault(&cfg.MotorTimeout, def.MotorTimeout)
	setDefault(&cfg.InvertDelay, def.InvertDelay)
	setDefault(&cfg.CalibrationSettle, def.CalibrationSettle)
	setDefault(&cfg.Gesture.ShortPressMin, def.Gesture.ShortPressMin)
	setDefault(&cfg.Gesture.ShortPressMax, def.Gesture.ShortPressMax)
	setDefault(&cfg.Gesture.LongPressMin, def.Gesture.LongPressMin)
	setDefault(&cfg.Gesture.MultiPressWindow, def.Gesture.MultiPressWindow)
	if cfg.Gesture.MultiPressCount == 0 {
		cfg.Gesture.MultiPressCount = def.Gesture.MultiPressCount
	}

	if cfg.Address < 0 {
		return errors.Errorf("invalid address %d", cfg.Address)
	}
	if cfg.Address == cfg.BroadcastAddr {
		return errors.Errorf("address %d is the broadcast address", cfg.Address)
	}
	if cfg.EndOvertravel < 0 {
		return errors.New("end_overtravel must not be negative")
	}
	if cfg.Gesture.ShortPressMin > cfg.Gesture.ShortPressMax {
		return errors.New("short_press_min is above short_press_max")
	}
	if cfg.Gesture.ShortPressMax >= cfg.Gesture.LongPressMin {
		return errors.New("short_press_max must be below long_press_min")
	}
	if cfg.Gesture.MultiPressCount < 2 {
		return errors.New("multi_press_count must be at least 2")
	}
	return nil
}

func setDefault(d *time.Duration, def time.Duration) {
	if *d <= 0 {
		*d = def
	}
}
