// Package config loads the YAML configuration of a node
package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/calvinmclean/covernode/firmware/bus"
	"github.com/calvinmclean/covernode/firmware/device"
	"github.com/calvinmclean/covernode/firmware/expander"
	"github.com/calvinmclean/covernode/firmware/motor"
)

// Config is everything a node needs to start. The control loop timings are inlined
// at the top level of the document.
type Config struct {
	device.Config `yaml:",inline"`

	Serial   bus.Config    `yaml:"serial"`
	I2C      I2CConfig     `yaml:"i2c"`
	Expander expander.Map  `yaml:"expander"`
	Motors   [2]motor.Pins `yaml:"motors"`

	CalibrationFile string `yaml:"calibration_file"`
	PositionFile    string `yaml:"position_file"`
	// VersionFile is a JSON document like {"version": "1.4.2"} reported in the boot announcement
	VersionFile string `yaml:"version_file"`

	Debug bool `yaml:"debug"`
}

// I2CConfig selects the bus of the MCP23017. An empty Bus opens the first one available.
type I2CConfig struct {
	Bus     string `yaml:"bus"`
	Address uint8  `yaml:"address"`
}

// Default returns the configuration of the reference board
func Default() Config {
	return Config{
		Config: device.DefaultConfig(),
		Serial: bus.Config{
			Port:     "/dev/ttyAMA0",
			BaudRate: bus.DefaultBaudRate,
		},
		I2C:      I2CConfig{Address: expander.DefaultAddress},
		Expander: expander.DefaultMap(),
		Motors: [2]motor.Pins{
			{Enable: "GPIO12", Phase: "GPIO5", Sleep: "GPIO6"},
			{Enable: "GPIO13", Phase: "GPIO16", Sleep: "GPIO26"},
		},
		CalibrationFile: "calib.json",
		PositionFile:    "pos.json",
		VersionFile:     "version.json",
	}
}

// Load reads the file at path over the defaults and validates the result
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrap(err, "error reading config")
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "error parsing config")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

// Validate checks every section. An address of 0 means the DIP switches are read at startup.
func (cfg *Config) Validate() error {
	if err := cfg.Config.Validate(); err != nil {
		return err
	}
	if err := cfg.Serial.Validate(); err != nil {
		return errors.Wrap(err, "serial")
	}
	if err := cfg.Expander.Validate(); err != nil {
		return errors.Wrap(err, "expander")
	}
	for i, p := range cfg.Motors {
		if err := p.Validate(); err != nil {
			return errors.Wrapf(err, "motor %d", i+1)
		}
	}
	if cfg.I2C.Address == 0 {
		cfg.I2C.Address = expander.DefaultAddress
	}
	if cfg.CalibrationFile == "" || cfg.PositionFile == "" {
		return errors.New("calibration_file and position_file are required")
	}
	return nil
}
