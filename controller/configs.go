package controller

import (
	"os"
	"strconv"

	"github.com/pkg/errors"
)

const (
	defaultBaudRate = "9600"

	envSerialPort = "COVERNODE_PORT"
	envBaudRate   = "COVERNODE_BAUD"
)

// Config selects the serial port of the bus adapter. Values are kept as strings so
// they bind directly to form fields.
type Config struct {
	SerialPort string
	BaudRate   string
	// Address is the node the console talks to
	Address string
}

// ConfigFromEnv reads COVERNODE_PORT and COVERNODE_BAUD
func ConfigFromEnv() Config {
	cfg := Config{
		SerialPort: os.Getenv(envSerialPort),
		BaudRate:   os.Getenv(envBaudRate),
	}
	if cfg.BaudRate == "" {
		cfg.BaudRate = defaultBaudRate
	}
	return cfg
}

func (c Config) baudRate() (int, error) {
	if c.BaudRate == "" {
		return strconv.Atoi(defaultBaudRate)
	}
	baud, err := strconv.Atoi(c.BaudRate)
	if err != nil || baud <= 0 {
		return 0, errors.Errorf("invalid baud rate %q", c.BaudRate)
	}
	return baud, nil
}

// NodeAddress parses Address
func (c Config) NodeAddress() (int, error) {
	addr, err := strconv.Atoi(c.Address)
	if err != nil || addr < 0 {
		return 0, errors.Errorf("invalid node address %q", c.Address)
	}
	return addr, nil
}
