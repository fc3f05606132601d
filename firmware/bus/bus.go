// Package bus is the RS485 line transport of a node. Lines are newline terminated.
// A half-duplex transceiver can have its driver-enable line on a GPIO that is
// raised for the duration of each transmission.
package bus

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"go.bug.st/serial"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

// DefaultBaudRate is the bus speed shared by every node
const DefaultBaudRate = 9600

const inboundBuffer = 64

// Config selects the serial device and optional direction pin
type Config struct {
	Port         string `yaml:"port"`
	BaudRate     int    `yaml:"baud_rate"`
	DirectionPin string `yaml:"direction_pin"`
}

// Validate fills the default baud rate and requires a port
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("serial port is required")
	}
	if c.BaudRate == 0 {
		c.BaudRate = DefaultBaudRate
	}
	if c.BaudRate < 0 {
		return errors.Errorf("invalid baud rate %d", c.BaudRate)
	}
	return nil
}

type port interface {
	io.ReadWriteCloser
	// Drain blocks until everything written has left the UART
	Drain() error
}

// Bus sends lines and buffers received lines until they are read
type Bus struct {
	port   port
	dir    gpio.PinOut
	lines  chan string
	logger *zap.SugaredLogger

	writeMtx sync.Mutex
	done     chan struct{}
}

// Open opens the serial port and the direction pin from cfg
func Open(cfg Config, logger *zap.SugaredLogger) (*Bus, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dir gpio.PinOut
	if cfg.DirectionPin != "" {
		pin := gpioreg.ByName(cfg.DirectionPin)
		if pin == nil {
			return nil, errors.Errorf("unknown direction pin %q", cfg.DirectionPin)
		}
		if err := pin.Out(gpio.Low); err != nil {
			return nil, errors.Wrap(err, "error setting direction pin")
		}
		dir = pin
	}

	p, err := serial.Open(cfg.Port, &serial.Mode{BaudRate: cfg.BaudRate})
	if err != nil {
		return nil, errors.Wrapf(err, "error opening serial port %q", cfg.Port)
	}

	return New(p, dir, logger), nil
}

// New starts reading lines from p. dir may be nil when the transceiver switches direction by itself.
func New(p port, dir gpio.PinOut, logger *zap.SugaredLogger) *Bus {
	b := &Bus{
		port:   p,
		dir:    dir,
		lines:  make(chan string, inboundBuffer),
		logger: logger,
		done:   make(chan struct{}),
	}
	go b.read()
	return b
}

func (b *Bus) read() {
	defer close(b.done)

	scanner := bufio.NewScanner(b.port)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "" {
			continue
		}

		select {
		case b.lines <- line:
		default:
			b.logger.Warnw("inbound buffer full, dropping line", "line", line)
		}
	}

	if err := scanner.Err(); err != nil {
		b.logger.Errorw("stopped reading bus", "error", err)
	}
}

// ReadLines returns the lines received since the last call without blocking
func (b *Bus) ReadLines() []string {
	var lines []string
	for {
		select {
		case line := <-b.lines:
			lines = append(lines, line)
		default:
			return lines
		}
	}
}

// Send transmits one line, holding the driver enabled until the UART is drained
func (b *Bus) Send(line string) error {
	b.writeMtx.Lock()
	defer b.writeMtx.Unlock()

	if b.dir != nil {
		if err := b.dir.Out(gpio.High); err != nil {
			return errors.Wrap(err, "error enabling transmitter")
		}
		defer func() {
			if err := b.dir.Out(gpio.Low); err != nil {
				b.logger.Errorw("failed to release transmitter", "error", err)
			}
		}()
	}

	if _, err := io.WriteString(b.port, line+"\n"); err != nil {
		return errors.Wrap(err, "error writing line")
	}
	return errors.Wrap(b.port.Drain(), "error draining port")
}

// Close closes the port and waits for the reader to stop
func (b *Bus) Close() error {
	err := b.port.Close()
	<-b.done

	if b.dir != nil {
		err = multierr.Append(err, b.dir.Out(gpio.Low))
	}
	return err
}
