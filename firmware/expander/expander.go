// Package expander reads the limit switches, driver fault lines, push-buttons and
// address DIP switches of a node from an MCP23017 I/O expander
package expander

import (
	"github.com/pkg/errors"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/mcp23017"

	"github.com/calvinmclean/covernode"
)

// DefaultAddress is the I2C address of an MCP23017 with A0-A2 tied low
const DefaultAddress = 0x20

// addressPin is the first port B pin. Port B carries the eight DIP switches of the node address.
const addressPin = 8

// Map assigns port A pins (0-7) to signals, indexed by motor
type Map struct {
	Open   [2]int `yaml:"open"`
	Close  [2]int `yaml:"close"`
	Fault  [2]int `yaml:"fault"`
	Button [2]int `yaml:"button"`
	// ActiveLow inverts every input, for switches that pull the line to ground
	ActiveLow bool `yaml:"active_low"`
}

// DefaultMap is the wiring of the reference board
func DefaultMap() Map {
	return Map{
		Open:      [2]int{0, 2},
		Close:     [2]int{1, 3},
		Fault:     [2]int{4, 5},
		Button:    [2]int{6, 7},
		ActiveLow: true,
	}
}

// Validate checks that every signal is on port A
func (m Map) Validate() error {
	for _, pins := range [][2]int{m.Open, m.Close, m.Fault, m.Button} {
		for _, p := range pins {
			if p < 0 || p >= addressPin {
				return errors.Errorf("pin %d is not on port A", p)
			}
		}
	}
	return nil
}

type pinReader interface {
	GetPins() (mcp23017.Pins, error)
}

// Expander implements the node inputs on top of an MCP23017
type Expander struct {
	dev pinReader
	m   Map
}

// New connects to the MCP23017 at addr on bus
func New(bus drivers.I2C, addr uint8, m Map) (*Expander, error) {
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pin map")
	}

	dev, err := mcp23017.NewI2C(bus, addr)
	if err != nil {
		return nil, errors.Wrap(err, "error connecting to MCP23017")
	}
	return &Expander{dev, m}, nil
}

func (e *Expander) read() (func(int) bool, error) {
	pins, err := e.dev.GetPins()
	if err != nil {
		return nil, errors.Wrap(err, "error reading MCP23017 pins")
	}
	return func(p int) bool {
		return pins.Get(p) != e.m.ActiveLow
	}, nil
}

// Endstops reads the limit switches and fault lines of both motors in one transfer
func (e *Expander) Endstops() (covernode.EndstopState, error) {
	get, err := e.read()
	if err != nil {
		return covernode.EndstopState{}, err
	}

	var es covernode.EndstopState
	for i := 0; i < 2; i++ {
		es.Open[i] = get(e.m.Open[i])
		es.Close[i] = get(e.m.Close[i])
		es.Fault[i] = get(e.m.Fault[i])
	}
	return es, nil
}

// Buttons reads both push-buttons
func (e *Expander) Buttons() (covernode.Buttons, error) {
	get, err := e.read()
	if err != nil {
		return covernode.Buttons{}, err
	}
	return covernode.Buttons{get(e.m.Button[0]), get(e.m.Button[1])}, nil
}

// Address reads the node address from the DIP switches on port B, GPB0 being the least significant bit
func (e *Expander) Address() (int, error) {
	get, err := e.read()
	if err != nil {
		return 0, err
	}

	addr := 0
	for bit := 0; bit < 8; bit++ {
		if get(addressPin + bit) {
			addr |= 1 << bit
		}
	}
	return addr, nil
}
