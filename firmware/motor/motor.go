// Package motor drives the two H-bridges of a node over GPIO
package motor

import (
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"

	"github.com/calvinmclean/covernode"
)

// Pins names the GPIO lines of one H-bridge, for example "GPIO12"
type Pins struct {
	Enable string `yaml:"enable"`
	Phase  string `yaml:"phase"`
	Sleep  string `yaml:"sleep"`
}

// Validate checks that every pin is named
func (p Pins) Validate() error {
	if p.Enable == "" || p.Phase == "" || p.Sleep == "" {
		return errors.New("enable, phase and sleep pins are required")
	}
	return nil
}

type bridge struct {
	enable gpio.PinOut
	phase  gpio.PinOut
	sleep  gpio.PinOut
}

// Driver runs one H-bridge per motor. Phase high drives the cover open.
type Driver struct {
	bridges [2]bridge
}

// New opens the pins of both bridges and leaves the motors stopped and asleep
func New(pins [2]Pins) (*Driver, error) {
	d := &Driver{}
	for i, p := range pins {
		if err := p.Validate(); err != nil {
			return nil, errors.Wrapf(err, "motor %d", i+1)
		}

		b, err := openBridge(p)
		if err != nil {
			return nil, errors.Wrapf(err, "motor %d", i+1)
		}
		d.bridges[i] = b
	}

	if err := d.Close(); err != nil {
		return nil, errors.Wrap(err, "error resetting bridges")
	}
	return d, nil
}

func openBridge(p Pins) (bridge, error) {
	var b bridge
	for _, pin := range []struct {
		name string
		out  *gpio.PinOut
	}{
		{p.Enable, &b.enable},
		{p.Phase, &b.phase},
		{p.Sleep, &b.sleep},
	} {
		io := gpioreg.ByName(pin.name)
		if io == nil {
			return bridge{}, errors.Errorf("unknown pin %q", pin.name)
		}
		*pin.out = io
	}
	return b, nil
}

func (d *Driver) bridge(m covernode.MotorID) (bridge, error) {
	if !m.Valid() {
		return bridge{}, errors.Errorf("invalid motor %d", m)
	}
	return d.bridges[m-1], nil
}

// Run wakes the bridge of m, sets the phase for dir, then enables it
func (d *Driver) Run(m covernode.MotorID, dir covernode.Direction) error {
	b, err := d.bridge(m)
	if err != nil {
		return err
	}

	phase := gpio.High
	if dir == covernode.Close {
		phase = gpio.Low
	}

	if err := b.sleep.Out(gpio.High); err != nil {
		return errors.Wrap(err, "error waking bridge")
	}
	if err := b.phase.Out(phase); err != nil {
		return errors.Wrap(err, "error setting phase")
	}
	if err := b.enable.Out(gpio.High); err != nil {
		return errors.Wrap(err, "error enabling bridge")
	}
	return nil
}

// Stop disables the bridge of m. The bridge stays awake so a restart is immediate.
func (d *Driver) Stop(m covernode.MotorID) error {
	b, err := d.bridge(m)
	if err != nil {
		return err
	}
	return errors.Wrap(b.enable.Out(gpio.Low), "error disabling bridge")
}

// Close stops both motors and puts the bridges to sleep
func (d *Driver) Close() error {
	var err error
	for _, b := range d.bridges {
		err = multierr.Append(err, b.enable.Out(gpio.Low))
		err = multierr.Append(err, b.sleep.Out(gpio.Low))
	}
	return err
}
