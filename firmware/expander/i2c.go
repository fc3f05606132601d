package expander

import (
	"periph.io/x/conn/v3/i2c"
	"tinygo.org/x/drivers"
)

// periphBus exposes a periph.io I2C bus with the register helpers the tinygo drivers use
type periphBus struct {
	bus i2c.Bus
}

var _ drivers.I2C = periphBus{}

// FromPeriph adapts a periph.io I2C bus for the MCP23017 driver
func FromPeriph(bus i2c.Bus) drivers.I2C {
	return periphBus{bus}
}

func (p periphBus) Tx(addr uint16, w, r []byte) error {
	return p.bus.Tx(addr, w, r)
}

func (p periphBus) ReadRegister(addr uint8, reg uint8, buf []byte) error {
	return p.bus.Tx(uint16(addr), []byte{reg}, buf)
}

func (p periphBus) WriteRegister(addr uint8, reg uint8, buf []byte) error {
	return p.bus.Tx(uint16(addr), append([]byte{reg}, buf...), nil)
}
