package expander

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"
	"tinygo.org/x/drivers/mcp23017"

	"github.com/calvinmclean/covernode"
)

type fakeReader struct {
	pins mcp23017.Pins
	err  error
}

func (f *fakeReader) GetPins() (mcp23017.Pins, error) {
	return f.pins, f.err
}

func TestEndstops(t *testing.T) {
	m := DefaultMap()
	m.ActiveLow = false

	// M1 open limit, M2 close limit and M2 fault
	e := &Expander{&fakeReader{pins: 1<<0 | 1<<3 | 1<<5}, m}

	es, err := e.Endstops()
	require.NoError(t, err)
	assert.Equal(t, covernode.EndstopState{
		Open:  [2]bool{true, false},
		Close: [2]bool{false, true},
		Fault: [2]bool{false, true},
	}, es)
}

func TestActiveLow(t *testing.T) {
	// every port A line high except the M1 close limit and button 2
	e := &Expander{&fakeReader{pins: 0xFF &^ (1<<1 | 1<<7)}, DefaultMap()}

	es, err := e.Endstops()
	require.NoError(t, err)
	assert.Equal(t, covernode.EndstopFC, es.At(covernode.Motor1))
	assert.Equal(t, covernode.EndstopNone, es.At(covernode.Motor2))

	buttons, err := e.Buttons()
	require.NoError(t, err)
	assert.Equal(t, covernode.Buttons{false, true}, buttons)
}

func TestAddress(t *testing.T) {
	m := DefaultMap()
	m.ActiveLow = false
	e := &Expander{&fakeReader{pins: 0b00000101 << 8}, m}

	addr, err := e.Address()
	require.NoError(t, err)
	assert.Equal(t, 5, addr)
}

func TestReadError(t *testing.T) {
	e := &Expander{&fakeReader{err: errors.New("nack")}, DefaultMap()}

	_, err := e.Endstops()
	require.Error(t, err)
	_, err = e.Buttons()
	require.Error(t, err)
	_, err = e.Address()
	require.Error(t, err)
}

func TestMapValidate(t *testing.T) {
	require.NoError(t, DefaultMap().Validate())

	m := DefaultMap()
	m.Button[1] = 9
	require.Error(t, m.Validate())
}

type recordingBus struct {
	addr uint16
	w    []byte
}

func (r *recordingBus) String() string { return "recording" }

func (r *recordingBus) Tx(addr uint16, w, _ []byte) error {
	r.addr, r.w = addr, w
	return nil
}

func (r *recordingBus) SetSpeed(physic.Frequency) error { return nil }

func TestFromPeriph(t *testing.T) {
	rec := &recordingBus{}
	bus := FromPeriph(rec).(periphBus)

	require.NoError(t, bus.WriteRegister(0x20, 0x12, []byte{0xFF}))
	assert.Equal(t, uint16(0x20), rec.addr)
	assert.Equal(t, []byte{0x12, 0xFF}, rec.w)

	require.NoError(t, bus.ReadRegister(0x21, 0x13, make([]byte, 1)))
	assert.Equal(t, uint16(0x21), rec.addr)
	assert.Equal(t, []byte{0x13}, rec.w)
}
