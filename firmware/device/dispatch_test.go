package device

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/covernode"
)

func TestBusCommands(t *testing.T) {
	t.Run("OpenAcknowledged", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:5 ABRIR1"}
		h.Tick()

		assert.True(t, h.actuator.running[covernode.Motor1])
		assert.Equal(t, []string{"ACK ADDR:5 CMD OK [ABRIR1]"}, h.bus.without("HB"))
	})

	t.Run("CaseInsensitive", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"  addr:5   fechar2  "}
		h.Tick()

		assert.Equal(t, actuatorCall{covernode.Motor2, covernode.Close, true}, h.actuator.last())
		assert.Equal(t, []string{"ACK ADDR:5 CMD OK [fechar2]"}, h.bus.without("HB"))
	})

	t.Run("OtherAddressIgnored", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:6 ABRIR1", "ABRIR1", "ADDR:x ABRIR1"}
		h.Tick()

		assert.Empty(t, h.actuator.calls)
		assert.Empty(t, h.bus.without("HB"))
	})

	t.Run("BroadcastStop", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.Start(covernode.Motor1, covernode.Open))

		h.bus.inbound = []string{"ADDR:128 STOP"}
		h.Tick()

		assert.False(t, h.Busy())
		assert.Equal(t, []string{"ACK ADDR:5 CMD OK [STOP]"}, h.bus.without("HB"))
	})

	t.Run("PercentWithoutCalibration", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:5 75-1"}
		h.Tick()

		assert.Empty(t, h.actuator.calls)
		assert.Equal(t, []string{"NACK ADDR:5 Sem calibração motor1"}, h.bus.without("HB"))
	})

	t.Run("PercentCalibrated", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 0))
		h.bus.inbound = []string{"ADDR:5 75-1"}
		h.Tick()

		assert.Equal(t, actuatorCall{covernode.Motor1, covernode.Open, true}, h.actuator.last())
		assert.Empty(t, h.bus.without("HB"))
	})

	t.Run("CalibrateHasNoGenericAck", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:5 CALIBRAR2"}
		h.Tick()

		assert.True(t, h.Busy())
		assert.Empty(t, h.bus.without("HB"))
	})

	t.Run("BusyRejected", func(t *testing.T) {
		h := newHarness(t, nil)
		require.NoError(t, h.Start(covernode.Motor1, covernode.Open))

		h.bus.inbound = []string{"ADDR:5 FECHAR2"}
		h.Tick()

		assert.False(t, h.actuator.running[covernode.Motor2])
		assert.Equal(t, []string{"NACK ADDR:5 BUSY M2"}, h.bus.without("HB"))
	})

	t.Run("UnknownAcknowledged", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:5 PING"}
		h.Tick()

		assert.Empty(t, h.actuator.calls)
		assert.Equal(t, []string{"ACK ADDR:5 CMD OK [PING]"}, h.bus.without("HB"))
	})

	t.Run("SeveralLinesInOneTick", func(t *testing.T) {
		h := newHarness(t, nil)
		h.bus.inbound = []string{"ADDR:5 ABRIR1", "ADDR:5 STOP"}
		h.Tick()

		assert.False(t, h.Busy())
		assert.Len(t, h.bus.without("HB"), 2)
	})
}
