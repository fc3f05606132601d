package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/calvinmclean/covernode"
	"github.com/calvinmclean/covernode/firmware/store"
)

func TestMoveToPercent(t *testing.T) {
	t.Run("NoCalibration", func(t *testing.T) {
		h := newHarness(t, nil)

		err := h.MoveToPercent(covernode.Motor1, 75)
		require.ErrorIs(t, err, covernode.ErrNoCalibration)
		assert.Empty(t, h.actuator.calls)
	})

	t.Run("PartialCalibration", func(t *testing.T) {
		h := newHarness(t, &memStore{calibration: store.CalibrationDoc{"motor1": {OpenMS: 10000}}})

		err := h.MoveToPercent(covernode.Motor1, 75)
		require.ErrorIs(t, err, covernode.ErrNoCalibration)
	})

	t.Run("OpenByDuration", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 8000, 0))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 50))
		assert.Equal(t, actuatorCall{covernode.Motor1, covernode.Open, true}, h.actuator.last())

		h.advance(4990 * time.Millisecond)
		assert.True(t, h.Busy())

		h.advance(10 * time.Millisecond)
		assert.False(t, h.Busy())
		assert.InDelta(t, 50.0, h.Position(covernode.Motor1), 0.001)
	})

	t.Run("CloseByDuration", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 8000, 75))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 25))
		assert.Equal(t, actuatorCall{covernode.Motor1, covernode.Close, true}, h.actuator.last())

		h.advance(4 * time.Second)
		assert.False(t, h.Busy())
		assert.InDelta(t, 25.0, h.Position(covernode.Motor1), 0.001)
	})

	t.Run("EndTargetOvertravelsToLimit", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 50))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 100))

		// 5s for the travel plus 1s of overtravel
		h.advance(5500 * time.Millisecond)
		assert.True(t, h.Busy())

		h.inputs.endstops.Open[0] = true
		h.advance(10 * time.Millisecond)
		assert.False(t, h.Busy())
		assert.Equal(t, 100.0, h.Position(covernode.Motor1))
	})

	t.Run("EndTargetWithoutLimit", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 50))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 0))
		h.advance(5990 * time.Millisecond)
		assert.True(t, h.Busy())

		h.advance(10 * time.Millisecond)
		assert.False(t, h.Busy())
		assert.Equal(t, 0.0, h.Position(covernode.Motor1))
	})

	t.Run("ClampsTarget", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 100))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 150))
		assert.Empty(t, h.actuator.calls)
		assert.False(t, h.Busy())
	})

	t.Run("AlreadyThere", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 49.5))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 50))
		assert.Empty(t, h.actuator.calls)
	})

	t.Run("Busy", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 0))
		require.NoError(t, h.Start(covernode.Motor2, covernode.Open))

		err := h.MoveToPercent(covernode.Motor1, 50)
		require.ErrorIs(t, err, covernode.ErrBusy)
	})

	t.Run("CancelledByStop", func(t *testing.T) {
		h := newHarness(t, calibrated(10000, 10000, 0))

		require.NoError(t, h.MoveToPercent(covernode.Motor1, 80))
		h.advance(2 * time.Second)
		h.Stop()

		assert.False(t, h.Busy())
		assert.InDelta(t, 20.0, h.Position(covernode.Motor1), 0.001)
	})
}
