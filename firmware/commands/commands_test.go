package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zaptest"

	"github.com/calvinmclean/covernode"
)

type call struct {
	name    string
	motor   covernode.MotorID
	percent float64
	dir     covernode.Direction
}

type fakeController struct {
	calls   []call
	replies []string
	err     error
}

var _ Controller = &fakeController{}

func (f *fakeController) Address() int { return 7 }

func (f *fakeController) MoveToPercent(m covernode.MotorID, pct float64) error {
	f.calls = append(f.calls, call{name: "percent", motor: m, percent: pct})
	return f.err
}

func (f *fakeController) Calibrate(m covernode.MotorID) error {
	f.calls = append(f.calls, call{name: "calibrate", motor: m})
	return f.err
}

func (f *fakeController) Start(m covernode.MotorID, dir covernode.Direction) error {
	f.calls = append(f.calls, call{name: "start", motor: m, dir: dir})
	return f.err
}

func (f *fakeController) Stop() {
	f.calls = append(f.calls, call{name: "stop"})
}

func (f *fakeController) Reply(line string) {
	f.replies = append(f.replies, line)
}

func TestDispatch(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		err     error
		calls   []call
		replies []string
	}{
		{
			"Percent",
			"50-2",
			nil,
			[]call{{name: "percent", motor: covernode.Motor2, percent: 50}},
			nil,
		},
		{
			"PercentNoCalibration",
			"75-1",
			covernode.ErrNoCalibration,
			[]call{{name: "percent", motor: covernode.Motor1, percent: 75}},
			[]string{"NACK ADDR:7 Sem calibração motor1"},
		},
		{
			"Calibrate",
			"CALIBRAR1",
			nil,
			[]call{{name: "calibrate", motor: covernode.Motor1}},
			nil,
		},
		{
			"CalibrateBusy",
			"CALIBRAR2",
			covernode.ErrBusy,
			[]call{{name: "calibrate", motor: covernode.Motor2}},
			[]string{"NACK ADDR:7 BUSY M2"},
		},
		{
			"Open",
			"ABRIR2",
			nil,
			[]call{{name: "start", motor: covernode.Motor2, dir: covernode.Open}},
			[]string{"ACK ADDR:7 CMD OK [ABRIR2]"},
		},
		{
			"Close",
			"Fechar1",
			nil,
			[]call{{name: "start", motor: covernode.Motor1, dir: covernode.Close}},
			[]string{"ACK ADDR:7 CMD OK [Fechar1]"},
		},
		{
			"StopWithSuffix",
			"STOP ALL",
			nil,
			[]call{{name: "stop"}},
			[]string{"ACK ADDR:7 CMD OK [STOP ALL]"},
		},
		{
			"Unknown",
			"HELLO",
			nil,
			nil,
			[]string{"ACK ADDR:7 CMD OK [HELLO]"},
		},
		{
			"HardwareErrorNotAcknowledged",
			"ABRIR1",
			errors.New("gpio failure"),
			[]call{{name: "start", motor: covernode.Motor1, dir: covernode.Open}},
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &fakeController{err: tt.err}
			NewDispatcher(zaptest.NewLogger(t).Sugar()).Dispatch(c, tt.body)

			assert.Equal(t, tt.calls, c.calls)
			assert.Equal(t, tt.replies, c.replies)
		})
	}
}

func TestAll(t *testing.T) {
	for _, cmd := range All() {
		assert.NotEmpty(t, cmd.Usage, cmd.Kind.String())
		assert.NotEmpty(t, cmd.Description, cmd.Kind.String())
		assert.NotNil(t, cmd.Run, cmd.Kind.String())
	}
}
