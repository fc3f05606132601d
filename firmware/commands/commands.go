package commands

import (
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/calvinmclean/covernode"
)

// Command runs one kind of bus command against a Controller
type Command struct {
	Kind covernode.CommandKind
	// Ack sends the generic "CMD OK" acknowledgement after Run succeeds. Commands
	// with their own completion reply leave it off.
	Ack         bool
	Run         func(Controller, covernode.Command) error
	Usage       string
	Description string
}

// Controller is used to control a node
type Controller interface {
	Address() int
	MoveToPercent(covernode.MotorID, float64) error
	Calibrate(covernode.MotorID) error
	Start(covernode.MotorID, covernode.Direction) error
	Stop()

	// Reply sends a line on the bus
	Reply(string)
}

var (
	PercentCommand = &Command{
		Kind: covernode.CommandPercent,
		Run: func(c Controller, cmd covernode.Command) error {
			return c.MoveToPercent(cmd.Motor, float64(cmd.Percent))
		},
		Usage:       "<pct>-<motor>",
		Description: "Move a calibrated motor to a position between 0 and 100 percent.",
	}
	CalibrateCommand = &Command{
		Kind: covernode.CommandCalibrate,
		Run: func(c Controller, cmd covernode.Command) error {
			return c.Calibrate(cmd.Motor)
		},
		Usage:       "CALIBRAR<motor>",
		Description: "Measure the full open and close travel times of a motor.",
	}
	OpenCommand = &Command{
		Kind: covernode.CommandOpen,
		Ack:  true,
		Run: func(c Controller, cmd covernode.Command) error {
			return c.Start(cmd.Motor, covernode.Open)
		},
		Usage:       "ABRIR<motor>",
		Description: "Open a motor until its open limit switch.",
	}
	CloseCommand = &Command{
		Kind: covernode.CommandClose,
		Ack:  true,
		Run: func(c Controller, cmd covernode.Command) error {
			return c.Start(cmd.Motor, covernode.Close)
		},
		Usage:       "FECHAR<motor>",
		Description: "Close a motor until its close limit switch.",
	}
	StopCommand = &Command{
		Kind: covernode.CommandStop,
		Ack:  true,
		Run: func(c Controller, cmd covernode.Command) error {
			c.Stop()
			return nil
		},
		Usage:       "STOP",
		Description: "Stop the running motor and cancel any routine.",
	}
	// UnknownCommand is acknowledged without doing anything
	UnknownCommand = &Command{
		Kind: covernode.CommandUnknown,
		Ack:  true,
		Run: func(Controller, covernode.Command) error {
			return nil
		},
		Description: "Anything else is acknowledged and ignored.",
	}
)

var commands = []*Command{
	PercentCommand,
	CalibrateCommand,
	OpenCommand,
	CloseCommand,
	StopCommand,
}

// All returns the commands a node understands, for help output
func All() []*Command {
	return commands
}

// Dispatcher decodes command bodies and replies on behalf of the Controller
type Dispatcher struct {
	byKind map[covernode.CommandKind]*Command
	logger *zap.SugaredLogger
}

func NewDispatcher(logger *zap.SugaredLogger) *Dispatcher {
	byKind := map[covernode.CommandKind]*Command{
		UnknownCommand.Kind: UnknownCommand,
	}
	for _, cmd := range commands {
		byKind[cmd.Kind] = cmd
	}
	return &Dispatcher{byKind, logger}
}

// Dispatch runs the command in body and sends its acknowledgement or rejection
func (d *Dispatcher) Dispatch(c Controller, body string) {
	parsed := covernode.ParseCommand(body)
	cmd := d.byKind[parsed.Kind]

	d.logger.Debugw("command", "kind", parsed.Kind, "motor", parsed.Motor, "raw", parsed.Raw)

	err := cmd.Run(c, parsed)
	switch {
	case errors.Is(err, covernode.ErrNoCalibration):
		c.Reply(covernode.FormatNoCalibration(c.Address(), parsed.Motor))
	case errors.Is(err, covernode.ErrBusy):
		c.Reply(covernode.FormatBusy(c.Address(), parsed.Motor))
	case err != nil:
		d.logger.Errorw("command failed", "command", parsed.String(), "error", err)
	case cmd.Ack:
		c.Reply(covernode.FormatAck(c.Address(), parsed.Raw))
	}
}
