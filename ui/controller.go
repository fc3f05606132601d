package ui

import (
	"github.com/calvinmclean/covernode"
)

type sender interface {
	SendCommand(addr int, cmd covernode.Command) error
}

// controllerWrapper turns button and slider events into commands for one node
type controllerWrapper struct {
	client sender
	addr   int
	onSent func(cmd covernode.Command, err error)
}

func (c *controllerWrapper) send(cmd covernode.Command) {
	err := c.client.SendCommand(c.addr, cmd)
	if c.onSent != nil {
		c.onSent(cmd, err)
	}
}

func (c *controllerWrapper) Open(m covernode.MotorID) {
	c.send(covernode.Command{Kind: covernode.CommandOpen, Motor: m})
}

func (c *controllerWrapper) Close(m covernode.MotorID) {
	c.send(covernode.Command{Kind: covernode.CommandClose, Motor: m})
}

func (c *controllerWrapper) Stop() {
	c.send(covernode.Command{Kind: covernode.CommandStop})
}

func (c *controllerWrapper) Calibrate(m covernode.MotorID) {
	c.send(covernode.Command{Kind: covernode.CommandCalibrate, Motor: m})
}

func (c *controllerWrapper) MoveTo(m covernode.MotorID, pct float64) {
	c.send(covernode.Command{Kind: covernode.CommandPercent, Motor: m, Percent: int(pct)})
}
