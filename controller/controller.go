// Package controller talks to cover nodes from a host through a USB RS485 adapter
package controller

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/calvinmclean/covernode"
)

const readTimeout = 100 * time.Millisecond

// Client sends addressed commands on the bus and decodes what the nodes send back
type Client struct {
	port     io.ReadWriteCloser
	writeMtx sync.Mutex
}

// New opens the serial port in cfg
func New(cfg Config) (*Client, error) {
	if cfg.SerialPort == SerialPortNone {
		return newClient(nopPort{}), nil
	}
	if cfg.SerialPort == "" {
		return nil, errors.New("serial port is required")
	}

	baud, err := cfg.baudRate()
	if err != nil {
		return nil, err
	}

	port, err := serial.Open(cfg.SerialPort, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "error opening serial port %q", cfg.SerialPort)
	}

	// a bounded read lets Listen notice a cancelled context
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, errors.Wrap(err, "error setting read timeout")
	}

	return newClient(port), nil
}

// NewFromEnv opens the port named by COVERNODE_PORT
func NewFromEnv() (*Client, error) {
	return New(ConfigFromEnv())
}

func newClient(port io.ReadWriteCloser) *Client {
	return &Client{port: port}
}

// Send writes cmd addressed to the node at addr
func (c *Client) Send(addr int, cmd string) error {
	c.writeMtx.Lock()
	defer c.writeMtx.Unlock()

	_, err := io.WriteString(c.port, covernode.Addressed(addr, cmd)+"\n")
	return errors.Wrap(err, "error writing command")
}

// SendCommand writes the canonical form of cmd addressed to the node at addr
func (c *Client) SendCommand(addr int, cmd covernode.Command) error {
	return c.Send(addr, cmd.String())
}

// Listen decodes every line received until ctx is done or the port fails.
// fn is called from the calling goroutine.
func (c *Client) Listen(ctx context.Context, fn func(covernode.Reply)) error {
	buf := make([]byte, 256)
	var pending []byte

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		n, err := c.port.Read(buf)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return errors.Wrap(err, "error reading serial")
		}
		pending = append(pending, buf[:n]...)

		for {
			idx := bytes.IndexByte(pending, '\n')
			if idx < 0 {
				break
			}
			line := strings.TrimRight(string(pending[:idx]), "\r")
			pending = pending[idx+1:]

			if line == "" {
				continue
			}
			fn(covernode.ParseReply(line))
		}
	}
}

// Close closes the serial port
func (c *Client) Close() error {
	return c.port.Close()
}

type nopPort struct{}

func (nopPort) Read([]byte) (int, error) {
	time.Sleep(readTimeout)
	return 0, nil
}

func (nopPort) Write(p []byte) (int, error) { return len(p), nil }

func (nopPort) Close() error { return nil }
