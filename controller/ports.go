package controller

import (
	"github.com/pkg/errors"
	"go.bug.st/serial/enumerator"
)

// SerialPortNone runs without a bus adapter. Commands are discarded and nothing is received.
const SerialPortNone = "None"

var ErrNoUSBSerial = errors.New("no USB serial ports found")

// GetSerialPorts lists the USB serial adapters attached to the host
func GetSerialPorts() ([]string, error) {
	ports, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, errors.Wrap(err, "error listing serial ports")
	}

	var names []string
	for _, p := range ports {
		if p.IsUSB {
			names = append(names, p.Name)
		}
	}
	if len(names) == 0 {
		return nil, ErrNoUSBSerial
	}
	return names, nil
}
