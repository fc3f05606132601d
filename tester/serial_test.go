package main_test

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.bug.st/serial"
)

// These tests talk to a real node through a USB RS485 adapter. Set COVERNODE_TEST_PORT
// to run them, and COVERNODE_TEST_ADDR when the node is not at address 1.

func testTarget(t *testing.T) (string, int) {
	t.Helper()

	port := os.Getenv("COVERNODE_TEST_PORT")
	if port == "" {
		t.Skip("COVERNODE_TEST_PORT is not set")
	}

	addr := 1
	if s := os.Getenv("COVERNODE_TEST_ADDR"); s != "" {
		var err error
		addr, err = strconv.Atoi(s)
		if err != nil {
			t.Fatalf("invalid COVERNODE_TEST_ADDR: %v", err)
		}
	}
	return port, addr
}

// sendSerial writes one line and returns the first reply starting with prefix
func sendSerial(t *testing.T, portName, in, prefix string) string {
	t.Helper()
	mode := &serial.Mode{
		BaudRate: 9600,
	}

	port, err := serial.Open(portName, mode)
	if err != nil {
		t.Errorf("unexpected error opening serial connection: %v", err)
		return ""
	}
	defer port.Close()

	_, err = port.Write([]byte(in + "\n"))
	if err != nil {
		t.Errorf("unexpected error writing serial: %v", err)
		return ""
	}

	port.SetReadTimeout(100 * time.Millisecond)
	reader := bufio.NewReader(port)
	deadline := time.Now().Add(2 * time.Second)
	var line strings.Builder
	for time.Now().Before(deadline) {
		b, err := reader.ReadByte()
		if err != nil {
			continue
		}
		if b != '\n' {
			line.WriteByte(b)
			continue
		}

		got := strings.TrimRight(line.String(), "\r")
		line.Reset()
		if strings.HasPrefix(got, prefix) {
			return got
		}
	}
	return ""
}

func TestSerial(t *testing.T) {
	port, addr := testTarget(t)

	tests := []struct {
		name     string
		in       string
		prefix   string
		expected string
	}{
		{
			"Stop",
			fmt.Sprintf("ADDR:%d STOP", addr),
			"ACK ",
			fmt.Sprintf("ACK ADDR:%d CMD OK [STOP]", addr),
		},
		{
			"UnknownIsAcknowledged",
			fmt.Sprintf("ADDR:%d PING", addr),
			"ACK ",
			fmt.Sprintf("ACK ADDR:%d CMD OK [PING]", addr),
		},
		{
			"BroadcastStop",
			"ADDR:128 STOP",
			"ACK ",
			fmt.Sprintf("ACK ADDR:%d CMD OK [STOP]", addr),
		},
		{
			"Heartbeat",
			fmt.Sprintf("ADDR:%d STOP", addr),
			"HB,",
			fmt.Sprintf("HB,ADDR:%d,", addr),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := sendSerial(t, port, tt.in, tt.prefix)
			if !strings.HasPrefix(out, tt.expected) {
				t.Errorf("expected=%q, got=%q", tt.expected, out)
			}
		})
	}
}
