package covernode

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseReply(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		expected Reply
	}{
		{
			"Heartbeat",
			"HB,ADDR:3,POS1:42%,POS2:100%,M1_FA:0,FC:1,M2_FA:1,FC:0\r\n",
			Reply{
				Kind: ReplyHeartbeat,
				Addr: 3,
				Heartbeat: Heartbeat{
					Position: [2]int{42, 100},
					Endstops: EndstopState{Open: [2]bool{false, true}, Close: [2]bool{true, false}},
				},
				Raw: "HB,ADDR:3,POS1:42%,POS2:100%,M1_FA:0,FC:1,M2_FA:1,FC:0",
			},
		},
		{
			"Start",
			"HB-START,ADDR:9,VER:abc123",
			Reply{Kind: ReplyStart, Addr: 9, Text: "abc123", Raw: "HB-START,ADDR:9,VER:abc123"},
		},
		{
			"Calibrated",
			"ACK ADDR:3 CALIB_OK M2 OPEN:12000 CLOSE:11500",
			Reply{Kind: ReplyCalibrated, Addr: 3, Motor: Motor2, OpenMS: 12000, CloseMS: 11500, Raw: "ACK ADDR:3 CALIB_OK M2 OPEN:12000 CLOSE:11500"},
		},
		{
			"Ack",
			"ACK ADDR:3 CMD OK [STOP ALL]",
			Reply{Kind: ReplyAck, Addr: 3, Text: "STOP ALL", Raw: "ACK ADDR:3 CMD OK [STOP ALL]"},
		},
		{
			"NackNoCalibration",
			"NACK ADDR:3 Sem calibração motor1",
			Reply{Kind: ReplyNack, Addr: 3, Text: "Sem calibração motor1", Raw: "NACK ADDR:3 Sem calibração motor1"},
		},
		{
			"NackBusy",
			"NACK ADDR:3 BUSY M2",
			Reply{Kind: ReplyNack, Addr: 3, Text: "BUSY M2", Raw: "NACK ADDR:3 BUSY M2"},
		},
		{
			"Alert",
			"ALERT ADDR:4 M1 TIMEOUT",
			Reply{Kind: ReplyAlert, Addr: 4, Motor: Motor1, Raw: "ALERT ADDR:4 M1 TIMEOUT"},
		},
		{
			"TruncatedHeartbeat",
			"HB,ADDR:3,POS1:42%",
			Reply{Raw: "HB,ADDR:3,POS1:42%"},
		},
		{
			"AckWithoutEcho",
			"ACK ADDR:3 CMD OK",
			Reply{Raw: "ACK ADDR:3 CMD OK"},
		},
		{
			"Command",
			"ADDR:3 ABRIR1",
			Reply{Raw: "ADDR:3 ABRIR1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParseReply(tt.line))
		})
	}
}

func TestParseReplyFormatted(t *testing.T) {
	es := EndstopState{Open: [2]bool{true, false}, Close: [2]bool{false, true}}
	r := ParseReply(FormatHeartbeat(7, [2]float64{12.7, 88}, es))

	assert.Equal(t, ReplyHeartbeat, r.Kind)
	assert.Equal(t, 7, r.Addr)
	assert.Equal(t, [2]int{12, 88}, r.Heartbeat.Position)
	assert.Equal(t, es, r.Heartbeat.Endstops)

	r = ParseReply(FormatAck(7, "50-1"))
	assert.Equal(t, ReplyAck, r.Kind)
	assert.Equal(t, "50-1", r.Text)
}
