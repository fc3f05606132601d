package covernode

import (
	"fmt"
	"strconv"
	"strings"
)

// ReplyKind classifies a line sent by a node
type ReplyKind int

const (
	ReplyUnknown ReplyKind = iota
	ReplyHeartbeat
	ReplyStart
	ReplyAck
	ReplyCalibrated
	ReplyNack
	ReplyAlert
)

func (k ReplyKind) String() string {
	switch k {
	case ReplyHeartbeat:
		return "Heartbeat"
	case ReplyStart:
		return "Start"
	case ReplyAck:
		return "Ack"
	case ReplyCalibrated:
		return "Calibrated"
	case ReplyNack:
		return "Nack"
	case ReplyAlert:
		return "Alert"
	default:
		return "Unknown"
	}
}

// Heartbeat is the decoded form of an "HB," status line
type Heartbeat struct {
	Position [2]int
	Endstops EndstopState
}

// Reply is a decoded node line. Only the fields relevant to Kind are set.
type Reply struct {
	Kind      ReplyKind
	Addr      int
	Motor     MotorID
	Heartbeat Heartbeat
	OpenMS    int
	CloseMS   int
	// Text is the echoed command of an Ack, the reason of a Nack or the version of a Start
	Text string
	Raw  string
}

// ParseReply decodes a line sent by a node. Unrecognised lines come back as ReplyUnknown.
func ParseReply(line string) Reply {
	line = strings.TrimSpace(line)
	r := Reply{Raw: line}

	var err error
	switch {
	case strings.HasPrefix(line, "HB-START,"):
		err = r.parseStart(line)
	case strings.HasPrefix(line, "HB,"):
		err = r.parseHeartbeat(line)
	case strings.HasPrefix(line, "ACK "):
		err = r.parseAck(line)
	case strings.HasPrefix(line, "NACK "):
		err = r.parseNack(line)
	case strings.HasPrefix(line, "ALERT "):
		var m int
		_, err = fmt.Sscanf(line, "ALERT ADDR:%d M%d TIMEOUT", &r.Addr, &m)
		r.Kind, r.Motor = ReplyAlert, MotorID(m)
	default:
		return r
	}

	if err != nil {
		return Reply{Raw: line}
	}
	return r
}

func (r *Reply) parseStart(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) != 3 {
		return fmt.Errorf("unexpected field count %d", len(fields))
	}
	addr, err := intField(fields[1], "ADDR:")
	if err != nil {
		return err
	}
	version, ok := strings.CutPrefix(fields[2], "VER:")
	if !ok {
		return fmt.Errorf("missing version")
	}
	r.Kind, r.Addr, r.Text = ReplyStart, addr, version
	return nil
}

// parseHeartbeat is positional because both motors report their close limit as "FC"
func (r *Reply) parseHeartbeat(line string) error {
	fields := strings.Split(line, ",")
	if len(fields) != 8 {
		return fmt.Errorf("unexpected field count %d", len(fields))
	}

	prefixes := []string{"ADDR:", "POS1:", "POS2:", "M1_FA:", "FC:", "M2_FA:", "FC:"}
	values := make([]int, len(prefixes))
	for i, p := range prefixes {
		v, err := intField(strings.TrimSuffix(fields[i+1], "%"), p)
		if err != nil {
			return err
		}
		values[i] = v
	}

	r.Kind = ReplyHeartbeat
	r.Addr = values[0]
	r.Heartbeat.Position = [2]int{values[1], values[2]}
	r.Heartbeat.Endstops.Open = [2]bool{values[3] == 1, values[5] == 1}
	r.Heartbeat.Endstops.Close = [2]bool{values[4] == 1, values[6] == 1}
	return nil
}

func (r *Reply) parseAck(line string) error {
	if strings.Contains(line, " CALIB_OK ") {
		var m int
		_, err := fmt.Sscanf(line, "ACK ADDR:%d CALIB_OK M%d OPEN:%d CLOSE:%d", &r.Addr, &m, &r.OpenMS, &r.CloseMS)
		r.Kind, r.Motor = ReplyCalibrated, MotorID(m)
		return err
	}

	_, err := fmt.Sscanf(line, "ACK ADDR:%d CMD OK", &r.Addr)
	if err != nil {
		return err
	}
	start := strings.Index(line, "[")
	end := strings.LastIndex(line, "]")
	if start < 0 || end < start {
		return fmt.Errorf("missing echoed command")
	}
	r.Kind, r.Text = ReplyAck, line[start+1:end]
	return nil
}

func (r *Reply) parseNack(line string) error {
	fields := strings.SplitN(line, " ", 3)
	if len(fields) < 2 {
		return fmt.Errorf("missing address")
	}
	addr, err := intField(fields[1], "ADDR:")
	if err != nil {
		return err
	}
	r.Kind, r.Addr = ReplyNack, addr
	if len(fields) == 3 {
		r.Text = fields[2]
	}
	return nil
}

func intField(field, prefix string) (int, error) {
	v, ok := strings.CutPrefix(field, prefix)
	if !ok {
		return 0, fmt.Errorf("expected %q in %q", prefix, field)
	}
	return strconv.Atoi(v)
}
