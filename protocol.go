package covernode

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

const addrPrefix = "ADDR:"

// ParseAddressed splits an inbound bus line into its target address and command body.
// Lines without an "ADDR:<n>" prefix or with an unparseable address are rejected.
func ParseAddressed(line string) (int, string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(strings.ToUpper(line), addrPrefix) {
		return 0, "", false
	}

	var token, body string
	idx := strings.IndexFunc(line, unicode.IsSpace)
	if idx < 0 {
		token = line
	} else {
		token = line[:idx]
		body = strings.TrimLeftFunc(line[idx:], unicode.IsSpace)
	}

	addr, err := strconv.Atoi(token[len(addrPrefix):])
	if err != nil {
		return 0, "", false
	}
	return addr, body, true
}

// Addressed builds an outbound command line for the node at addr
func Addressed(addr int, cmd string) string {
	return addrPrefix + strconv.Itoa(addr) + " " + cmd
}

// CommandKind tags the variant of a parsed Command
type CommandKind int

const (
	CommandUnknown CommandKind = iota
	CommandPercent
	CommandCalibrate
	CommandOpen
	CommandClose
	CommandStop
)

func (k CommandKind) String() string {
	switch k {
	case CommandPercent:
		return "Percent"
	case CommandCalibrate:
		return "Calibrate"
	case CommandOpen:
		return "Open"
	case CommandClose:
		return "Close"
	case CommandStop:
		return "Stop"
	default:
		return "Unknown"
	}
}

// Command is a decoded command body. Raw keeps the body exactly as received so
// acknowledgements can echo it.
type Command struct {
	Kind    CommandKind
	Motor   MotorID
	Percent int
	Raw     string
}

// percentPattern is searched anywhere in the body, so "GO 50-1" is a percentage move too
var percentPattern = regexp.MustCompile(`\s*([0-9]+)\s*-\s*([12])`)

var tokenCommands = map[string]Command{
	"CALIBRAR1": {Kind: CommandCalibrate, Motor: Motor1},
	"CALIBRAR2": {Kind: CommandCalibrate, Motor: Motor2},
	"ABRIR1":    {Kind: CommandOpen, Motor: Motor1},
	"ABRIR2":    {Kind: CommandOpen, Motor: Motor2},
	"FECHAR1":   {Kind: CommandClose, Motor: Motor1},
	"FECHAR2":   {Kind: CommandClose, Motor: Motor2},
}

// ParseCommand decodes a command body. Matching is case-insensitive and tolerant of
// surrounding whitespace. Bodies that match nothing decode as CommandUnknown.
func ParseCommand(body string) Command {
	su := strings.ToUpper(strings.TrimSpace(body))

	if m := percentPattern.FindStringSubmatch(su); m != nil {
		pct, err := strconv.Atoi(m[1])
		if err != nil {
			// only overflow can fail here, which is far past fully open anyway
			pct = 100
		}
		motor, _ := strconv.Atoi(m[2])
		return Command{Kind: CommandPercent, Motor: MotorID(motor), Percent: pct, Raw: body}
	}

	if cmd, ok := tokenCommands[su]; ok {
		cmd.Raw = body
		return cmd
	}

	if strings.HasPrefix(su, "STOP") {
		return Command{Kind: CommandStop, Raw: body}
	}

	return Command{Kind: CommandUnknown, Raw: body}
}

// String renders the canonical wire form of the command
func (c Command) String() string {
	switch c.Kind {
	case CommandPercent:
		return fmt.Sprintf("%d-%d", c.Percent, c.Motor)
	case CommandCalibrate:
		return fmt.Sprintf("CALIBRAR%d", c.Motor)
	case CommandOpen:
		return fmt.Sprintf("ABRIR%d", c.Motor)
	case CommandClose:
		return fmt.Sprintf("FECHAR%d", c.Motor)
	case CommandStop:
		return "STOP"
	default:
		return c.Raw
	}
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

// FormatHeartbeat renders the periodic status line. Positions are truncated to whole percents.
func FormatHeartbeat(addr int, positions [2]float64, es EndstopState) string {
	return fmt.Sprintf(
		"HB,ADDR:%d,POS1:%d%%,POS2:%d%%,M1_FA:%d,FC:%d,M2_FA:%d,FC:%d",
		addr,
		int(positions[0]), int(positions[1]),
		b2i(es.OpenAt(Motor1)), b2i(es.CloseAt(Motor1)),
		b2i(es.OpenAt(Motor2)), b2i(es.CloseAt(Motor2)),
	)
}

// FormatStart renders the one-off boot announcement
func FormatStart(addr int, version string) string {
	return fmt.Sprintf("HB-START,ADDR:%d,VER:%s", addr, version)
}

// FormatCalibrated renders the acknowledgement sent at the end of a full calibration
func FormatCalibrated(addr int, m MotorID, openMS, closeMS int) string {
	return fmt.Sprintf("ACK ADDR:%d CALIB_OK M%d OPEN:%d CLOSE:%d", addr, m, openMS, closeMS)
}

// FormatAck renders the generic command acknowledgement
func FormatAck(addr int, cmd string) string {
	return fmt.Sprintf("ACK ADDR:%d CMD OK [%s]", addr, cmd)
}

// FormatNoCalibration renders the rejection of a percentage move on an uncalibrated motor
func FormatNoCalibration(addr int, m MotorID) string {
	return fmt.Sprintf("NACK ADDR:%d Sem calibração %s", addr, m.Key())
}

// FormatBusy renders the rejection of a start while another motion holds the motor slot
func FormatBusy(addr int, m MotorID) string {
	return fmt.Sprintf("NACK ADDR:%d BUSY M%d", addr, m)
}

// FormatTimeout renders the alert sent when a motion exceeds the safety timeout
func FormatTimeout(addr int, m MotorID) string {
	return fmt.Sprintf("ALERT ADDR:%d M%d TIMEOUT", addr, m)
}
