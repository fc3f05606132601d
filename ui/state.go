package ui

import (
	"fmt"
	"time"

	"github.com/calvinmclean/covernode"
)

// nodeState is what the console knows about the node it talks to
type nodeState struct {
	addr int

	version   string
	lastSeen  time.Time
	heartbeat covernode.Heartbeat
	seen      bool
}

// apply folds a reply into the state. It returns a line for the console log,
// empty for replies from other nodes and for heartbeats.
func (s *nodeState) apply(r covernode.Reply, now time.Time) string {
	if r.Kind != covernode.ReplyUnknown && r.Addr != s.addr {
		return ""
	}

	switch r.Kind {
	case covernode.ReplyHeartbeat:
		s.heartbeat = r.Heartbeat
		s.lastSeen = now
		s.seen = true
		return ""
	case covernode.ReplyStart:
		s.version = r.Text
		s.lastSeen = now
		return fmt.Sprintf("node started, version %s", r.Text)
	case covernode.ReplyCalibrated:
		return fmt.Sprintf("motor %d calibrated: open %s, close %s", r.Motor, ms(r.OpenMS), ms(r.CloseMS))
	case covernode.ReplyAck:
		return "ok: " + r.Text
	case covernode.ReplyNack:
		return "rejected: " + r.Text
	case covernode.ReplyAlert:
		return fmt.Sprintf("motor %d timed out", r.Motor)
	default:
		return "? " + r.Raw
	}
}

// position describes motor m for its row label
func (s *nodeState) position(m covernode.MotorID) string {
	if !s.seen {
		return "--"
	}

	pos := s.heartbeat.Position[m-1]
	switch s.heartbeat.Endstops.At(m) {
	case covernode.EndstopFA:
		return fmt.Sprintf("%d%% (open limit)", pos)
	case covernode.EndstopFC:
		return fmt.Sprintf("%d%% (close limit)", pos)
	default:
		return fmt.Sprintf("%d%%", pos)
	}
}

func ms(v int) string {
	return (time.Duration(v) * time.Millisecond).String()
}
