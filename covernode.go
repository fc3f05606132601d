package covernode

// BroadcastAddr is the default bus address every node listens to
const BroadcastAddr = 128

// MotorID identifies one of the two covers driven by a node
type MotorID int

const (
	Motor1 MotorID = 1
	Motor2 MotorID = 2
)

// Motors lists the motors of a node in heartbeat order
var Motors = [2]MotorID{Motor1, Motor2}

// Valid reports whether the ID names a motor on this node
func (m MotorID) Valid() bool {
	return m == Motor1 || m == Motor2
}

// Key is the name used for the motor in persisted documents
func (m MotorID) Key() string {
	if m == Motor2 {
		return "motor2"
	}
	return "motor1"
}

func (m MotorID) index() int {
	if m == Motor2 {
		return 1
	}
	return 0
}

// Direction is the direction of travel of a cover
type Direction int

const (
	Open Direction = iota
	Close
)

func (d Direction) String() string {
	if d == Close {
		return "close"
	}
	return "open"
}

// Opposite returns the reverse direction, used when inverting a running motor
func (d Direction) Opposite() Direction {
	if d == Open {
		return Close
	}
	return Open
}

// Endstop is the limit switch a motor was resting on when a motion started
type Endstop int

const (
	EndstopNone Endstop = iota
	// EndstopFC is the fully-closed limit switch
	EndstopFC
	// EndstopFA is the fully-open limit switch
	EndstopFA
)

func (e Endstop) String() string {
	switch e {
	case EndstopFC:
		return "FC"
	case EndstopFA:
		return "FA"
	default:
		return "none"
	}
}

// EndstopState is a snapshot of the limit switches and fault lines of both motors
type EndstopState struct {
	Open  [2]bool
	Close [2]bool
	Fault [2]bool
}

// OpenAt reports whether the open limit of m is asserted
func (s EndstopState) OpenAt(m MotorID) bool {
	return s.Open[m.index()]
}

// CloseAt reports whether the close limit of m is asserted
func (s EndstopState) CloseAt(m MotorID) bool {
	return s.Close[m.index()]
}

// FaultAt reports whether the driver of m signals a fault
func (s EndstopState) FaultAt(m MotorID) bool {
	return s.Fault[m.index()]
}

// Reached reports whether m is on the limit switch at the end of travel in direction d
func (s EndstopState) Reached(m MotorID, d Direction) bool {
	if d == Open {
		return s.OpenAt(m)
	}
	return s.CloseAt(m)
}

// At returns the endstop m currently rests on. The close limit wins when both are asserted.
func (s EndstopState) At(m MotorID) Endstop {
	switch {
	case s.CloseAt(m):
		return EndstopFC
	case s.OpenAt(m):
		return EndstopFA
	default:
		return EndstopNone
	}
}

// Buttons holds the raw pressed bit of the push-button of each motor
type Buttons [2]bool

// Pressed reports whether the button of m is held down
func (b Buttons) Pressed(m MotorID) bool {
	return b[m.index()]
}
