package gcode

// State is the position of the emitter in the program structure:
//
//	Idle -> ToolChange -> {Positioning -> Cycling}* -> CoolantOff -> (ToolChange | ProgramEnd)
//
// An empty program goes straight from Idle to ProgramEnd.
type State int

const (
	Idle State = iota
	ToolChange
	Positioning
	Cycling
	CoolantOff
	ProgramEnd
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case ToolChange:
		return "tool change"
	case Positioning:
		return "positioning"
	case Cycling:
		return "cycling"
	case CoolantOff:
		return "coolant off"
	case ProgramEnd:
		return "program end"
	}
	return "unknown"
}

var transitions = map[State][]State{
	Idle:        {ToolChange, ProgramEnd},
	ToolChange:  {Positioning, CoolantOff},
	Positioning: {Cycling},
	Cycling:     {Positioning, CoolantOff},
	CoolantOff:  {ToolChange, ProgramEnd},
}

func allowed(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
