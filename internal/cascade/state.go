package cascade

// State is a cascade state.
type State int

// Cascade states.
const (
	StateNativeAttempt State = iota
	StateConversionAttempt
	StatePerPageOCR
	StateDone
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNativeAttempt:
		return "NativeAttempt"
	case StateConversionAttempt:
		return "ConversionAttempt"
	case StatePerPageOCR:
		return "PerPageOCR"
	case StateDone:
		return "Done"
	default:
		return "Unknown"
	}
}

// Transition records one state change and why it happened.
type Transition struct {
	From   State
	To     State
	Reason string
}

// String formats the transition for logs.
func (t Transition) String() string {
	return t.From.String() + " -> " + t.To.String() + ": " + t.Reason
}
