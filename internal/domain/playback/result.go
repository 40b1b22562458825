package playback

// Result is the outcome of a transport command that did not fail.
type Result int

const (
	ResultNone           Result = iota // No result; returned alongside an error
	ResultApplied                      // The requested transition was applied
	ResultAlreadyInState               // The state already matched; nothing changed
	ResultNoTarget                     // No device was given to act on; nothing changed
)

// Applied reports whether the command changed the state.
func (r Result) Applied() bool {
	return r == ResultApplied
}

// String returns the string representation of the result.
func (r Result) String() string {
	switch r {
	case ResultNone:
		return "none"
	case ResultApplied:
		return "applied"
	case ResultAlreadyInState:
		return "already_in_state"
	case ResultNoTarget:
		return "no_target"
	default:
		return "unknown"
	}
}
