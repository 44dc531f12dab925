// Package state provides viewer session state management.
package state

// Phase represents the session lifecycle phase.
type Phase int

const (
	PhaseIdle   Phase = iota // No media open
	PhaseOpen                // A pipeline is attached
	PhaseClosed              // Session has been closed
)

// String returns the string representation of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseOpen:
		return "open"
	case PhaseClosed:
		return "closed"
	default:
		return "unknown"
	}
}
