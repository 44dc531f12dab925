package seek

// UpdateKind tells observers what changed.
type UpdateKind int

const (
	UpdateAttached      UpdateKind = iota // A pipeline was attached
	UpdateDetached                        // The pipeline was detached
	UpdatePosition                        // Position event received
	UpdateDuration                        // Duration changed
	UpdateState                           // Pipeline state changed
	UpdateSeekIssued                      // A seek was sent to the pipeline
	UpdateSeekCoalesced                   // A seek request replaced the pending target
	UpdateSeekSettled                     // The in-flight seek settled with nothing pending
	UpdateSeekRejected                    // The pipeline declined a seek
)

// String returns the string representation of the update kind.
func (k UpdateKind) String() string {
	switch k {
	case UpdateAttached:
		return "attached"
	case UpdateDetached:
		return "detached"
	case UpdatePosition:
		return "position"
	case UpdateDuration:
		return "duration"
	case UpdateState:
		return "state"
	case UpdateSeekIssued:
		return "seek_issued"
	case UpdateSeekCoalesced:
		return "seek_coalesced"
	case UpdateSeekSettled:
		return "seek_settled"
	case UpdateSeekRejected:
		return "seek_rejected"
	default:
		return "unknown"
	}
}

// Update is delivered to watchers after every state change.
type Update struct {
	Kind     UpdateKind
	Snapshot Snapshot
	Err      error // set for UpdateSeekRejected
}
