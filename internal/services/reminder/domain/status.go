package domain

// Status is a reminder lifecycle state.
type Status string

const (
	// StatusProposed marks a reminder awaiting user confirmation.
	StatusProposed Status = "proposed"
	// StatusConfirmed marks a reminder accepted for calendar sync.
	StatusConfirmed Status = "confirmed"
	// StatusSynced marks a reminder materialized as an external calendar event.
	StatusSynced Status = "synced"
	// StatusCancelled marks a terminally dismissed reminder.
	StatusCancelled Status = "cancelled"
)

// Valid reports whether the status is a known lifecycle state.
func (s Status) Valid() bool {
	switch s {
	case StatusProposed, StatusConfirmed, StatusSynced, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether the status accepts no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled
}

// CanTransition reports whether the lifecycle permits moving between two
// states. Confirmation only follows proposal, sync only follows
// confirmation, and cancellation is allowed from any non-terminal state.
func CanTransition(from, to Status) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	switch to {
	case StatusConfirmed:
		return from == StatusProposed
	case StatusSynced:
		return from == StatusConfirmed
	case StatusCancelled:
		return !from.Terminal()
	default:
		return false
	}
}
