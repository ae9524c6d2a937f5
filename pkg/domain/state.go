package domain

// Status is the lifecycle state of a job, and of the device running it.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusQueued       Status = "queued"
	StatusConnecting   Status = "connecting"
	StatusInitializing Status = "initializing"
	StatusPlotting     Status = "plotting"
	StatusPaused       Status = "paused"
	StatusCompleted    Status = "completed" // Sink state
	StatusCancelled    Status = "cancelled" // Sink state
	StatusFailed       Status = "failed"    // Sink state
)

// transitions lists the allowed next states for every non-terminal state.
var transitions = map[Status][]Status{
	StatusIdle:         {StatusQueued, StatusConnecting},
	StatusQueued:       {StatusConnecting, StatusCancelled, StatusFailed},
	StatusConnecting:   {StatusInitializing, StatusCancelled, StatusFailed},
	StatusInitializing: {StatusPlotting, StatusCancelled, StatusFailed},
	StatusPlotting:     {StatusPaused, StatusCompleted, StatusCancelled, StatusFailed},
	StatusPaused:       {StatusPlotting, StatusCancelled, StatusFailed},
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled || s == StatusFailed
}

// Active reports whether a job in this state owns its device.
func (s Status) Active() bool {
	return s != StatusIdle && !s.Terminal()
}

// CanTransition reports whether from -> to is a legal lifecycle step.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
