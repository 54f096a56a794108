package tasks

import (
	"fmt"
	"time"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or logs for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase, 0 when open-ended
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
	Err     error  // Set when the step failed
}

// Operation phase enumeration
type Phase int

const (
	PruneCooldowns Phase = iota
	Stopped
)

func (p Phase) String() string {
	switch p {
	case PruneCooldowns:
		return "prune_cooldowns"
	case Stopped:
		return "stopped"
	default:
		return ""
	}
}

func prunedUpdate(step int, removed int64, cutoff time.Time) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneCooldowns,
		Step:    step,
		Message: fmt.Sprintf("Removed %d cooldown records older than %s", removed, cutoff.UTC().Format(time.RFC3339)),
		Data:    removed,
	}
}

func pruneFailedUpdate(step int, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneCooldowns,
		Step:    step,
		Message: "Failed to prune cooldown records",
		Err:     err,
	}
}

func stoppedUpdate(runs int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Stopped,
		Step:    runs,
		Total:   runs,
		Message: fmt.Sprintf("Stopped after %d runs", runs),
	}
}
