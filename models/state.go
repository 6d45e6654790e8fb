package models

// TaskState represents the state of a download task. A task rests at Idle,
// moves to InFlight while its request is outstanding, passes through
// Completed or Failed for observation, and returns to Idle.
type TaskState string

const (
	// TaskIdle means no download is outstanding for the variant
	TaskIdle TaskState = "Idle"

	// TaskInFlight means a download request is outstanding
	TaskInFlight TaskState = "InFlight"

	// TaskCompleted means the payload was saved; transient, resets to Idle
	TaskCompleted TaskState = "Completed"

	// TaskFailed means the download failed; transient, resets to Idle
	TaskFailed TaskState = "Failed"
)

// String returns the string representation of TaskState
func (ts TaskState) String() string {
	return string(ts)
}

// IsActive returns true while a request is outstanding
func (ts TaskState) IsActive() bool {
	return ts == TaskInFlight
}

// IsSettled returns true for the transient post-download states
func (ts TaskState) IsSettled() bool {
	return ts == TaskCompleted || ts == TaskFailed
}
