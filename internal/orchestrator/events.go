package orchestrator

// EventKind identifies the shape of an Event (spec §4.4).
type EventKind string

const (
	EventStarted       EventKind = "Started"
	EventChunkVerified EventKind = "ChunkVerified"
	EventChunkWritten  EventKind = "ChunkWritten"
	EventProgress      EventKind = "Progress"
	EventError         EventKind = "Error"
	EventCompleted     EventKind = "Completed"
)

// Event is emitted on the stream returned by VerifyAndRepair/Run.
// Consumers must not assume ordering across workers other than
// Started < Progress* < Completed (spec §5 "Ordering guarantees").
type Event struct {
	Kind EventKind

	// ChunkVerified, ChunkWritten, Error
	ChunkID     string
	Size        uint64
	TargetCount int
	Reason      string // Error only

	// Progress
	Progress ProgressSnapshot

	// Completed
	FailedChunkIDs []string
}

// ProgressSnapshot is the periodic progress report (spec §4.4 "Progress
// monitor"): percentage, instantaneous throughput, and ETA computed over
// a rolling 5-second window.
type ProgressSnapshot struct {
	Percentage     float64
	BytesPerSecond float64
	ETASeconds     float64
	Downloaded     uint64
	Total          uint64
}
