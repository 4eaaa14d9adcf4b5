package research

// EventKind distinguishes progress checkpoints from the terminal report.
type EventKind string

const (
	EventInfo  EventKind = "info"
	EventFinal EventKind = "final"
)

// Checkpoint names the pipeline milestone an Info event reports.
type Checkpoint string

const (
	CheckpointTrace    Checkpoint = "trace"
	CheckpointPlanned  Checkpoint = "planned"
	CheckpointSearched Checkpoint = "searched"
	CheckpointWritten  Checkpoint = "written"
	CheckpointNotified Checkpoint = "notified"
)

// Checkpoints lists the Info checkpoints of a successful run in emission order.
var Checkpoints = []Checkpoint{
	CheckpointTrace,
	CheckpointPlanned,
	CheckpointSearched,
	CheckpointWritten,
	CheckpointNotified,
}

// Event is one item of a run's progress stream. Final events carry the
// artifact and use its markdown body as Message.
type Event struct {
	Kind       EventKind       `json:"kind"`
	Checkpoint Checkpoint      `json:"checkpoint,omitempty"`
	Message    string          `json:"message"`
	Artifact   *ReportArtifact `json:"artifact,omitempty"`
}

func infoEvent(checkpoint Checkpoint, message string) Event {
	return Event{Kind: EventInfo, Checkpoint: checkpoint, Message: message}
}

func finalEvent(artifact ReportArtifact) Event {
	return Event{Kind: EventFinal, Message: artifact.MarkdownBody, Artifact: &artifact}
}
