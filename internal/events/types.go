package events

// Event type constants for kelindar/event.
const (
	TypeProgress uint32 = iota + 1
	TypeAssemblyStarted
	TypeAssemblyCompleted
	TypeDownloadProgress
	TypeCyclePhaseChanged
	TypeLogEntry
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// ProgressEvent carries normalized 0-100 progress for the current phase plus
// the overall cycle percentage after phase remapping.
type ProgressEvent struct {
	Phase     string  `json:"phase" example:"encode" doc:"Workflow phase reporting progress"`
	Percent   float64 `json:"percent" example:"42.5" doc:"Phase-local progress, 0-100"`
	Overall   float64 `json:"overall" example:"88.5" doc:"Overall cycle progress, 0-100"`
	Message   string  `json:"message,omitempty" doc:"Optional diagnostic message"`
	Timestamp string  `json:"timestamp" example:"2026-03-01T10:30:00Z" doc:"Event timestamp"`
}

// Type returns the event type identifier for ProgressEvent.
func (e ProgressEvent) Type() uint32 { return TypeProgress }

// AssemblyStartedEvent is published when a video assembly run begins.
type AssemblyStartedEvent struct {
	ImageCount int    `json:"image_count" example:"12" doc:"Number of slide images in the run"`
	OutputPath string `json:"output_path" doc:"Target artifact path"`
	Timestamp  string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for AssemblyStartedEvent.
func (e AssemblyStartedEvent) Type() uint32 { return TypeAssemblyStarted }

// AssemblyCompletedEvent is published when an assembly run finishes,
// successfully or not.
type AssemblyCompletedEvent struct {
	Success    bool   `json:"success" doc:"Whether the output artifact was produced"`
	OutputPath string `json:"output_path,omitempty" doc:"Artifact path, meaningful on success"`
	Error      string `json:"error,omitempty" doc:"Failure description"`
	DurationMs int64  `json:"duration_ms" doc:"Wall time of the run"`
	Timestamp  string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for AssemblyCompletedEvent.
func (e AssemblyCompletedEvent) Type() uint32 { return TypeAssemblyCompleted }

// DownloadProgressEvent reports encoder binary acquisition progress.
type DownloadProgressEvent struct {
	Source    string  `json:"source" doc:"Archive URL being downloaded"`
	Percent   float64 `json:"percent" example:"63.0" doc:"Provisioning progress, 0-100"`
	Message   string  `json:"message,omitempty" doc:"Stage description"`
	Timestamp string  `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for DownloadProgressEvent.
func (e DownloadProgressEvent) Type() uint32 { return TypeDownloadProgress }

// CyclePhaseChangedEvent is published when the daemon cycle enters a new phase.
type CyclePhaseChangedEvent struct {
	Phase     string `json:"phase" example:"assemble" doc:"New cycle phase"`
	Timestamp string `json:"timestamp" doc:"Event timestamp"`
}

// Type returns the event type identifier for CyclePhaseChangedEvent.
func (e CyclePhaseChangedEvent) Type() uint32 { return TypeCyclePhaseChanged }

// LogEntryEvent carries a log line for live API consumers.
type LogEntryEvent struct {
	Timestamp  string         `json:"timestamp" doc:"Log timestamp"`
	Level      string         `json:"level" example:"info" doc:"Log level"`
	Module     string         `json:"module" example:"ffbin" doc:"Source module"`
	Message    string         `json:"message" doc:"Log message"`
	Attributes map[string]any `json:"attributes,omitempty" doc:"Structured log attributes"`
}

// Type returns the event type identifier for LogEntryEvent.
func (e LogEntryEvent) Type() uint32 { return TypeLogEntry }
