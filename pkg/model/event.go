package model

import "time"

// EventType is a dot-delimited canonical event type.
type EventType string

const (
	EventTaskCreated       EventType = "task.created"
	EventTaskStatusChanged EventType = "task.status_changed"
	EventTaskCompleted     EventType = "task.completed"
	EventTaskACChecked     EventType = "task.ac_checked"
	EventTaskACUnchecked   EventType = "task.ac_unchecked"
)

// EventMetadata carries tool/runtime version information on every event.
type EventMetadata struct {
	Tool        string `json:"tool"`
	ToolVersion string `json:"tool_version"`
}

// Event is the canonical, versioned notification derived from a Delta.
// Events are immutable once emitted.
type Event struct {
	SchemaVersion string         `json:"schema_version"`
	EventType     EventType      `json:"event_type"`
	EventID       string         `json:"event_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Context       map[string]any `json:"context"`
	Metadata      EventMetadata  `json:"metadata"`
}
