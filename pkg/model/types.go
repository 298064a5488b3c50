package model

// HashValue is a SHA-256 hash stored as hex string.
type HashValue string

// SchemaVersion is the canonical event payload schema version.
const SchemaVersion = "1.0"

// DefaultTerminalStatus is the status value representing work-item
// completion unless the project configures a different one.
const DefaultTerminalStatus = "Done"
