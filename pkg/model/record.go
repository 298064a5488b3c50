package model

import "time"

// ExecStatus is the final status of one hook execution attempt.
type ExecStatus string

const (
	// ExecSuccess: the action exited zero.
	ExecSuccess ExecStatus = "success"
	// ExecFailed: the action exited non-zero.
	ExecFailed ExecStatus = "failed"
	// ExecTimeout: the timeout escalation fired.
	ExecTimeout ExecStatus = "timeout"
	// ExecError: the action was terminated by a signal we did not send,
	// or could not be started at all.
	ExecError ExecStatus = "error"
	// ExecSecurityViolation: the action was rejected before any process
	// was spawned.
	ExecSecurityViolation ExecStatus = "security_violation"
	// ExecNoHooksMatched: an event matched no enabled hook. Recorded so
	// the idempotent no-op path stays observable in the audit log.
	ExecNoHooksMatched ExecStatus = "no_hooks_matched"
)

// OutputSummary describes captured child output without storing it whole.
type OutputSummary struct {
	Lines     int  `json:"lines"`
	Truncated bool `json:"truncated"`
}

// HookExecutionRecord is one line in the audit log (JSONL format): a single
// immutable record per (Event, HookDefinition) match attempt. It is created
// at dispatch time, finalized exactly once, appended, and never mutated.
type HookExecutionRecord struct {
	RecordVersion string `json:"record_version"`

	HookName  string    `json:"hook_name,omitempty"`
	EventType EventType `json:"event_type"`
	EventID   string    `json:"event_id"`
	TaskID    string    `json:"task_id,omitempty"`

	Status      ExecStatus    `json:"status"`
	ExitCode    int           `json:"exit_code"`
	StartedAt   time.Time     `json:"started_at"`
	CompletedAt time.Time     `json:"completed_at"`
	Duration    time.Duration `json:"duration_ns"`

	Stdout OutputSummary `json:"stdout"`
	Stderr OutputSummary `json:"stderr"`

	// SecurityOutcome is "ok" for executed hooks and the violation
	// description for rejected ones.
	SecurityOutcome string `json:"security_outcome,omitempty"`
	ErrorMessage    string `json:"error,omitempty"`

	ToolVersion string `json:"tool_version"`

	PrevHash   HashValue `json:"prev_hash"`
	RecordHash HashValue `json:"record_hash"`
}

// RecordVersionCurrent is the audit record schema version.
const RecordVersionCurrent = "1"
