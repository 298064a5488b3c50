package model

import "time"

// FailMode determines whether a hook failure blocks the triggering operation.
type FailMode string

const (
	// FailModeContinue logs the failure and proceeds; the triggering
	// operation succeeds regardless of hook outcome (fail-open).
	FailModeContinue FailMode = "continue"
	// FailModeStop aborts remaining hooks for the event and signals the
	// triggering operation to fail (fail-stop).
	FailModeStop FailMode = "stop"
)

// HookAction is either a path-constrained script reference or an inline
// command string. Exactly one of Script/Command must be set.
type HookAction struct {
	Script  string `json:"script,omitempty" yaml:"script,omitempty"`
	Command string `json:"command,omitempty" yaml:"command,omitempty"`
}

// HookDefinition is one configured action bound to event matchers.
type HookDefinition struct {
	Name             string            `json:"name" yaml:"name"`
	Matchers         []string          `json:"matchers" yaml:"matchers"`
	Filter           map[string]any    `json:"filter,omitempty" yaml:"filter,omitempty"`
	Action           HookAction        `json:"action" yaml:"action"`
	Timeout          time.Duration     `json:"timeout" yaml:"-"`
	WorkingDirectory string            `json:"working_directory,omitempty" yaml:"working_directory,omitempty"`
	Env              map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	FailMode         FailMode          `json:"fail_mode" yaml:"-"`
	Enabled          bool              `json:"enabled" yaml:"-"`
}

// HookDefaults are registry-wide defaults applied to hooks that omit
// the corresponding field.
type HookDefaults struct {
	Timeout  time.Duration `json:"timeout"`
	Shell    string        `json:"shell"`
	FailMode FailMode      `json:"fail_mode"`
}
