package errclass

import "fmt"

// HookError is a stable, machine-readable error class.
type HookError struct {
	Code    string
	Message string
}

func (e *HookError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *HookError) Is(target error) bool {
	t, ok := target.(*HookError)
	return ok && e.Code == t.Code
}

// WithMessage returns a new HookError with the same Code but a specific message.
func (e *HookError) WithMessage(msg string) *HookError {
	return &HookError{Code: e.Code, Message: msg}
}

// WithMessagef returns a new HookError with a formatted message.
func (e *HookError) WithMessagef(format string, args ...any) *HookError {
	return &HookError{Code: e.Code, Message: fmt.Sprintf(format, args...)}
}

// All stable error classes.
var (
	ErrIDInvalid        = &HookError{Code: "E_ID_INVALID"}
	ErrPathEscape       = &HookError{Code: "E_PATH_ESCAPE"}
	ErrConfigInvalid    = &HookError{Code: "E_CONFIG_INVALID"}
	ErrActionInvalid    = &HookError{Code: "E_ACTION_INVALID"}
	ErrHookBlocked      = &HookError{Code: "E_HOOK_BLOCKED"}
	ErrExecFailed       = &HookError{Code: "E_EXEC_FAILED"}
	ErrExecTimeout      = &HookError{Code: "E_EXEC_TIMEOUT"}
	ErrExecSignaled     = &HookError{Code: "E_EXEC_SIGNALED"}
	ErrAuditChainBroken = &HookError{Code: "E_AUDIT_CHAIN_BROKEN"}
	ErrRevisionUnknown  = &HookError{Code: "E_REVISION_UNKNOWN"}
)
