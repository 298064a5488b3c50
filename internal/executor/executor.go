// Package executor runs one hook action as a supervised child process with
// path constraints, an environment allow-list, and timeout escalation.
package executor

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/logging"
	"github.com/taskhook-project/taskhook/pkg/model"
	"github.com/taskhook-project/taskhook/pkg/pathutil"
)

// MaxOutputLines caps captured stdout/stderr per stream.
const MaxOutputLines = 100

// DefaultGrace is how long a process gets between SIGTERM and SIGKILL.
const DefaultGrace = 5 * time.Second

// Output is one captured stream, truncated to MaxOutputLines.
type Output struct {
	Lines     []string
	Total     int
	Truncated bool
}

// Result is the finalized outcome of one execution attempt.
type Result struct {
	Status      model.ExecStatus
	ExitCode    int
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration

	Stdout Output
	Stderr Output

	// SecurityOutcome is "ok" when the action passed validation, or the
	// violation description when it was rejected before spawn.
	SecurityOutcome string
	ErrorMessage    string
}

// Executor executes hook actions. ScriptDir is the pre-declared base
// directory script references must resolve within; ProjectRoot constrains
// working directories.
type Executor struct {
	ProjectRoot string
	ScriptDir   string
	Shell       string
	Grace       time.Duration
}

// New creates an Executor with the default shell and kill grace period.
func New(projectRoot, scriptDir string) *Executor {
	return &Executor{
		ProjectRoot: projectRoot,
		ScriptDir:   scriptDir,
		Shell:       "/bin/sh",
		Grace:       DefaultGrace,
	}
}

// Execute runs exactly one hook's action for exactly one event. The event
// payload reaches the child as JSON on stdin, never on the command line,
// so event field values cannot be shell-interpreted. Only the hook's
// declared environment keys are exposed; the parent environment is not
// inherited.
func (e *Executor) Execute(hook model.HookDefinition, ev model.Event) *Result {
	start := time.Now().UTC()

	cmd, rejection := e.buildCommand(hook)
	if rejection != nil {
		logging.Warn("hook action rejected before spawn", map[string]any{
			"hook":  hook.Name,
			"cause": rejection.Error(),
		})
		return &Result{
			Status:          model.ExecSecurityViolation,
			ExitCode:        -1,
			StartedAt:       start,
			CompletedAt:     time.Now().UTC(),
			SecurityOutcome: rejection.Error(),
			ErrorMessage:    rejection.Error(),
		}
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		return errorResult(start, fmt.Sprintf("marshal event payload: %v", err))
	}
	cmd.Stdin = bytes.NewReader(payload)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	env := make([]string, 0, len(hook.Env))
	for k, v := range hook.Env {
		env = append(env, k+"="+v)
	}
	cmd.Env = env

	if err := cmd.Start(); err != nil {
		return errorResult(start, fmt.Sprintf("start action: %v", err))
	}

	timedOut, waitErr := e.supervise(cmd, hook.Timeout)

	res := &Result{
		StartedAt:       start,
		CompletedAt:     time.Now().UTC(),
		Stdout:          capture(stdout.String()),
		Stderr:          capture(stderr.String()),
		SecurityOutcome: "ok",
	}
	res.Duration = res.CompletedAt.Sub(res.StartedAt)

	switch {
	case timedOut:
		res.Status = model.ExecTimeout
		res.ExitCode = -1
		res.ErrorMessage = errclass.ErrExecTimeout.WithMessagef(
			"hook %s exceeded %s", hook.Name, hook.Timeout).Error()

	case waitErr == nil:
		res.Status = model.ExecSuccess
		res.ExitCode = 0

	default:
		exitErr, ok := waitErr.(*exec.ExitError)
		if !ok {
			res.Status = model.ExecError
			res.ExitCode = -1
			res.ErrorMessage = waitErr.Error()
			break
		}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			res.Status = model.ExecError
			res.ExitCode = -1
			res.ErrorMessage = errclass.ErrExecSignaled.WithMessagef(
				"hook %s killed by %s", hook.Name, ws.Signal()).Error()
			break
		}
		res.Status = model.ExecFailed
		res.ExitCode = exitErr.ExitCode()
		res.ErrorMessage = errclass.ErrExecFailed.WithMessagef(
			"hook %s exited %d", hook.Name, exitErr.ExitCode()).Error()
	}

	return res
}

// buildCommand validates the action and working directory and constructs
// the child process. A non-nil rejection means nothing was spawned.
func (e *Executor) buildCommand(hook model.HookDefinition) (*exec.Cmd, error) {
	var cmd *exec.Cmd
	switch {
	case hook.Action.Script != "":
		resolved, err := pathutil.ResolveWithin(e.ScriptDir, hook.Action.Script)
		if err != nil {
			return nil, err
		}
		cmd = exec.Command(resolved)
	case hook.Action.Command != "":
		cmd = exec.Command(e.Shell, "-c", hook.Action.Command)
	default:
		return nil, errclass.ErrActionInvalid.WithMessagef("hook %s has no action", hook.Name)
	}

	workdir := e.ProjectRoot
	if hook.WorkingDirectory != "" {
		resolved, err := pathutil.ResolveWithin(e.ProjectRoot, hook.WorkingDirectory)
		if err != nil {
			return nil, err
		}
		workdir = resolved
	}
	cmd.Dir = workdir

	return cmd, nil
}

// supervise waits for the child, escalating at the timeout: SIGTERM at the
// deadline, SIGKILL after the grace period.
func (e *Executor) supervise(cmd *exec.Cmd, timeout time.Duration) (bool, error) {
	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case err := <-done:
		return false, err
	case <-timer.C:
	}

	cmd.Process.Signal(syscall.SIGTERM)
	grace := time.NewTimer(e.Grace)
	defer grace.Stop()

	select {
	case <-done:
	case <-grace.C:
		cmd.Process.Kill()
		<-done
	}
	return true, nil
}

func errorResult(start time.Time, msg string) *Result {
	return &Result{
		Status:          model.ExecError,
		ExitCode:        -1,
		StartedAt:       start,
		CompletedAt:     time.Now().UTC(),
		SecurityOutcome: "ok",
		ErrorMessage:    msg,
	}
}

func capture(s string) Output {
	if s == "" {
		return Output{}
	}
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	out := Output{Total: len(lines)}
	if len(lines) > MaxOutputLines {
		out.Lines = lines[:MaxOutputLines]
		out.Truncated = true
	} else {
		out.Lines = lines
	}
	return out
}
