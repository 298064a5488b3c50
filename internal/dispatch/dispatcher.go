// Package dispatch orchestrates Event -> Matcher -> Executor -> Audit for
// every emitted event and owns the fail-open/fail-stop policy.
package dispatch

import (
	"fmt"
	"time"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/internal/executor"
	"github.com/taskhook-project/taskhook/internal/registry"
	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/logging"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Summary reports what one dispatch pass did.
type Summary struct {
	Events    int `json:"events"`
	Matched   int `json:"matched"`
	Executed  int `json:"executed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Blocked   int `json:"blocked"`
}

// Dispatcher runs matched hooks sequentially in declaration order and
// records every attempt before returning control. The audit sink is
// injected so tests can substitute an in-memory one.
type Dispatcher struct {
	registry    *registry.Registry
	exec        *executor.Executor
	sink        audit.Appender
	toolVersion string
}

// NewDispatcher creates a Dispatcher.
func NewDispatcher(reg *registry.Registry, exec *executor.Executor, sink audit.Appender, toolVersion string) *Dispatcher {
	return &Dispatcher{
		registry:    reg,
		exec:        exec,
		sink:        sink,
		toolVersion: toolVersion,
	}
}

// Dispatch processes events one at a time. Hooks matched to the same event
// execute sequentially in declaration order; a stop-mode failure aborts the
// remaining hooks for that event and makes the triggering operation fail.
// The returned error is the first blocking failure, or nil when every
// failure was fail-open.
func (d *Dispatcher) Dispatch(events []model.Event) (*Summary, error) {
	summary := &Summary{Events: len(events)}
	var blocked error

	for _, ev := range events {
		if err := d.dispatchOne(ev, summary); err != nil {
			summary.Blocked++
			if blocked == nil {
				blocked = err
			}
		}
	}

	return summary, blocked
}

func (d *Dispatcher) dispatchOne(ev model.Event, summary *Summary) error {
	hooks := d.registry.Match(ev)
	if len(hooks) == 0 {
		logging.Debug("no hooks matched", map[string]any{
			"event_type": string(ev.EventType),
			"event_id":   ev.EventID,
		})
		now := time.Now().UTC()
		return d.record(&model.HookExecutionRecord{
			EventType:   ev.EventType,
			EventID:     ev.EventID,
			TaskID:      taskID(ev),
			Status:      model.ExecNoHooksMatched,
			StartedAt:   now,
			CompletedAt: now,
		})
	}

	summary.Matched += len(hooks)

	for _, hook := range hooks {
		res := d.exec.Execute(hook, ev)
		summary.Executed++

		rec := buildRecord(hook, ev, res)
		rec.ToolVersion = d.toolVersion
		if err := d.record(rec); err != nil {
			return err
		}

		if res.Status == model.ExecSuccess {
			summary.Succeeded++
			logging.Debug("hook executed", map[string]any{
				"hook":       hook.Name,
				"event_type": string(ev.EventType),
			})
			continue
		}

		summary.Failed++
		logging.Warn("hook failed", map[string]any{
			"hook":       hook.Name,
			"event_type": string(ev.EventType),
			"status":     string(res.Status),
			"error":      res.ErrorMessage,
		})

		// Configuration errors and security violations count as failures
		// for fail-mode purposes, never silently ignored.
		if hook.FailMode == model.FailModeStop {
			return errclass.ErrHookBlocked.WithMessagef(
				"hook %s blocked event %s (%s): %s",
				hook.Name, ev.EventID, ev.EventType, res.Status)
		}
	}

	return nil
}

func (d *Dispatcher) record(rec *model.HookExecutionRecord) error {
	if err := d.sink.Append(rec); err != nil {
		return fmt.Errorf("append audit record: %w", err)
	}
	return nil
}

func buildRecord(hook model.HookDefinition, ev model.Event, res *executor.Result) *model.HookExecutionRecord {
	return &model.HookExecutionRecord{
		HookName:    hook.Name,
		EventType:   ev.EventType,
		EventID:     ev.EventID,
		TaskID:      taskID(ev),
		Status:      res.Status,
		ExitCode:    res.ExitCode,
		StartedAt:   res.StartedAt,
		CompletedAt: res.CompletedAt,
		Duration:    res.Duration,
		Stdout: model.OutputSummary{
			Lines:     res.Stdout.Total,
			Truncated: res.Stdout.Truncated,
		},
		Stderr: model.OutputSummary{
			Lines:     res.Stderr.Total,
			Truncated: res.Stderr.Truncated,
		},
		SecurityOutcome: res.SecurityOutcome,
		ErrorMessage:    res.ErrorMessage,
	}
}

func taskID(ev model.Event) string {
	if id, ok := ev.Context["task_id"].(string); ok {
		return id
	}
	return ""
}
