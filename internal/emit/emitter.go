// Package emit maps detected deltas to canonical events.
package emit

import (
	"time"

	"github.com/google/uuid"

	"github.com/taskhook-project/taskhook/pkg/model"
)

// ToolName identifies this tool in event metadata.
const ToolName = "taskhook"

// Emitter converts deltas into canonical, versioned events. Apart from the
// generated event_id and timestamp, emission is a pure function of the
// delta list: re-running detection over the same revision pair yields the
// same event types and context both times.
type Emitter struct {
	toolVersion string
	now         func() time.Time
	newID       func() string
}

// NewEmitter creates an Emitter stamping events with the given tool version.
func NewEmitter(toolVersion string) *Emitter {
	return &Emitter{
		toolVersion: toolVersion,
		now:         time.Now,
		newID:       func() string { return uuid.NewString() },
	}
}

// Emit maps each delta to one or more events, preserving delta order. A
// status_changed delta transitioning to the terminal status emits both a
// task.status_changed and a task.completed event, in that order, so hooks
// may subscribe to either granularity.
func (e *Emitter) Emit(deltas []model.Delta) []model.Event {
	var events []model.Event
	for _, d := range deltas {
		switch d.Kind {
		case model.DeltaCreated:
			events = append(events, e.event(model.EventTaskCreated, map[string]any{
				"task_id": d.ID,
				"status":  d.Status,
				"path":    d.Path,
			}))

		case model.DeltaStatusChanged:
			events = append(events, e.event(model.EventTaskStatusChanged, map[string]any{
				"task_id":     d.ID,
				"from_status": d.FromStatus,
				"to_status":   d.ToStatus,
				"path":        d.Path,
			}))
			if d.Completed {
				events = append(events, e.event(model.EventTaskCompleted, map[string]any{
					"task_id":     d.ID,
					"from_status": d.FromStatus,
					"path":        d.Path,
				}))
			}

		case model.DeltaACChecked:
			events = append(events, e.event(model.EventTaskACChecked, acContext(d)))

		case model.DeltaACUnchecked:
			events = append(events, e.event(model.EventTaskACUnchecked, acContext(d)))
		}
	}
	return events
}

func (e *Emitter) event(eventType model.EventType, context map[string]any) model.Event {
	return model.Event{
		SchemaVersion: model.SchemaVersion,
		EventType:     eventType,
		EventID:       e.newID(),
		Timestamp:     e.now().UTC(),
		Context:       context,
		Metadata: model.EventMetadata{
			Tool:        ToolName,
			ToolVersion: e.toolVersion,
		},
	}
}

func acContext(d model.Delta) map[string]any {
	return map[string]any{
		"task_id":       d.ID,
		"checked_delta": d.CheckedDelta,
		"checked_count": d.CheckedCount,
		"total_count":   d.TotalCount,
		"path":          d.Path,
	}
}
