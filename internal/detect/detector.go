// Package detect compares two snapshot sets and produces semantic deltas.
package detect

import (
	"sort"

	"github.com/taskhook-project/taskhook/pkg/logging"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Detector computes deltas between a before and after snapshot set.
type Detector struct {
	terminalStatus string
}

// NewDetector creates a Detector. terminalStatus is the status value
// representing completion; empty falls back to the default.
func NewDetector(terminalStatus string) *Detector {
	if terminalStatus == "" {
		terminalStatus = model.DefaultTerminalStatus
	}
	return &Detector{terminalStatus: terminalStatus}
}

// Detect returns the deltas between before and after, ordered by ascending
// work-item id. A status transition and acceptance-item changes for the
// same id produce independent deltas. An empty result is the idempotent
// no-op path and is logged explicitly so it is distinguishable from a
// detection failure.
func (d *Detector) Detect(before, after model.SnapshotSet) []model.Delta {
	ids := make([]string, 0, len(after))
	for id := range after {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var deltas []model.Delta
	for _, id := range ids {
		curr := after[id]
		prev, existed := before[id]

		if !existed {
			deltas = append(deltas, model.Delta{
				Kind:   model.DeltaCreated,
				ID:     id,
				Path:   curr.Path,
				Status: curr.Status,
			})
			continue
		}

		if prev.Status != curr.Status {
			deltas = append(deltas, model.Delta{
				Kind:       model.DeltaStatusChanged,
				ID:         id,
				Path:       curr.Path,
				FromStatus: prev.Status,
				ToStatus:   curr.Status,
				Completed:  curr.Status == d.terminalStatus,
			})
		}

		checkedDelta := curr.CheckedCount() - prev.CheckedCount()
		switch {
		case checkedDelta > 0:
			deltas = append(deltas, model.Delta{
				Kind:         model.DeltaACChecked,
				ID:           id,
				Path:         curr.Path,
				CheckedDelta: checkedDelta,
				CheckedCount: curr.CheckedCount(),
				TotalCount:   len(curr.AcceptanceItems),
			})
		case checkedDelta < 0:
			deltas = append(deltas, model.Delta{
				Kind:         model.DeltaACUnchecked,
				ID:           id,
				Path:         curr.Path,
				CheckedDelta: checkedDelta,
				CheckedCount: curr.CheckedCount(),
				TotalCount:   len(curr.AcceptanceItems),
			})
		}
	}

	if len(deltas) == 0 {
		logging.Info("no changes detected", map[string]any{
			"before_items": len(before),
			"after_items":  len(after),
		})
	}

	return deltas
}
