package model

// DeltaKind identifies the kind of detected change.
type DeltaKind string

const (
	DeltaCreated       DeltaKind = "created"
	DeltaStatusChanged DeltaKind = "status_changed"
	DeltaACChecked     DeltaKind = "ac_checked"
	DeltaACUnchecked   DeltaKind = "ac_unchecked"
)

// Delta is a single detected semantic change for one work item between
// two revisions. A status transition and acceptance-item changes for the
// same id in the same revision produce independent Deltas.
type Delta struct {
	Kind DeltaKind `json:"kind"`
	ID   string    `json:"id"`
	Path string    `json:"path,omitempty"`

	// Status transition fields (status_changed only).
	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	// Completed is set when ToStatus is the terminal status.
	Completed bool `json:"completed,omitempty"`

	// Created fields.
	Status string `json:"status,omitempty"`

	// Acceptance-item fields (ac_checked / ac_unchecked).
	CheckedDelta int `json:"checked_delta,omitempty"`
	CheckedCount int `json:"checked_count,omitempty"`
	TotalCount   int `json:"total_count,omitempty"`
}
