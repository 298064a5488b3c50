package model

// AcceptanceItem is one entry in a work item's ordered acceptance checklist.
type AcceptanceItem struct {
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Checked bool   `json:"checked"`
}

// Snapshot is the point-in-time view of one tracked work item at a revision.
type Snapshot struct {
	ID              string           `json:"id"`
	Status          string           `json:"status"`
	Priority        string           `json:"priority,omitempty"`
	Labels          []string         `json:"labels,omitempty"`
	AcceptanceItems []AcceptanceItem `json:"acceptance_items,omitempty"`
	Path            string           `json:"path"`
}

// CheckedCount returns the number of checked acceptance items.
func (s *Snapshot) CheckedCount() int {
	n := 0
	for _, item := range s.AcceptanceItems {
		if item.Checked {
			n++
		}
	}
	return n
}

// SnapshotSet is a set of snapshots keyed by work-item id.
type SnapshotSet map[string]*Snapshot
