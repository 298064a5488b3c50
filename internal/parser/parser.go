// Package parser turns versioned work-item documents into structured
// snapshots. Documents that do not represent a tracked work item are
// skipped, never errored: unrelated files may share the tracked directory.
package parser

import (
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/taskhook-project/taskhook/pkg/logging"
	"github.com/taskhook-project/taskhook/pkg/model"
	"github.com/taskhook-project/taskhook/pkg/pathutil"
)

var (
	headingRegex = regexp.MustCompile(`^#\s+(\S+?)(?::\s*.*)?$`)
	fieldRegex   = regexp.MustCompile(`^\*\*(\w+):\*\*\s*(.*)$`)
	checkRegex   = regexp.MustCompile(`^-\s+\[([ xX])\]\s+(.*)$`)
	acHeading    = regexp.MustCompile(`(?i)^##\s+acceptance\s+criteria\s*$`)
)

// Parse parses one work-item document. It returns nil (not an error) when
// the document should be skipped: either it carries no valid work-item id,
// or its metadata is unparseable. Skips are logged at debug level.
func Parse(path, content string) *model.Snapshot {
	id, ok := extractID(path, content)
	if !ok {
		logging.Debug("skipping document: no valid work-item id", map[string]any{"path": path})
		return nil
	}

	snap := &model.Snapshot{ID: id, Path: path}

	inAC := false
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, "\r")
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "##") {
			inAC = acHeading.MatchString(trimmed)
			continue
		}

		if inAC {
			if m := checkRegex.FindStringSubmatch(trimmed); m != nil {
				snap.AcceptanceItems = append(snap.AcceptanceItems, model.AcceptanceItem{
					Index:   len(snap.AcceptanceItems) + 1,
					Text:    strings.TrimSpace(m[2]),
					Checked: m[1] != " ",
				})
			}
			continue
		}

		if m := fieldRegex.FindStringSubmatch(trimmed); m != nil {
			value := strings.TrimSpace(m[2])
			switch strings.ToLower(m[1]) {
			case "status":
				snap.Status = value
			case "priority":
				snap.Priority = value
			case "labels":
				snap.Labels = splitLabels(value)
			}
		}
	}

	if snap.Status == "" {
		// Valid id but unparseable metadata: parse failure for this one
		// document only.
		logging.Debug("skipping document: missing status field", map[string]any{"path": path, "id": id})
		return nil
	}

	return snap
}

// ParseSet parses a full document set (path -> content) into a snapshot
// set keyed by id. Duplicate ids keep the first occurrence in path order.
func ParseSet(docs map[string]string) model.SnapshotSet {
	paths := make([]string, 0, len(docs))
	for p := range docs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	set := make(model.SnapshotSet)
	for _, p := range paths {
		snap := Parse(p, docs[p])
		if snap == nil {
			continue
		}
		if _, exists := set[snap.ID]; exists {
			logging.Warn("duplicate work-item id, keeping first occurrence", map[string]any{
				"id":   snap.ID,
				"path": p,
			})
			continue
		}
		set[snap.ID] = snap
	}
	return set
}

// extractID pulls the candidate id from the first ATX heading, falling
// back to the file basename, and checks it against the strict grammar.
func extractID(path, content string) (string, bool) {
	candidate := ""
	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(strings.TrimRight(line, "\r"))
		if m := headingRegex.FindStringSubmatch(trimmed); m != nil {
			candidate = strings.TrimSuffix(m[1], ":")
			break
		}
	}
	if candidate == "" {
		base := filepath.Base(path)
		candidate = strings.TrimSuffix(base, filepath.Ext(base))
	}

	candidate = pathutil.NormalizeID(candidate)
	if err := pathutil.ValidateWorkItemID(candidate); err != nil {
		return "", false
	}
	return candidate, true
}

func splitLabels(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			labels = append(labels, p)
		}
	}
	return labels
}
