package audit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Filter selects records when listing the audit log.
type Filter struct {
	HookName  string
	EventType string
	Status    string
	Since     time.Time
	Limit     int
}

// Reader provides query access over the active audit log file.
type Reader struct {
	path string
}

// NewReader creates a Reader over the given audit log path.
func NewReader(path string) *Reader {
	return &Reader{path: path}
}

// List returns records matching the filter, oldest first. A missing log
// file yields an empty list.
func (r *Reader) List(f Filter) ([]model.HookExecutionRecord, error) {
	all, err := r.readAll()
	if err != nil {
		return nil, err
	}

	var out []model.HookExecutionRecord
	for _, rec := range all {
		if f.HookName != "" && rec.HookName != f.HookName {
			continue
		}
		if f.EventType != "" && string(rec.EventType) != f.EventType {
			continue
		}
		if f.Status != "" && string(rec.Status) != f.Status {
			continue
		}
		if !f.Since.IsZero() && rec.StartedAt.Before(f.Since) {
			continue
		}
		out = append(out, rec)
	}

	if f.Limit > 0 && len(out) > f.Limit {
		out = out[len(out)-f.Limit:]
	}
	return out, nil
}

// Tail returns the last n records.
func (r *Reader) Tail(n int) ([]model.HookExecutionRecord, error) {
	return r.List(Filter{Limit: n})
}

// Verify walks the hash chain and recomputes every record hash. The first
// record's prev_hash is accepted as-is: it may point into a rotated
// generation. Returns the zero-based index of the first broken record.
func (r *Reader) Verify() (int, error) {
	all, err := r.readAll()
	if err != nil {
		return -1, err
	}

	for i := range all {
		expected, err := ComputeRecordHash(&all[i])
		if err != nil {
			return i, err
		}
		if all[i].RecordHash != expected {
			return i, errclass.ErrAuditChainBroken.WithMessagef(
				"record %d hash mismatch", i)
		}
		if i > 0 && all[i].PrevHash != all[i-1].RecordHash {
			return i, errclass.ErrAuditChainBroken.WithMessagef(
				"record %d prev_hash does not link to record %d", i, i-1)
		}
	}
	return -1, nil
}

func (r *Reader) readAll() ([]model.HookExecutionRecord, error) {
	file, err := os.Open(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	defer file.Close()

	var records []model.HookExecutionRecord
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec model.HookExecutionRecord
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return nil, fmt.Errorf("malformed audit record: %w", err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan audit log: %w", err)
	}
	return records, nil
}
