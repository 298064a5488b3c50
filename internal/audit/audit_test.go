package audit_test

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/pkg/errclass"
	"github.com/taskhook-project/taskhook/pkg/model"
)

func record(hook string, status model.ExecStatus) *model.HookExecutionRecord {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	return &model.HookExecutionRecord{
		HookName:    hook,
		EventType:   model.EventTaskCompleted,
		EventID:     "evt-" + hook,
		TaskID:      "task-001",
		Status:      status,
		StartedAt:   now,
		CompletedAt: now.Add(40 * time.Millisecond),
		Duration:    40 * time.Millisecond,
		ToolVersion: "1.0.0",
	}
}

func TestFileAppender_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := audit.NewFileAppender(path, 10, 3)
	defer a.Close()

	require.NoError(t, a.Append(record("notify", model.ExecSuccess)))

	file, err := os.Open(path)
	require.NoError(t, err)
	defer file.Close()

	scanner := bufio.NewScanner(file)
	require.True(t, scanner.Scan())

	var rec model.HookExecutionRecord
	require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
	assert.Equal(t, "notify", rec.HookName)
	assert.Equal(t, model.ExecSuccess, rec.Status)
	assert.Equal(t, model.RecordVersionCurrent, rec.RecordVersion)
	assert.NotEmpty(t, rec.RecordHash)
}

func TestFileAppender_HashChain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := audit.NewFileAppender(path, 10, 3)
	defer a.Close()

	require.NoError(t, a.Append(record("first", model.ExecSuccess)))
	require.NoError(t, a.Append(record("second", model.ExecFailed)))

	recs, err := audit.NewReader(path).List(audit.Filter{})
	require.NoError(t, err)
	require.Len(t, recs, 2)

	assert.Equal(t, model.HashValue(""), recs[0].PrevHash)
	assert.Equal(t, recs[0].RecordHash, recs[1].PrevHash)
}

func TestFileAppender_ChainContinuesAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")

	a := audit.NewFileAppender(path, 10, 3)
	require.NoError(t, a.Append(record("first", model.ExecSuccess)))
	require.NoError(t, a.Close())

	b := audit.NewFileAppender(path, 10, 3)
	require.NoError(t, b.Append(record("second", model.ExecSuccess)))
	require.NoError(t, b.Close())

	idx, err := audit.NewReader(path).Verify()
	require.NoError(t, err)
	assert.Equal(t, -1, idx)
}

func TestReader_Filters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := audit.NewFileAppender(path, 10, 3)
	defer a.Close()

	require.NoError(t, a.Append(record("notify", model.ExecSuccess)))
	require.NoError(t, a.Append(record("deploy", model.ExecFailed)))
	require.NoError(t, a.Append(record("notify", model.ExecTimeout)))

	r := audit.NewReader(path)

	recs, err := r.List(audit.Filter{HookName: "notify"})
	require.NoError(t, err)
	assert.Len(t, recs, 2)

	recs, err = r.List(audit.Filter{Status: string(model.ExecFailed)})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "deploy", recs[0].HookName)

	recs, err = r.Tail(1)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, model.ExecTimeout, recs[0].Status)
}

func TestReader_MissingFileIsEmpty(t *testing.T) {
	r := audit.NewReader(filepath.Join(t.TempDir(), "absent.jsonl"))
	recs, err := r.List(audit.Filter{})
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestVerify_DetectsTampering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := audit.NewFileAppender(path, 10, 3)
	require.NoError(t, a.Append(record("first", model.ExecSuccess)))
	require.NoError(t, a.Append(record("second", model.ExecFailed)))
	require.NoError(t, a.Close())

	// Flip the recorded status of the second line.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	tampered := strings.Replace(string(data), `"status":"failed"`, `"status":"success"`, 1)
	require.NotEqual(t, string(data), tampered)
	require.NoError(t, os.WriteFile(path, []byte(tampered), 0o644))

	idx, err := audit.NewReader(path).Verify()
	require.Error(t, err)
	assert.True(t, errors.Is(err, errclass.ErrAuditChainBroken))
	assert.Equal(t, 1, idx)
}

func TestMemoryAppender(t *testing.T) {
	m := &audit.MemoryAppender{}
	require.NoError(t, m.Append(record("notify", model.ExecSuccess)))
	require.Len(t, m.Records, 1)
	assert.Equal(t, model.RecordVersionCurrent, m.Records[0].RecordVersion)
}
