package metrics

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/pkg/model"
)

var windowStart = time.Date(2026, 8, 25, 0, 0, 0, 0, time.UTC)

func writeRecords(t *testing.T, recs []*model.HookExecutionRecord) *audit.Reader {
	t.Helper()
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	a := audit.NewFileAppender(path, 10, 3)
	for _, rec := range recs {
		require.NoError(t, a.Append(rec))
	}
	require.NoError(t, a.Close())
	return audit.NewReader(path)
}

func rec(hook string, status model.ExecStatus, offset, duration time.Duration) *model.HookExecutionRecord {
	start := windowStart.Add(offset)
	return &model.HookExecutionRecord{
		HookName:    hook,
		EventType:   model.EventTaskCompleted,
		EventID:     "evt",
		Status:      status,
		StartedAt:   start,
		CompletedAt: start.Add(duration),
		Duration:    duration,
	}
}

func TestBuild_Counters(t *testing.T) {
	reader := writeRecords(t, []*model.HookExecutionRecord{
		rec("notify", model.ExecSuccess, time.Minute, 10*time.Millisecond),
		rec("notify", model.ExecFailed, 2*time.Minute, 20*time.Millisecond),
		rec("notify", model.ExecTimeout, 3*time.Minute, 30*time.Millisecond),
		rec("deploy", model.ExecSuccess, 4*time.Minute, 40*time.Millisecond),
		rec("deploy", model.ExecSecurityViolation, 5*time.Minute, 0),
	})

	a := NewAggregator(reader, 24*time.Hour)
	w, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)

	assert.Equal(t, 5, w.Global.Executions)
	assert.Equal(t, 2, w.Global.Successes)
	assert.Equal(t, 1, w.Global.Failures)
	assert.Equal(t, 1, w.Global.Timeouts)
	assert.Equal(t, 1, w.Global.Violations)

	require.Contains(t, w.ByHook, "notify")
	assert.Equal(t, 3, w.ByHook["notify"].Executions)
	require.Contains(t, w.ByEvent, "task.completed")
	assert.Equal(t, 5, w.ByEvent["task.completed"].Executions)
}

func TestBuild_SkipsRecordsOutsideWindow(t *testing.T) {
	reader := writeRecords(t, []*model.HookExecutionRecord{
		rec("notify", model.ExecSuccess, -time.Hour, 10*time.Millisecond),
		rec("notify", model.ExecSuccess, time.Hour, 10*time.Millisecond),
		rec("notify", model.ExecSuccess, 25*time.Hour, 10*time.Millisecond),
	})

	a := NewAggregator(reader, 24*time.Hour)
	w, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, w.Global.Executions)
}

func TestBuild_SkipsNoMatchRecords(t *testing.T) {
	reader := writeRecords(t, []*model.HookExecutionRecord{
		rec("", model.ExecNoHooksMatched, time.Minute, 0),
	})

	a := NewAggregator(reader, 24*time.Hour)
	w, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, w.Global.Executions)
}

func TestBuild_ExactPercentiles(t *testing.T) {
	var recs []*model.HookExecutionRecord
	for i := 1; i <= 100; i++ {
		recs = append(recs, rec("notify", model.ExecSuccess,
			time.Duration(i)*time.Second, time.Duration(i)*time.Millisecond))
	}
	reader := writeRecords(t, recs)

	a := NewAggregator(reader, 24*time.Hour)
	w, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)

	// Nearest-rank over 1..100ms.
	assert.Equal(t, 50*time.Millisecond, w.Global.Durations.P50)
	assert.Equal(t, 95*time.Millisecond, w.Global.Durations.P95)
	assert.Equal(t, 99*time.Millisecond, w.Global.Durations.P99)
}

func TestBuild_PercentilesSingleSample(t *testing.T) {
	reader := writeRecords(t, []*model.HookExecutionRecord{
		rec("notify", model.ExecSuccess, time.Minute, 7*time.Millisecond),
	})

	a := NewAggregator(reader, 24*time.Hour)
	w, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 7*time.Millisecond, w.Global.Durations.P50)
	assert.Equal(t, 7*time.Millisecond, w.Global.Durations.P99)
}

func TestBuild_Reproducible(t *testing.T) {
	reader := writeRecords(t, []*model.HookExecutionRecord{
		rec("notify", model.ExecSuccess, time.Minute, 10*time.Millisecond),
		rec("notify", model.ExecFailed, 2*time.Minute, 30*time.Millisecond),
	})

	a := NewAggregator(reader, 24*time.Hour)
	first, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	second, err := a.Build(windowStart, windowStart.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTrendAt(t *testing.T) {
	now := windowStart.Add(12 * time.Hour)
	reader := writeRecords(t, []*model.HookExecutionRecord{
		// Previous window: one failure out of two.
		rec("notify", model.ExecSuccess, -23*time.Hour, 10*time.Millisecond),
		rec("notify", model.ExecFailed, -22*time.Hour, 10*time.Millisecond),
		// Current window: all green.
		rec("notify", model.ExecSuccess, time.Hour, 10*time.Millisecond),
		rec("notify", model.ExecSuccess, 2*time.Hour, 10*time.Millisecond),
	})

	a := NewAggregator(reader, 24*time.Hour)
	trend, err := a.TrendAt(now)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, trend.SuccessRateDelta, 1e-9)
}

func TestWriteArtifact(t *testing.T) {
	dir := t.TempDir()
	w := &model.MetricsWindow{
		PeriodStart: windowStart,
		PeriodEnd:   windowStart.Add(24 * time.Hour),
		ByHook:      map[string]*model.ExecStats{},
		ByEvent:     map[string]*model.ExecStats{},
	}

	path, err := WriteArtifact(dir, w)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "20260825T000000Z.json"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var loaded model.MetricsWindow
	require.NoError(t, json.Unmarshal(data, &loaded))
	assert.True(t, loaded.PeriodStart.Equal(windowStart))
}
