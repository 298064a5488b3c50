// Package metrics folds audit log records into fixed-period windows with
// exact duration percentiles, so results are reproducible in tests.
package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/taskhook-project/taskhook/internal/audit"
	"github.com/taskhook-project/taskhook/pkg/fsutil"
	"github.com/taskhook-project/taskhook/pkg/model"
)

// Aggregator rebuilds MetricsWindows from audit records. Windows are
// derived from the log, never updated incrementally by writers.
type Aggregator struct {
	reader *audit.Reader
	window time.Duration
}

// NewAggregator creates an Aggregator over the given audit log reader.
func NewAggregator(reader *audit.Reader, window time.Duration) *Aggregator {
	if window <= 0 {
		window = 24 * time.Hour
	}
	return &Aggregator{reader: reader, window: window}
}

// Current builds the window containing now.
func (a *Aggregator) Current(now time.Time) (*model.MetricsWindow, error) {
	start := now.UTC().Truncate(a.window)
	return a.Build(start, start.Add(a.window))
}

// Previous builds the completed window immediately before the one
// containing now, for period-over-period trend comparison.
func (a *Aggregator) Previous(now time.Time) (*model.MetricsWindow, error) {
	start := now.UTC().Truncate(a.window).Add(-a.window)
	return a.Build(start, start.Add(a.window))
}

// Build folds every execution-attempt record whose start time falls in
// [start, end) into a window. no_hooks_matched records are skipped: they
// carry no execution.
func (a *Aggregator) Build(start, end time.Time) (*model.MetricsWindow, error) {
	records, err := a.reader.List(audit.Filter{})
	if err != nil {
		return nil, fmt.Errorf("read audit records: %w", err)
	}

	w := &model.MetricsWindow{
		PeriodStart: start,
		PeriodEnd:   end,
		ByHook:      make(map[string]*model.ExecStats),
		ByEvent:     make(map[string]*model.ExecStats),
	}

	globalDurations := make([]time.Duration, 0, len(records))
	hookDurations := make(map[string][]time.Duration)
	eventDurations := make(map[string][]time.Duration)

	for _, rec := range records {
		if rec.Status == model.ExecNoHooksMatched {
			continue
		}
		if rec.StartedAt.Before(start) || !rec.StartedAt.Before(end) {
			continue
		}

		fold(&w.Global, rec)
		globalDurations = append(globalDurations, rec.Duration)

		hs := statsFor(w.ByHook, rec.HookName)
		fold(hs, rec)
		hookDurations[rec.HookName] = append(hookDurations[rec.HookName], rec.Duration)

		es := statsFor(w.ByEvent, string(rec.EventType))
		fold(es, rec)
		eventDurations[string(rec.EventType)] = append(eventDurations[string(rec.EventType)], rec.Duration)
	}

	w.Global.Durations = percentiles(globalDurations)
	for name, ds := range hookDurations {
		w.ByHook[name].Durations = percentiles(ds)
	}
	for name, ds := range eventDurations {
		w.ByEvent[name].Durations = percentiles(ds)
	}

	return w, nil
}

// Trend compares a window against its predecessor.
type Trend struct {
	Current  *model.MetricsWindow `json:"current"`
	Previous *model.MetricsWindow `json:"previous"`
	// SuccessRateDelta is current minus previous global success rate.
	SuccessRateDelta float64 `json:"success_rate_delta"`
}

// TrendAt builds the current and previous windows around now.
func (a *Aggregator) TrendAt(now time.Time) (*Trend, error) {
	curr, err := a.Current(now)
	if err != nil {
		return nil, err
	}
	prev, err := a.Previous(now)
	if err != nil {
		return nil, err
	}
	return &Trend{
		Current:          curr,
		Previous:         prev,
		SuccessRateDelta: curr.Global.SuccessRate() - prev.Global.SuccessRate(),
	}, nil
}

// WriteArtifact writes a window as a JSON roll-up document named by its
// period start. Completed windows are immutable; rewriting an identical
// period simply reproduces the same document.
func WriteArtifact(dir string, w *model.MetricsWindow) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create metrics dir: %w", err)
	}

	name := w.PeriodStart.UTC().Format("20060102T150405Z") + ".json"
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal metrics window: %w", err)
	}
	if err := fsutil.AtomicWrite(path, append(data, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write metrics artifact: %w", err)
	}
	return path, nil
}

func statsFor(m map[string]*model.ExecStats, key string) *model.ExecStats {
	if s, ok := m[key]; ok {
		return s
	}
	s := &model.ExecStats{}
	m[key] = s
	return s
}

func fold(s *model.ExecStats, rec model.HookExecutionRecord) {
	s.Executions++
	switch rec.Status {
	case model.ExecSuccess:
		s.Successes++
	case model.ExecFailed:
		s.Failures++
	case model.ExecTimeout:
		s.Timeouts++
	case model.ExecError:
		s.Errors++
	case model.ExecSecurityViolation:
		s.Violations++
	}
}

// percentiles computes exact nearest-rank percentiles over the full set
// of observed durations. No streaming estimator: period sizes are bounded
// by the rotated log slice.
func percentiles(ds []time.Duration) model.DurationStats {
	if len(ds) == 0 {
		return model.DurationStats{}
	}
	sorted := make([]time.Duration, len(ds))
	copy(sorted, ds)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	return model.DurationStats{
		P50: rank(sorted, 50),
		P95: rank(sorted, 95),
		P99: rank(sorted, 99),
	}
}

func rank(sorted []time.Duration, p int) time.Duration {
	idx := (p*len(sorted) + 99) / 100 // ceil(p*n/100)
	if idx < 1 {
		idx = 1
	}
	return sorted[idx-1]
}
