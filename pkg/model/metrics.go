package model

import "time"

// DurationStats holds exact percentiles over a window's observed durations.
type DurationStats struct {
	P50 time.Duration `json:"p50_ns"`
	P95 time.Duration `json:"p95_ns"`
	P99 time.Duration `json:"p99_ns"`
}

// ExecStats are monotonic counters within a single window.
type ExecStats struct {
	Executions int `json:"executions"`
	Successes  int `json:"successes"`
	Failures   int `json:"failures"`
	Timeouts   int `json:"timeouts"`
	Errors     int `json:"errors"`
	Violations int `json:"security_violations"`

	Durations DurationStats `json:"durations"`
}

// SuccessRate returns successes over executions, or 1 for an empty window.
func (s ExecStats) SuccessRate() float64 {
	if s.Executions == 0 {
		return 1
	}
	return float64(s.Successes) / float64(s.Executions)
}

// MetricsWindow is an immutable aggregate over a fixed period, rebuilt from
// audit log records and never hand-edited.
type MetricsWindow struct {
	PeriodStart time.Time `json:"period_start"`
	PeriodEnd   time.Time `json:"period_end"`

	Global  ExecStats             `json:"global"`
	ByHook  map[string]*ExecStats `json:"by_hook"`
	ByEvent map[string]*ExecStats `json:"by_event_type"`
}
