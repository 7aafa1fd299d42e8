package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Metric is an observability counter.
type Metric struct {
	Name        string
	Type        string
	Value       float64
	Unit        string
	Description string
}

// MetricsCollector tracks counters for evaluations and sessions.
type MetricsCollector struct {
	mu      sync.Mutex
	metrics map[string]*Metric
}

func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metric),
	}
}

// Counter registers a counter, or returns the existing one with that name.
func (mc *MetricsCollector) Counter(name, desc, unit string) *Metric {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if m, exists := mc.metrics[name]; exists {
		return m
	}
	m := &Metric{
		Name:        name,
		Type:        "counter",
		Unit:        unit,
		Description: desc,
	}
	mc.metrics[name] = m
	return m
}

func (mc *MetricsCollector) Inc(name string) {
	mc.Add(name, 1)
}

// Add bumps a registered counter; unknown names are ignored.
func (mc *MetricsCollector) Add(name string, delta float64) {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if m, ok := mc.metrics[name]; ok {
		m.Value += delta
	}
}

func (mc *MetricsCollector) Value(name string) float64 {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	if m, ok := mc.metrics[name]; ok {
		return m.Value
	}
	return 0
}

// Table renders all metrics as a markdown table sorted by name.
func (mc *MetricsCollector) Table() string {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	var sb strings.Builder
	sb.WriteString("| Metric | Type | Value | Unit | Description |\n")
	sb.WriteString("|--------|------|-------|------|-------------|\n")

	names := make([]string, 0, len(mc.metrics))
	for name := range mc.metrics {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := mc.metrics[name]
		sb.WriteString(fmt.Sprintf("| %s | %s | %.0f | %s | %s |\n",
			m.Name, m.Type, m.Value, m.Unit, m.Description))
	}
	return sb.String()
}

const (
	metricEvals           = "lisp_evaluations_total"
	metricEvalErrors      = "lisp_eval_errors_total"
	metricParseErrors     = "lisp_parse_errors_total"
	metricEvalTimeouts    = "lisp_eval_timeouts_total"
	metricSessionsCreated = "lisp_sessions_created_total"
	metricSessionsExpired = "lisp_sessions_expired_total"
	metricSessionsDeleted = "lisp_sessions_deleted_total"
)

func registerMetrics(mc *MetricsCollector) {
	mc.Counter(metricEvals, "Top-level forms evaluated", "forms")
	mc.Counter(metricEvalErrors, "Forms that failed during evaluation", "forms")
	mc.Counter(metricParseErrors, "Sources rejected by the lexer or parser", "requests")
	mc.Counter(metricEvalTimeouts, "Requests stopped by the evaluation timeout", "requests")
	mc.Counter(metricSessionsCreated, "Sessions created", "sessions")
	mc.Counter(metricSessionsExpired, "Sessions dropped after the idle TTL", "sessions")
	mc.Counter(metricSessionsDeleted, "Sessions deleted by clients", "sessions")
}
