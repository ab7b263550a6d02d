// Package model defines the shared domain types that flow through the
// ingestion, storage, detection, and alerting subsystems. These types are
// the vocabulary every other package in this module speaks; none of them
// carry behavior beyond simple validation and serialization helpers.
package model

import (
	"fmt"
	"strings"
)

// Sample is one observation of system counters at time Ts for host Host.
// Samples are immutable once created and are never mutated after being
// handed to the ingress queue.
type Sample struct {
	Ts           int64   `json:"ts"`
	Host         string  `json:"host"`
	CPUPct       float64 `json:"cpu_pct"`
	MemPct       float64 `json:"mem_pct"`
	DiskReadBps  float64 `json:"disk_read_bps"`
	DiskWriteBps float64 `json:"disk_write_bps"`
	NetUpBps     float64 `json:"net_up_bps"`
	NetDownBps   float64 `json:"net_down_bps"`
	SwapPct      float64 `json:"swap_pct"`
	ProcCount    int64   `json:"proc_count"`
	CPUTemp      *float64 `json:"cpu_temp,omitempty"`
}

// MetricNames lists the Sample fields the feature builder, anomaly
// detector, and rule engine reason about, in a stable order.
var MetricNames = []string{
	"cpu_pct",
	"mem_pct",
	"disk_read_bps",
	"disk_write_bps",
	"net_up_bps",
	"net_down_bps",
	"swap_pct",
	"proc_count",
	"cpu_temp",
}

// Value returns the named metric's value and whether it was present
// (cpu_temp may be absent; every other metric is always present).
func (s Sample) Value(metric string) (float64, bool) {
	switch metric {
	case "cpu_pct":
		return s.CPUPct, true
	case "mem_pct":
		return s.MemPct, true
	case "disk_read_bps":
		return s.DiskReadBps, true
	case "disk_write_bps":
		return s.DiskWriteBps, true
	case "net_up_bps":
		return s.NetUpBps, true
	case "net_down_bps":
		return s.NetDownBps, true
	case "swap_pct":
		return s.SwapPct, true
	case "proc_count":
		return float64(s.ProcCount), true
	case "cpu_temp":
		if s.CPUTemp == nil {
			return 0, false
		}
		return *s.CPUTemp, true
	default:
		return 0, false
	}
}

// IOMetrics are the metrics the feature builder treats specially when
// computing burstiness (peak-to-mean ratio for bursty I/O counters).
var IOMetrics = []string{"disk_read_bps", "disk_write_bps", "net_up_bps", "net_down_bps"}

// AlgoKind tags which family trained a Model Record.
type AlgoKind string

const (
	AlgoIsolationForest  AlgoKind = "isolation_forest"
	AlgoLinearRegressor  AlgoKind = "linear_regressor"
	AlgoGradientBoost    AlgoKind = "gradient_boost"
)

// ModelRecord is a trained model persisted opaquely, keyed by Name.
type ModelRecord struct {
	Name      string         `json:"name"`
	Algo      AlgoKind       `json:"algo"`
	Version   string         `json:"version"`
	TrainedAt int64          `json:"trained_at"`
	Meta      map[string]any `json:"meta"`
	Blob      []byte         `json:"-"`
}

// EventType classifies an Event row.
type EventType string

const (
	EventAnomaly         EventType = "anomaly"
	EventForecastBreach  EventType = "forecast_breach"
	EventThreshold       EventType = "threshold"
)

// maxExplanationLen bounds Event.Explanation per the schema's ≤512 char rule.
const maxExplanationLen = 512

// Event records an anomaly, forecast breach, or threshold crossing.
type Event struct {
	ID          int64     `json:"id"`
	Ts          int64     `json:"ts"`
	Type        EventType `json:"type"`
	Score       *float64  `json:"score,omitempty"`
	MetricTags  []string  `json:"metric_tags"`
	Explanation string    `json:"explanation"`
}

// NewEvent builds an Event, deduplicating metric tags and truncating the
// explanation to the schema's length limit.
func NewEvent(ts int64, typ EventType, score *float64, tags []string, explanation string) Event {
	seen := make(map[string]struct{}, len(tags))
	dedup := make([]string, 0, len(tags))
	for _, t := range tags {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		dedup = append(dedup, t)
	}
	if len(explanation) > maxExplanationLen {
		explanation = explanation[:maxExplanationLen]
	}
	return Event{
		Ts:          ts,
		Type:        typ,
		Score:       score,
		MetricTags:  dedup,
		Explanation: explanation,
	}
}

// TagsString joins MetricTags with the delimiter used for storage.
func (e Event) TagsString() string {
	return strings.Join(e.MetricTags, ",")
}

// ParseTags splits a stored metric_tags column back into a slice.
func ParseTags(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Notification is handed to the external Notifier; delivery is
// fire-and-forget (failures are logged, never surfaced to the caller).
type Notification struct {
	ID            string `json:"id"`
	Severity      string `json:"severity"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	SourceEventID *int64 `json:"source_event_id,omitempty"`
}

func (n Notification) String() string {
	return fmt.Sprintf("[%s] %s: %s", n.Severity, n.Title, n.Body)
}
