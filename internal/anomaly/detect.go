package anomaly

import (
	"fmt"
	"math"
	"sort"

	"github.com/oashraff/sysmon-ai/internal/features"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// topKExplanation is the number of highest-magnitude z-scores included
// in an anomaly Event's explanation (spec §4.G default 3).
const topKExplanation = 3

// Detect scores samples against a trained Model Record and emits an
// Event for every row whose score exceeds the calibrated threshold
// (spec §4.G). Samples must cover at least cfg.LongWindow+5 ticks.
func Detect(samples []model.Sample, rec model.ModelRecord, cfg Config) ([]model.Event, error) {
	if rec.Name == "" || len(rec.Blob) == 0 {
		return nil, sysmonerr.ErrModelNotTrained
	}
	tm, err := unmarshalModel(rec.Blob)
	if err != nil {
		return nil, err
	}

	matrix, err := features.BuildWithImpute(samples, cfg.ShortWindow, cfg.LongWindow, &tm.Scaler.CPUTempImpute)
	if err != nil {
		return nil, err
	}
	if !sameColumns(matrix.Columns, tm.Columns) {
		return nil, fmt.Errorf("anomaly: %w: model has %d columns, builder produced %d",
			sysmonerr.ErrModelStale, len(tm.Columns), len(matrix.Columns))
	}

	var events []model.Event
	for i, row := range matrix.Rows {
		scaled := tm.Scaler.Transform(row)
		score := tm.Forest.score(scaled)
		if score <= tm.Threshold {
			continue
		}

		tags, explanation := explain(tm.Columns, scaled)
		s := score
		events = append(events, model.NewEvent(matrix.Ts[i], model.EventAnomaly, &s, tags, explanation))
	}
	return events, nil
}

func sameColumns(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type zscore struct {
	column string
	value  float64
}

// explain returns the deduplicated base metric names and a formatted
// explanation string for the topKExplanation highest-magnitude
// z-scores in a scaled row (spec §4.G).
func explain(columns []string, scaled []float64) ([]string, string) {
	scores := make([]zscore, len(columns))
	for i, c := range columns {
		scores[i] = zscore{column: c, value: scaled[i]}
	}
	sort.Slice(scores, func(i, j int) bool {
		return math.Abs(scores[i].value) > math.Abs(scores[j].value)
	})

	k := topKExplanation
	if k > len(scores) {
		k = len(scores)
	}

	var tags []string
	seen := make(map[string]struct{})
	explanation := ""
	for i := 0; i < k; i++ {
		metric := baseMetric(scores[i].column)
		if _, ok := seen[metric]; !ok {
			seen[metric] = struct{}{}
			tags = append(tags, metric)
		}
		if i > 0 {
			explanation += ", "
		}
		explanation += fmt.Sprintf("metric=%s zscore=%+.2f", metric, scores[i].value)
	}
	return tags, explanation
}

// baseMetric strips a feature column's suffix (_lag1, _roll_mean_short,
// etc.) back to its underlying model.MetricNames entry.
func baseMetric(column string) string {
	best := column
	bestLen := -1
	for _, m := range model.MetricNames {
		if len(column) >= len(m) && column[:len(m)] == m && len(m) > bestLen {
			best = m
			bestLen = len(m)
		}
	}
	return best
}
