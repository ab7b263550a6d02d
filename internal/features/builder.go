// Package features turns a contiguous window of Samples into a dense
// feature matrix: lags, rolling statistics, EMAs, slope, and burstiness
// ratios for I/O metrics, per spec §3/4.F. Deterministic and pure: no
// global state, no clock reads.
package features

import (
	"fmt"
	"math"

	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// lagOffsets are the fixed tick offsets a feature row looks back.
var lagOffsets = []int{1, 2, 3, 4, 5}

// emaAlphas are the fixed smoothing constants used for EMA columns.
var emaAlphas = []float64{0.1, 0.3}

const epsilon = 1e-9

// Matrix is the output of Build: a dense feature matrix with stable
// column names and the timestamp each row corresponds to.
type Matrix struct {
	Columns []string
	Rows    [][]float64
	Ts      []int64
}

// Build constructs feature rows for every position in samples that has
// at least W_l preceding ticks plus the 5 lag ticks, i.e. it requires
// len(samples) >= W_l + 5 (spec §4.F). Samples must already be in
// ascending ts order; Build does not sort or deduplicate. The cpu_temp
// imputation median is computed fresh from samples, matching training
// usage where no scaler yet exists; use BuildWithImpute at inference
// time to apply the value frozen in a trained Scaler instead.
func Build(samples []model.Sample, shortWindow, longWindow int) (Matrix, error) {
	return BuildWithImpute(samples, shortWindow, longWindow, nil)
}

// BuildWithImpute is Build, but fills absent cpu_temp readings with
// cpuTempImpute when non-nil instead of recomputing a median from
// samples. Inference must use the median captured in the trained
// Scaler (spec §9 open question b) rather than one computed from
// whatever samples happen to be in the current window.
func BuildWithImpute(samples []model.Sample, shortWindow, longWindow int, cpuTempImpute *float64) (Matrix, error) {
	if len(samples) < longWindow+5 {
		return Matrix{}, fmt.Errorf("features: %w: have %d rows, need at least %d",
			sysmonerr.ErrInsufficientData, len(samples), longWindow+5)
	}

	var imputed []model.Sample
	if cpuTempImpute != nil {
		imputed = imputeWith(samples, *cpuTempImpute)
	} else {
		imputed = imputeMissing(samples)
	}
	columns := columnNames()

	var rows [][]float64
	var ts []int64
	start := longWindow + 5 - 1
	for i := start; i < len(samples); i++ {
		row := buildRow(imputed, i, shortWindow, longWindow)
		rows = append(rows, row)
		ts = append(ts, samples[i].Ts)
	}

	return Matrix{Columns: columns, Rows: rows, Ts: ts}, nil
}

// columnNames returns the stable, sorted-by-metric column order: for
// each metric in model.MetricNames, its lags, rolling stats, EMAs,
// slope, and (for I/O metrics) burstiness, in that fixed sequence.
func columnNames() []string {
	var cols []string
	for _, metric := range model.MetricNames {
		cols = append(cols, MetricColumnNames(metric)...)
	}
	return cols
}

// MetricBlock computes one metric's feature block (lags, rolling
// mean/std over the short and long windows, EMAs, slope, and —
// for I/O metrics — burstiness) from a raw value series ending at the
// tick being featured. Shared by Build (which calls it once per metric
// per row) and by the forecaster's iterative multi-step projection
// (which calls it once per projected tick on a rolling window of
// actual-then-predicted values), so both agree on exactly what a
// metric's columns mean.
func MetricBlock(series []float64, shortWindow int, isIO bool) []float64 {
	var block []float64
	for _, lag := range lagOffsets {
		idx := len(series) - 1 - lag
		if idx < 0 {
			block = append(block, series[0])
		} else {
			block = append(block, series[idx])
		}
	}

	shortSlice := tail(series, shortWindow)
	longSlice := series
	meanShort, stdShort := meanStd(shortSlice)
	meanLong, stdLong := meanStd(longSlice)
	block = append(block, meanShort, stdShort, meanLong, stdLong)

	for _, alpha := range emaAlphas {
		block = append(block, ema(longSlice, alpha))
	}

	block = append(block, slope(longSlice))

	if isIO {
		block = append(block, burstiness(shortSlice, longSlice))
	}
	return block
}

// MetricColumnNames returns the column names for one metric's block, in
// the same order MetricBlock produces values.
func MetricColumnNames(metric string) []string {
	isIO := isIOMetric(metric)
	var cols []string
	for _, lag := range lagOffsets {
		cols = append(cols, fmt.Sprintf("%s_lag%d", metric, lag))
	}
	cols = append(cols, metric+"_roll_mean_short", metric+"_roll_std_short")
	cols = append(cols, metric+"_roll_mean_long", metric+"_roll_std_long")
	for _, alpha := range emaAlphas {
		cols = append(cols, fmt.Sprintf("%s_ema_%.1f", metric, alpha))
	}
	cols = append(cols, metric+"_slope_long")
	if isIO {
		cols = append(cols, metric+"_burstiness")
	}
	return cols
}

// IsIOMetric reports whether metric is one of the I/O counters that
// carries a burstiness column.
func IsIOMetric(metric string) bool {
	return isIOMetric(metric)
}

func isIOMetric(metric string) bool {
	for _, m := range model.IOMetrics {
		if m == metric {
			return true
		}
	}
	return false
}

// buildRow builds one feature row for samples[i], looking back at most
// longWindow ticks.
func buildRow(samples []model.Sample, i, shortWindow, longWindow int) []float64 {
	var row []float64
	for _, metric := range model.MetricNames {
		series := extractSeries(samples, metric, i, longWindow)
		row = append(row, MetricBlock(series, shortWindow, isIOMetric(metric))...)
	}
	return row
}

// extractSeries returns up to longWindow values of metric ending at and
// including index i.
func extractSeries(samples []model.Sample, metric string, i, longWindow int) []float64 {
	start := i - longWindow + 1
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, i-start+1)
	for j := start; j <= i; j++ {
		v, _ := samples[j].Value(metric)
		out = append(out, v)
	}
	return out
}

func tail(series []float64, n int) []float64 {
	if n >= len(series) {
		return series
	}
	return series[len(series)-n:]
}

func meanStd(xs []float64) (mean, std float64) {
	if len(xs) == 0 {
		return 0, 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	mean = sum / float64(len(xs))
	var sqSum float64
	for _, x := range xs {
		d := x - mean
		sqSum += d * d
	}
	std = math.Sqrt(sqSum / float64(len(xs)))
	return mean, std
}

func ema(xs []float64, alpha float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	val := xs[0]
	for _, x := range xs[1:] {
		val = alpha*x + (1-alpha)*val
	}
	return val
}

// slope fits a least-squares line y = a + b*t over evenly spaced ticks
// 0..n-1 and returns b.
func slope(xs []float64) float64 {
	n := len(xs)
	if n < 2 {
		return 0
	}
	var sumT, sumY, sumTY, sumTT float64
	for i, y := range xs {
		t := float64(i)
		sumT += t
		sumY += y
		sumTY += t * y
		sumTT += t * t
	}
	fn := float64(n)
	denom := fn*sumTT - sumT*sumT
	if denom == 0 {
		return 0
	}
	return (fn*sumTY - sumT*sumY) / denom
}

// burstiness is the peak-to-mean ratio that highlights I/O spikes
// (spec §3): max over the short window divided by the long-window mean.
func burstiness(shortSlice, longSlice []float64) float64 {
	if len(shortSlice) == 0 {
		return 0
	}
	peak := shortSlice[0]
	for _, v := range shortSlice {
		if v > peak {
			peak = v
		}
	}
	meanLong, _ := meanStd(longSlice)
	return peak / (meanLong + epsilon)
}
