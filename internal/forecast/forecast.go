package forecast

import (
	"fmt"
	"sort"
	"time"

	"github.com/oashraff/sysmon-ai/internal/features"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// modelVersion is stamped on every forecast Model Record. As in the
// anomaly package, Forecast does not compare it with a loaded record's
// Version; a stale model is caught by its column list only.
const modelVersion = "1.0.0"

// minTrainingPairs is the minimum number of one-step-ahead (features,
// next value) pairs required to fit a forecaster.
const minTrainingPairs = 10

// residualLoPercentile/residualHiPercentile bound the confidence band
// on one-step residuals (spec §4.H: "5th and 95th percentiles").
const (
	residualLoPercentile = 0.05
	residualHiPercentile = 0.95
)

// Config parameterizes training and inference, mirroring the
// configuration surface's forecast section.
type Config struct {
	ShortWindow int
	LongWindow  int

	// HorizonSeconds bounds how far forward Forecast projects before
	// giving up and reporting an infinite ETA (spec default 72h).
	HorizonSeconds float64
	// TickSeconds is the sampling cadence, used to convert projected
	// tick counts into seconds.
	TickSeconds float64

	Algo         model.AlgoKind // AlgoLinearRegressor or AlgoGradientBoost
	NStumps      int
	LearningRate float64
}

// DefaultConfig matches the configuration surface's documented defaults.
func DefaultConfig() Config {
	return Config{
		ShortWindow: 5, LongWindow: 30,
		HorizonSeconds: 72 * 3600, TickSeconds: 1.0,
		Algo: model.AlgoLinearRegressor, NStumps: 50, LearningRate: 0.1,
	}
}

// ModelName returns the Model Record name a metric's forecaster is
// persisted under.
func ModelName(metric string) string {
	return "forecast_" + metric
}

// trainedForecastModel is the blob persisted in a forecast Model
// Record: a one-tick-ahead regressor over one metric's own feature
// block, plus the residual band used to build the confidence interval
// at inference.
type trainedForecastModel struct {
	Metric      string       `json:"metric"`
	Columns     []string     `json:"columns"`
	Algo        model.AlgoKind `json:"algo"`
	Linear      *linearModel `json:"linear,omitempty"`
	GBRT        *gbrtModel   `json:"gbrt,omitempty"`
	ResidualLo  float64      `json:"residual_lo"`
	ResidualHi  float64      `json:"residual_hi"`
	TickSeconds float64      `json:"tick_seconds"`
}

func (tm *trainedForecastModel) predict(feat []float64) float64 {
	if tm.GBRT != nil {
		return tm.GBRT.predict(feat)
	}
	return tm.Linear.predict(feat)
}

// Train fits a one-tick-ahead regressor for metric from historical
// Samples (spec §4.H). Samples must be in ascending ts order.
func Train(samples []model.Sample, metric string, cfg Config, trainedAt time.Time) (model.ModelRecord, error) {
	matrix, err := features.Build(samples, cfg.ShortWindow, cfg.LongWindow)
	if err != nil {
		return model.ModelRecord{}, err
	}

	cols := features.MetricColumnNames(metric)
	colStart, ok := columnOffset(matrix.Columns, metric)
	if !ok {
		return model.ModelRecord{}, fmt.Errorf("forecast: unknown metric %q", metric)
	}

	start := cfg.LongWindow + 4 // mirrors features.Build's internal start index
	var trainRows [][]float64
	var targets []float64
	for k := 0; k < len(matrix.Rows)-1; k++ {
		nextIdx := start + k + 1
		if nextIdx >= len(samples) {
			break
		}
		v, ok := samples[nextIdx].Value(metric)
		if !ok {
			continue
		}
		trainRows = append(trainRows, matrix.Rows[k][colStart:colStart+len(cols)])
		targets = append(targets, v)
	}
	if len(trainRows) < minTrainingPairs {
		return model.ModelRecord{}, fmt.Errorf("forecast: %w: only %d one-step training pairs for metric %q",
			sysmonerr.ErrInsufficientData, len(trainRows), metric)
	}

	splitAt := int(float64(len(trainRows)) * 0.8)
	fitRows, fitTargets := trainRows[:splitAt], targets[:splitAt]
	holdRows, holdTargets := trainRows[splitAt:], targets[splitAt:]

	tm := trainedForecastModel{Metric: metric, Columns: cols, Algo: cfg.Algo, TickSeconds: cfg.TickSeconds}
	if cfg.Algo == model.AlgoGradientBoost {
		tm.GBRT = fitGBRT(fitRows, fitTargets, cfg.NStumps, cfg.LearningRate)
	} else {
		tm.Algo = model.AlgoLinearRegressor
		tm.Linear = fitLinear(fitRows, fitTargets)
	}

	var residuals []float64
	for i, row := range holdRows {
		residuals = append(residuals, tm.predict(row)-holdTargets[i])
	}
	tm.ResidualLo, tm.ResidualHi = residualBand(residuals)

	blob, err := marshalForecastModel(tm)
	if err != nil {
		return model.ModelRecord{}, err
	}

	return model.ModelRecord{
		Name:      ModelName(metric),
		Algo:      tm.Algo,
		Version:   modelVersion,
		TrainedAt: trainedAt.Unix(),
		Meta: map[string]any{
			"metric":         metric,
			"residual_lo":    tm.ResidualLo,
			"residual_hi":    tm.ResidualHi,
			"training_pairs": float64(len(trainRows)),
		},
		Blob: blob,
	}, nil
}

// columnOffset locates where metric's own columns begin within the
// full feature matrix's column list.
func columnOffset(columns []string, metric string) (int, bool) {
	target := features.MetricColumnNames(metric)
	if len(target) == 0 {
		return 0, false
	}
	for i := 0; i+len(target) <= len(columns); i++ {
		if columns[i] == target[0] {
			return i, true
		}
	}
	return 0, false
}

func residualBand(residuals []float64) (lo, hi float64) {
	if len(residuals) == 0 {
		return 0, 0
	}
	sorted := append([]float64(nil), residuals...)
	sort.Float64s(sorted)
	loIdx := int(float64(len(sorted)) * residualLoPercentile)
	hiIdx := int(float64(len(sorted)) * residualHiPercentile)
	if hiIdx >= len(sorted) {
		hiIdx = len(sorted) - 1
	}
	return sorted[loIdx], sorted[hiIdx]
}

// Result is one metric's time-to-threshold estimate (spec §4.H).
// EtaSeconds is the point-estimate crossing time, nil if the metric
// never crosses within the horizon. LoEtaSeconds/HiEtaSeconds bound it:
// LoEtaSeconds projects the upper-confidence value trajectory (breach
// sooner, used by the Rule Engine to alert early); HiEtaSeconds
// projects the lower-confidence trajectory (breach later, or never).
type Result struct {
	Metric       string
	EtaSeconds   *float64
	LoEtaSeconds *float64
	HiEtaSeconds *float64
}

// Forecast projects metric forward from samples using a trained
// forecaster, returning the point and confidence-bound ETAs to
// threshold (spec §4.H).
func Forecast(samples []model.Sample, metric string, rec model.ModelRecord, cfg Config, threshold float64) (Result, error) {
	if rec.Name == "" || len(rec.Blob) == 0 {
		return Result{}, sysmonerr.ErrModelNotTrained
	}
	tm, err := unmarshalForecastModel(rec.Blob)
	if err != nil {
		return Result{}, err
	}
	if !sameColumns(tm.Columns, features.MetricColumnNames(metric)) {
		return Result{}, fmt.Errorf("forecast: %w: model trained for different column set", sysmonerr.ErrModelStale)
	}

	window := recentValues(samples, metric, cfg.LongWindow)
	if len(window) < cfg.ShortWindow {
		return Result{}, fmt.Errorf("forecast: %w: fewer than short_window recent values for %q",
			sysmonerr.ErrInsufficientData, metric)
	}

	horizonTicks := int(cfg.HorizonSeconds / cfg.TickSeconds)
	isIO := features.IsIOMetric(metric)

	pointTick := project(&tm, window, cfg.ShortWindow, isIO, threshold, horizonTicks, 0)
	upperTick := project(&tm, window, cfg.ShortWindow, isIO, threshold, horizonTicks, tm.ResidualHi)
	lowerTick := project(&tm, window, cfg.ShortWindow, isIO, threshold, horizonTicks, tm.ResidualLo)

	return Result{
		Metric:       metric,
		EtaSeconds:   ticksToSeconds(pointTick, cfg.TickSeconds),
		LoEtaSeconds: ticksToSeconds(upperTick, cfg.TickSeconds),
		HiEtaSeconds: ticksToSeconds(lowerTick, cfg.TickSeconds),
	}, nil
}

// project iteratively predicts the next value from the rolling window
// using tm, adds bias (0 for point estimate, a residual bound
// otherwise), appends it to the window, and repeats until threshold is
// crossed or horizonTicks is exhausted. Returns nil if never crossed.
func project(tm *trainedForecastModel, window []float64, shortWindow int, isIO bool, threshold float64, horizonTicks int, bias float64) *int {
	series := append([]float64(nil), window...)
	for t := 1; t <= horizonTicks; t++ {
		block := features.MetricBlock(series[len(series)-len(window):], shortWindow, isIO)
		pred := tm.predict(block) + bias
		if pred >= threshold {
			return &t
		}
		series = append(series, pred)
		if len(series) > 2*len(window) {
			// Bound memory on very long horizons; only the most recent
			// len(window) ticks matter for lag/rolling features going
			// forward.
			series = series[len(series)-len(window):]
		}
	}
	return nil
}

func ticksToSeconds(tick *int, tickSeconds float64) *float64 {
	if tick == nil {
		return nil
	}
	v := float64(*tick) * tickSeconds
	return &v
}

func recentValues(samples []model.Sample, metric string, n int) []float64 {
	start := len(samples) - n
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, len(samples)-start)
	for _, s := range samples[start:] {
		v, _ := s.Value(metric)
		out = append(out, v)
	}
	return out
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
