package features

import (
	"sort"

	"github.com/oashraff/sysmon-ai/internal/model"
)

// Scaler holds per-column mean and standard deviation fit once at
// training time and applied at both train and inference (spec §4.F).
// Columns with zero variance are stored with mean 0 and scale 1, so
// Transform passes their raw value through unchanged.
type Scaler struct {
	Columns []string  `json:"columns"`
	Mean    []float64 `json:"mean"`
	Std     []float64 `json:"std"`
	// CPUTempImpute is the median cpu_temp value computed at training
	// time, used to fill ticks where the sensor reading was absent
	// (spec §9 open question b).
	CPUTempImpute float64 `json:"cpu_temp_impute"`
}

// Fit computes per-column mean/std over rows and returns a Scaler bound
// to the given column names.
func Fit(columns []string, rows [][]float64) Scaler {
	s := Scaler{Columns: columns, Mean: make([]float64, len(columns)), Std: make([]float64, len(columns))}
	if len(rows) == 0 {
		for i := range s.Std {
			s.Std[i] = 1
		}
		return s
	}
	for col := range columns {
		vals := make([]float64, len(rows))
		for r, row := range rows {
			vals[r] = row[col]
		}
		mean, std := meanStd(vals)
		s.Mean[col] = mean
		if std == 0 {
			s.Std[col] = 1
			s.Mean[col] = 0
		} else {
			s.Std[col] = std
		}
	}
	return s
}

// Transform applies z-score normalization and returns a new slice (the
// input row is not mutated).
func (s Scaler) Transform(row []float64) []float64 {
	out := make([]float64, len(row))
	for i, v := range row {
		if i >= len(s.Mean) {
			out[i] = v
			continue
		}
		out[i] = (v - s.Mean[i]) / s.Std[i]
	}
	return out
}

// ZScores returns the per-column z-score of row against the scaler,
// used by the anomaly detector to extract the top contributing metrics.
func (s Scaler) ZScores(row []float64) []float64 {
	return s.Transform(row)
}

// imputeMissing replaces an absent cpu_temp field with the median of
// the present cpu_temp values in samples (spec §9 open question b:
// "median-imputation at train time, the imputed value stored in the
// scaler"). Returns a copy; the input slice is not mutated.
func imputeMissing(samples []model.Sample) []model.Sample {
	return imputeWith(samples, medianCPUTemp(samples))
}

// imputeWith fills absent cpu_temp readings with a fixed value. Returns
// a copy; the input slice is not mutated.
func imputeWith(samples []model.Sample, value float64) []model.Sample {
	out := make([]model.Sample, len(samples))
	for i, s := range samples {
		if s.CPUTemp == nil {
			v := value
			s.CPUTemp = &v
		}
		out[i] = s
	}
	return out
}

// MedianCPUTemp computes the training-time cpu_temp imputation value
// from a baseline window, for callers assembling a Scaler after Build.
func MedianCPUTemp(samples []model.Sample) float64 {
	return medianCPUTemp(samples)
}

func medianCPUTemp(samples []model.Sample) float64 {
	var present []float64
	for _, s := range samples {
		if s.CPUTemp != nil {
			present = append(present, *s.CPUTemp)
		}
	}
	if len(present) == 0 {
		return 0
	}
	sorted := append([]float64(nil), present...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
