package forecast

import "math"

// linearModel is ordinary least squares with an intercept, over a
// small per-metric feature set (that metric's own lags, rolling stats,
// and slope — not the full cross-metric feature matrix, since
// time-to-threshold only needs that one metric's trajectory).
type linearModel struct {
	Weights   []float64 `json:"weights"`
	Intercept float64   `json:"intercept"`
}

func (m *linearModel) predict(features []float64) float64 {
	sum := m.Intercept
	for i, w := range m.Weights {
		if i < len(features) {
			sum += w * features[i]
		}
	}
	return sum
}

// fitLinear solves ordinary least squares by gradient descent.
// Columns are standardized before descent (the metric's own raw value
// columns and its slope column sit on wildly different scales) and the
// fitted weights are converted back to raw-feature scale so predict
// can be called directly on un-standardized rows. Columns that are
// constant up to floating-point noise keep a unit scale so they cannot
// blow up into huge raw weights.
func fitLinear(rows [][]float64, targets []float64) *linearModel {
	if len(rows) == 0 {
		return &linearModel{}
	}
	numCols := len(rows[0])
	colMean := make([]float64, numCols)
	colStd := make([]float64, numCols)
	for c := 0; c < numCols; c++ {
		var sum float64
		for _, row := range rows {
			sum += row[c]
		}
		mean := sum / float64(len(rows))
		var sqSum float64
		for _, row := range rows {
			d := row[c] - mean
			sqSum += d * d
		}
		std := math.Sqrt(sqSum / float64(len(rows)))
		if std < 1e-9 {
			std = 1
		}
		colMean[c] = mean
		colStd[c] = std
	}

	standardized := make([][]float64, len(rows))
	for i, row := range rows {
		srow := make([]float64, numCols)
		for c, v := range row {
			srow[c] = (v - colMean[c]) / colStd[c]
		}
		standardized[i] = srow
	}

	weights := make([]float64, numCols)
	var intercept float64
	const lr = 0.05
	const epochs = 800
	n := float64(len(rows))

	for e := 0; e < epochs; e++ {
		gradW := make([]float64, numCols)
		var gradB float64
		for i, row := range standardized {
			pred := intercept
			for j, w := range weights {
				pred += w * row[j]
			}
			errTerm := pred - targets[i]
			for j, x := range row {
				gradW[j] += errTerm * x
			}
			gradB += errTerm
		}
		for j := range weights {
			weights[j] -= lr * gradW[j] / n
		}
		intercept -= lr * gradB / n
	}

	// Undo standardization: raw_pred = intercept + sum(w_j * (x_j -
	// mean_j) / std_j) = (intercept - sum(w_j*mean_j/std_j)) + sum((w_j
	// / std_j) * x_j).
	rawWeights := make([]float64, numCols)
	rawIntercept := intercept
	for j := range weights {
		rawWeights[j] = weights[j] / colStd[j]
		rawIntercept -= weights[j] * colMean[j] / colStd[j]
	}

	return &linearModel{Weights: rawWeights, Intercept: rawIntercept}
}
