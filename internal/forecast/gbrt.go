package forecast

// gbrtModel is a small gradient-boosted ensemble of depth-1 decision
// stumps, the simplest regression tree that still captures
// non-linearity in a metric's trajectory. Matches the spec's `gbrt`
// algo tag (spec §6.4 `forecast.algo`).
type gbrtModel struct {
	Stumps       []stump `json:"stumps"`
	LearningRate float64 `json:"learning_rate"`
	BasePrediction float64 `json:"base_prediction"`
}

type stump struct {
	Feature    int     `json:"feature"`
	Threshold  float64 `json:"threshold"`
	LeftValue  float64 `json:"left_value"`
	RightValue float64 `json:"right_value"`
}

func (m *gbrtModel) predict(features []float64) float64 {
	pred := m.BasePrediction
	for _, s := range m.Stumps {
		if s.Feature < len(features) && features[s.Feature] < s.Threshold {
			pred += m.LearningRate * s.LeftValue
		} else {
			pred += m.LearningRate * s.RightValue
		}
	}
	return pred
}

// fitGBRT fits nStumps stages of gradient boosting: each stage picks
// the (feature, threshold) split that best reduces squared error on
// the current residuals, then assigns left/right mean residuals as the
// stage's contribution.
func fitGBRT(rows [][]float64, targets []float64, nStumps int, learningRate float64) *gbrtModel {
	if len(rows) == 0 {
		return &gbrtModel{LearningRate: learningRate}
	}
	base := mean(targets)
	residuals := make([]float64, len(targets))
	for i, t := range targets {
		residuals[i] = t - base
	}

	numCols := len(rows[0])
	m := &gbrtModel{LearningRate: learningRate, BasePrediction: base}

	for s := 0; s < nStumps; s++ {
		best := bestStump(rows, residuals, numCols)
		m.Stumps = append(m.Stumps, best)
		for i, row := range rows {
			var contribution float64
			if best.Feature < len(row) && row[best.Feature] < best.Threshold {
				contribution = best.LeftValue
			} else {
				contribution = best.RightValue
			}
			residuals[i] -= learningRate * contribution
		}
	}
	return m
}

func bestStump(rows [][]float64, residuals []float64, numCols int) stump {
	var best stump
	bestSSE := -1.0

	for f := 0; f < numCols; f++ {
		thresholds := candidateThresholds(rows, f)
		for _, thr := range thresholds {
			var leftSum, rightSum float64
			var leftN, rightN int
			for i, row := range rows {
				if row[f] < thr {
					leftSum += residuals[i]
					leftN++
				} else {
					rightSum += residuals[i]
					rightN++
				}
			}
			if leftN == 0 || rightN == 0 {
				continue
			}
			leftMean := leftSum / float64(leftN)
			rightMean := rightSum / float64(rightN)

			var sse float64
			for i, row := range rows {
				var pred float64
				if row[f] < thr {
					pred = leftMean
				} else {
					pred = rightMean
				}
				d := residuals[i] - pred
				sse += d * d
			}
			if bestSSE < 0 || sse < bestSSE {
				bestSSE = sse
				best = stump{Feature: f, Threshold: thr, LeftValue: leftMean, RightValue: rightMean}
			}
		}
	}
	return best
}

// candidateThresholds samples up to a handful of distinct values of
// column f as split candidates, rather than every observed value, to
// bound fit time on a long baseline window.
func candidateThresholds(rows [][]float64, f int) []float64 {
	const maxCandidates = 20
	seen := make(map[float64]struct{})
	var values []float64
	for _, row := range rows {
		v := row[f]
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	if len(values) <= maxCandidates {
		return values
	}
	step := len(values) / maxCandidates
	out := make([]float64, 0, maxCandidates)
	for i := 0; i < len(values) && len(out) < maxCandidates; i += step {
		out = append(out, values[i])
	}
	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
