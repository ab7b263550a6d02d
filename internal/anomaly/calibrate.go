package anomaly

import "sort"

// calibrateThreshold finds the highest score threshold whose false
// positive rate on a nominal validation slice is <= targetFPR (spec
// §4.G): since validation rows are assumed nominal, FPR(threshold) is
// simply the fraction of validation scores exceeding it. Scores are
// sorted ascending; the threshold sits at the (1-targetFPR) quantile,
// which is by construction the highest threshold meeting the target
// (any lower threshold admits more false positives). If targetFPR is
// 0, the maximum observed score is returned, which admits zero
// validation rows.
func calibrateThreshold(validationScores []float64, targetFPR float64) float64 {
	if len(validationScores) == 0 {
		return 1
	}
	sorted := append([]float64(nil), validationScores...)
	sort.Float64s(sorted)

	idx := int(float64(len(sorted)) * (1 - targetFPR))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	if idx < 0 {
		idx = 0
	}
	return sorted[idx]
}

// measuredFPR is the fraction of scores strictly greater than
// threshold, used by tests and by the calibration contract check.
func measuredFPR(scores []float64, threshold float64) float64 {
	if len(scores) == 0 {
		return 0
	}
	var exceed int
	for _, s := range scores {
		if s > threshold {
			exceed++
		}
	}
	return float64(exceed) / float64(len(scores))
}
