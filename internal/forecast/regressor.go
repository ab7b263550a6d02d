// Package forecast estimates time-to-threshold for monitored metrics
// via a regressor trained to predict a metric's value one tick ahead,
// projected forward tick by tick (no model is fitted to predict h
// seconds ahead directly), with a residual-percentile confidence band
// (spec §4.H). Mirrors
// internal/anomaly's from-scratch numeric approach: no regression
// library appears in the retrieval pack, so both supported algos
// (linear least squares, gradient-boosted stumps) are implemented
// directly over the stdlib.
package forecast

// regressor is the common interface both supported algos satisfy.
type regressor interface {
	predict(features []float64) float64
}
