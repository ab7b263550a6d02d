package anomaly

import (
	"fmt"
	"time"

	"github.com/oashraff/sysmon-ai/internal/features"
	"github.com/oashraff/sysmon-ai/internal/model"
	"github.com/oashraff/sysmon-ai/internal/sysmonerr"
)

// minBaselineRows is the minimum baseline row count to attempt training
// (spec §4.G: "fail with NotEnoughData if < 1000 rows").
const minBaselineRows = 1000

// validationFraction is the share of the baseline window split off for
// threshold calibration (spec §4.G: "split off 20% as validation").
const validationFraction = 0.2

// Config parameterizes training and inference, mirroring the
// configuration surface's anomaly section.
type Config struct {
	NEstimators  int
	MaxSamples   int
	ShortWindow  int
	LongWindow   int
	TargetFPR    float64
	Contamination float64
	Seed         int64
}

// DefaultConfig matches the configuration surface's documented defaults.
func DefaultConfig() Config {
	return Config{
		NEstimators: 100, MaxSamples: 256,
		ShortWindow: 5, LongWindow: 30,
		TargetFPR: 0.05, Contamination: 0.05,
		Seed: 1,
	}
}

// Train fits a new anomaly Model Record from a baseline window of
// Samples (spec §4.G). Samples must be in ascending ts order.
func Train(samples []model.Sample, cfg Config, trainedAt time.Time) (model.ModelRecord, error) {
	if len(samples) < minBaselineRows {
		return model.ModelRecord{}, fmt.Errorf("anomaly: %w: have %d rows, need >= %d",
			sysmonerr.ErrNotEnoughData, len(samples), minBaselineRows)
	}

	cpuTempImpute := features.MedianCPUTemp(samples)
	matrix, err := features.BuildWithImpute(samples, cfg.ShortWindow, cfg.LongWindow, &cpuTempImpute)
	if err != nil {
		return model.ModelRecord{}, err
	}

	splitAt := int(float64(len(matrix.Rows)) * (1 - validationFraction))
	trainRows, valRows := matrix.Rows[:splitAt], matrix.Rows[splitAt:]

	scaler := features.Fit(matrix.Columns, trainRows)
	scaler.CPUTempImpute = cpuTempImpute

	scaledTrain := make([][]float64, len(trainRows))
	for i, r := range trainRows {
		scaledTrain[i] = scaler.Transform(r)
	}

	f := buildForest(scaledTrain, cfg.NEstimators, cfg.MaxSamples, cfg.Seed)

	valScores := make([]float64, len(valRows))
	for i, r := range valRows {
		valScores[i] = f.score(scaler.Transform(r))
	}
	threshold := calibrateThreshold(valScores, cfg.TargetFPR)

	blob, err := marshalModel(trainedModel{
		Forest: f, Scaler: scaler, Threshold: threshold, Columns: matrix.Columns,
	})
	if err != nil {
		return model.ModelRecord{}, err
	}

	return model.ModelRecord{
		Name:      ModelName,
		Algo:      model.AlgoIsolationForest,
		Version:   modelVersion,
		TrainedAt: trainedAt.Unix(),
		Meta: map[string]any{
			"n_estimators":  float64(cfg.NEstimators),
			"max_samples":   float64(cfg.MaxSamples),
			"contamination": cfg.Contamination,
			"target_fpr":    cfg.TargetFPR,
			"threshold":     threshold,
			"training_rows": float64(len(samples)),
		},
		Blob: blob,
	}, nil
}
