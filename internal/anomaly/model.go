package anomaly

import (
	"encoding/json"
	"fmt"

	"github.com/oashraff/sysmon-ai/internal/features"
)

// ModelName is the fixed Model Record name under which the trained
// anomaly model is persisted (spec §4.G: "named anomaly").
const ModelName = "anomaly"

// modelVersion is the current major.minor.patch of the blob schema,
// stamped on every anomaly Model Record. Detect does not compare it
// with a loaded record's Version (store.CompatibleWithCurrentFeatures
// implements the major-version comparison but nothing calls it); a
// stale model is caught by its column list only.
const modelVersion = "1.0.0"

// trainedModel is the full opaque payload serialised into
// model.ModelRecord.Blob. No serialization library appears anywhere in
// the retrieval pack for this shape (the pack's JSON usage is always
// plain encoding/json over simple structs), so the blob format follows
// that same plain-JSON idiom rather than introducing a new dependency.
type trainedModel struct {
	Forest    *forest         `json:"forest"`
	Scaler    features.Scaler `json:"scaler"`
	Threshold float64         `json:"threshold"`
	Columns   []string        `json:"columns"`
}

func marshalModel(tm trainedModel) ([]byte, error) {
	b, err := json.Marshal(tm)
	if err != nil {
		return nil, fmt.Errorf("anomaly: marshal model: %w", err)
	}
	return b, nil
}

func unmarshalModel(blob []byte) (trainedModel, error) {
	var tm trainedModel
	if err := json.Unmarshal(blob, &tm); err != nil {
		return trainedModel{}, fmt.Errorf("anomaly: unmarshal model: %w", err)
	}
	return tm, nil
}
