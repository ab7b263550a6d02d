package forecast

import (
	"encoding/json"
	"fmt"
)

func marshalForecastModel(tm trainedForecastModel) ([]byte, error) {
	b, err := json.Marshal(tm)
	if err != nil {
		return nil, fmt.Errorf("forecast: marshal model: %w", err)
	}
	return b, nil
}

func unmarshalForecastModel(blob []byte) (trainedForecastModel, error) {
	var tm trainedForecastModel
	if err := json.Unmarshal(blob, &tm); err != nil {
		return trainedForecastModel{}, fmt.Errorf("forecast: unmarshal model: %w", err)
	}
	return tm, nil
}
