package models

import "time"

// PredictionEvent records one served prediction for drift analysis. Events
// are appended once and never mutated.
type PredictionEvent struct {
	Features        map[string]float64 `json:"features"`
	Prediction      float64            `json:"prediction"`
	PredictionClass int                `json:"prediction_class"`
	ModelVersion    string             `json:"model_version"`
	Timestamp       time.Time          `json:"timestamp"`
	CorrelationID   string             `json:"correlation_id,omitempty"`
}

// Clone returns a deep copy of the event.
func (e PredictionEvent) Clone() PredictionEvent {
	out := e
	out.Features = make(map[string]float64, len(e.Features))
	for k, v := range e.Features {
		out.Features[k] = v
	}
	return out
}
