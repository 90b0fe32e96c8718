package models

import "time"

// ModelMetadata travels with every published model artifact. Schema, Metrics
// and ModelType are required for promotion; a pointer must never reference a
// model whose contract cannot be verified.
type ModelMetadata struct {
	ModelVersion string             `json:"model_version"`
	ModelType    string             `json:"model_type"`
	ModelFormat  string             `json:"model_format,omitempty"`
	TrainedAt    time.Time          `json:"trained_at,omitempty"`
	Schema       *Schema            `json:"schema"`
	Metrics      map[string]float64 `json:"metrics"`
	Params       map[string]any     `json:"params,omitempty"`
}

// Validate checks the fields a promotion requires.
func (m *ModelMetadata) Validate() error {
	if m.Schema == nil {
		return missingMetadataField("schema")
	}
	if m.Metrics == nil {
		return missingMetadataField("metrics")
	}
	if m.ModelType == "" {
		return missingMetadataField("model_type")
	}
	return nil
}

type metadataFieldError struct{ field string }

func (e *metadataFieldError) Error() string {
	return "invalid metadata: missing '" + e.field + "' field"
}

func missingMetadataField(field string) error {
	return &metadataFieldError{field: field}
}
