package models

import "time"

// PointerRecord is the authoritative serving pointer for an environment.
// Exactly one record is live per environment; superseded records are archived
// to a timestamped history slot.
type PointerRecord struct {
	ModelVersion    string    `json:"model_version"`
	ModelPath       string    `json:"model_path"`
	MetadataPath    string    `json:"metadata_path"`
	BaselinePath    string    `json:"baseline_path"`
	SchemaHash      string    `json:"schema_hash,omitempty"`
	PromotedAt      time.Time `json:"promoted_at"`
	PromotedBy      string    `json:"promoted_by"`
	PromotionReason string    `json:"promotion_reason,omitempty"`
	PreviousVersion string    `json:"previous_version,omitempty"`
	Environment     string    `json:"environment"`
	Approved        bool      `json:"approved"`
}
