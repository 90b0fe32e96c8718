package models

// StructuralField is one entry of the structural schema: the shape contract
// of a single column. The schema hash covers only these fields.
type StructuralField struct {
	Name     string `json:"name"`
	Position int    `json:"position"`
	DType    string `json:"dtype"`
}

// ColumnStats holds descriptive statistics for a column. Changing any of
// these never changes the schema hash.
type ColumnStats struct {
	Type        StatType `json:"type"`
	NumUnique   int      `json:"num_unique"`
	NumMissing  int      `json:"num_missing"`
	MissingRate float64  `json:"missing_rate"`
	Min         float64  `json:"min,omitempty"`
	Max         float64  `json:"max,omitempty"`
	Mean        float64  `json:"mean,omitempty"`
	Std         float64  `json:"std,omitempty"`
}

// Schema is the feature contract of a trained model: structural entries in
// column order, descriptive statistics, and a structure-only fingerprint.
type Schema struct {
	StructuralSchema []StructuralField      `json:"structural_schema"`
	DescriptiveStats map[string]ColumnStats `json:"descriptive_stats"`
	SchemaHash       string                 `json:"schema_hash"`
	NFeatures        int                    `json:"n_features"`
	FeatureNames     []string               `json:"feature_names"`
}

// StatType tags a statistics block as numeric, categorical, or unsupported.
type StatType string

const (
	StatTypeNumeric     StatType = "numeric"
	StatTypeCategorical StatType = "categorical"
	StatTypeUnsupported StatType = "unsupported"
)
