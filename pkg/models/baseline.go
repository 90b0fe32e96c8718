package models

// FeatureStats summarizes one feature's training-time distribution. The Type
// tag decides which fields are meaningful; consumers must switch on it rather
// than probe for populated fields.
type FeatureStats struct {
	Type          StatType           `json:"type"`
	Mean          float64            `json:"mean,omitempty"`
	Std           float64            `json:"std,omitempty"`
	Min           float64            `json:"min,omitempty"`
	Max           float64            `json:"max,omitempty"`
	Percentiles   map[string]float64 `json:"percentiles,omitempty"`
	MissingRate   float64            `json:"missing_rate"`
	NUnique       int                `json:"n_unique,omitempty"`
	TopCategories map[string]float64 `json:"top_categories,omitempty"`
}

// Histogram is a binned summary of a continuous distribution.
type Histogram struct {
	Counts   []int     `json:"counts"`
	BinEdges []float64 `json:"bin_edges"`
}

// PredictionStatsType distinguishes binary and multiclass prediction
// baselines.
type PredictionStatsType string

const (
	PredictionStatsBinary     PredictionStatsType = "binary_classification"
	PredictionStatsMulticlass PredictionStatsType = "multiclass_classification"
)

// ClassMoments holds per-class probability moments for multiclass baselines.
type ClassMoments struct {
	ClassIdx int     `json:"class_idx"`
	Mean     float64 `json:"mean"`
	Std      float64 `json:"std"`
}

// PredictionStats summarizes the training-time prediction distribution.
type PredictionStats struct {
	Type               PredictionStatsType `json:"type"`
	MeanProbability    float64             `json:"mean_probability,omitempty"`
	StdProbability     float64             `json:"std_probability,omitempty"`
	Percentiles        map[string]float64  `json:"percentiles,omitempty"`
	Histogram          *Histogram          `json:"histogram,omitempty"`
	NClasses           int                 `json:"n_classes,omitempty"`
	ClassDistributions []ClassMoments      `json:"class_distributions,omitempty"`
}

// Baseline is the drift comparison reference captured at training time.
// Immutable; one per model version.
type Baseline struct {
	NSamples             int                     `json:"n_samples"`
	FeatureStatistics    map[string]FeatureStats `json:"feature_statistics"`
	PredictionStatistics *PredictionStats        `json:"prediction_statistics,omitempty"`
}
