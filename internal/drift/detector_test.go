package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferstack/mlserve/pkg/models"
)

func testBaseline() *models.Baseline {
	return &models.Baseline{
		NSamples: 5000,
		FeatureStatistics: map[string]models.FeatureStats{
			"age": {
				Type: models.StatTypeNumeric,
				Mean: 45, Std: 10, Min: 25, Max: 70,
			},
			"balance": {
				Type: models.StatTypeNumeric,
				Mean: 1200, Std: 400, Min: 0, Max: 5000,
			},
			"segment": {
				Type:          models.StatTypeCategorical,
				TopCategories: map[string]float64{"retail": 0.7, "business": 0.3},
			},
		},
		PredictionStatistics: &models.PredictionStats{
			Type:            models.PredictionStatsBinary,
			MeanProbability: 0.3,
			StdProbability:  0.15,
		},
	}
}

func TestNewDetectorBuildsReproducibleReferences(t *testing.T) {
	baseline := testBaseline()
	d1 := NewDetector(baseline, DefaultConfig(), nil)
	d2 := NewDetector(baseline, DefaultConfig(), nil)

	ref1 := d1.ReferenceSample("age")
	ref2 := d2.ReferenceSample("age")
	require.Len(t, ref1, 10000)
	assert.Equal(t, ref1, ref2, "the same baseline and seed must synthesize identical references")

	for _, v := range ref1 {
		assert.GreaterOrEqual(t, v, 25.0)
		assert.LessOrEqual(t, v, 70.0)
	}
}

func TestNewDetectorSkipsUnusableFeatures(t *testing.T) {
	baseline := &models.Baseline{
		FeatureStatistics: map[string]models.FeatureStats{
			"zero_std": {Type: models.StatTypeNumeric, Mean: 1, Std: 0, Min: 0, Max: 2},
			"bad_range": {Type: models.StatTypeNumeric, Mean: 1, Std: 1, Min: 5, Max: 5},
			"category":  {Type: models.StatTypeCategorical},
			"good":      {Type: models.StatTypeNumeric, Mean: 0, Std: 1, Min: -4, Max: 4},
		},
	}
	d := NewDetector(baseline, DefaultConfig(), nil)

	assert.Nil(t, d.ReferenceSample("zero_std"))
	assert.Nil(t, d.ReferenceSample("bad_range"))
	assert.Nil(t, d.ReferenceSample("category"))
	assert.NotNil(t, d.ReferenceSample("good"))
}

func TestDetectFeatureDriftNoDrift(t *testing.T) {
	d := NewDetector(testBaseline(), DefaultConfig(), nil)

	// Scoring the reference against itself is the strongest no-drift case.
	current := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("age", d.ReferenceSample("age")),
	}}

	results := d.DetectFeatureDrift(current)
	require.Contains(t, results, "age")

	age := results["age"]
	assert.Less(t, age.PSI, 0.1)
	assert.Less(t, age.MeanShift, 1.0)
	assert.Greater(t, age.KSPValue, 0.1)
}

func TestDetectFeatureDriftShiftedSample(t *testing.T) {
	d := NewDetector(testBaseline(), DefaultConfig(), nil)

	ref := d.ReferenceSample("age")
	shifted := make([]float64, 1000)
	for i := range shifted {
		shifted[i] = ref[i] + 15
	}
	current := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("age", shifted),
	}}

	results := d.DetectFeatureDrift(current)
	require.Contains(t, results, "age")

	age := results["age"]
	assert.Greater(t, age.MeanShift, 5.0)
	assert.Less(t, age.KSPValue, 0.1)
	assert.Greater(t, age.PSI, 0.2)
}

func TestDetectFeatureDriftOmitsMissingFeatures(t *testing.T) {
	d := NewDetector(testBaseline(), DefaultConfig(), nil)

	current := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("age", d.ReferenceSample("age")[:100]),
		models.NumericColumn("unknown_feature", []float64{1, 2, 3}),
		models.CategoricalColumn("segment", []string{"retail", "business"}),
	}}

	results := d.DetectFeatureDrift(current)
	assert.Contains(t, results, "age")
	assert.NotContains(t, results, "balance", "features absent from current data are omitted")
	assert.NotContains(t, results, "unknown_feature")
	assert.NotContains(t, results, "segment", "categorical features have no resampled reference")
}

func TestDetectPredictionDrift(t *testing.T) {
	d := NewDetector(testBaseline(), DefaultConfig(), nil)

	result := d.DetectPredictionDrift(d.predictionRef[:1000])
	require.NotNil(t, result)
	assert.Less(t, result.PSI, 0.1)
}

func TestDetectPredictionDriftWithoutBaselineStats(t *testing.T) {
	baseline := testBaseline()
	baseline.PredictionStatistics = nil
	d := NewDetector(baseline, DefaultConfig(), nil)

	assert.Nil(t, d.DetectPredictionDrift([]float64{0.1, 0.5, 0.9}))
}

func TestDetectPredictionDriftMulticlassUnsupported(t *testing.T) {
	baseline := testBaseline()
	baseline.PredictionStatistics = &models.PredictionStats{
		Type:     models.PredictionStatsMulticlass,
		NClasses: 3,
	}
	d := NewDetector(baseline, DefaultConfig(), nil)

	assert.Nil(t, d.DetectPredictionDrift([]float64{0.1, 0.5, 0.9}))
}

func TestNewDetectorNilBaseline(t *testing.T) {
	d := NewDetector(nil, DefaultConfig(), nil)
	results := d.DetectFeatureDrift(&models.Dataset{})
	assert.Empty(t, results)
	assert.Nil(t, d.DetectPredictionDrift([]float64{0.5}))
}
