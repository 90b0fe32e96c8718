// Package drift scores live traffic against training-time baselines using
// the Population Stability Index and the two-sample Kolmogorov-Smirnov test.
// Raw training data is not available at serving time, so each detector
// synthesizes a reproducible reference sample from the baseline's summary
// statistics once and reuses it for every check.
package drift

import (
	"math"
	"math/rand"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferstack/mlserve/pkg/models"
)

// Config tunes the detector. Bin placement is equal-width over the combined
// observed range; the bin count is the only knob.
type Config struct {
	BinCount            int   `json:"bin_count"`
	ReferenceSampleSize int   `json:"reference_sample_size"`
	Seed                int64 `json:"seed"`
}

// DefaultConfig returns the documented defaults: 10 equal-width bins and a
// 10,000-sample resampled reference with a fixed seed.
func DefaultConfig() Config {
	return Config{
		BinCount:            10,
		ReferenceSampleSize: 10000,
		Seed:                42,
	}
}

// FeatureDrift holds the drift scores for one feature.
type FeatureDrift struct {
	PSI         float64 `json:"psi"`
	MeanShift   float64 `json:"mean_shift"`
	KSStatistic float64 `json:"ks_statistic"`
	KSPValue    float64 `json:"ks_pvalue"`
}

// Detector scores samples against a single baseline version. Construction is
// the expensive step; Detect calls are pure and safe for concurrent use.
type Detector struct {
	baseline         *models.Baseline
	config           Config
	logger           *logrus.Logger
	featureRefs      map[string][]float64
	predictionRef    []float64
	predictionMean   float64
	hasPredictionRef bool
}

// NewDetector builds a detector from a baseline. For every numeric feature
// with usable summary statistics it draws a normal reference sample
// parameterized by the feature's mean and standard deviation, clipped to the
// feature's observed [min, max]. The seed is fixed, so two detectors built
// from the same baseline produce identical references.
func NewDetector(baseline *models.Baseline, config Config, logger *logrus.Logger) *Detector {
	if logger == nil {
		logger = logrus.New()
	}
	if config.BinCount <= 0 {
		config.BinCount = DefaultConfig().BinCount
	}
	if config.ReferenceSampleSize <= 0 {
		config.ReferenceSampleSize = DefaultConfig().ReferenceSampleSize
	}

	d := &Detector{
		baseline:    baseline,
		config:      config,
		logger:      logger,
		featureRefs: make(map[string][]float64),
	}
	if baseline == nil {
		return d
	}

	// Features are sampled in sorted name order from one seeded source so
	// the reference for each feature is reproducible.
	names := make([]string, 0, len(baseline.FeatureStatistics))
	for name := range baseline.FeatureStatistics {
		names = append(names, name)
	}
	sort.Strings(names)

	rng := rand.New(rand.NewSource(config.Seed))
	for _, name := range names {
		fs := baseline.FeatureStatistics[name]
		if fs.Type != models.StatTypeNumeric || fs.Std <= 0 || fs.Max <= fs.Min {
			continue
		}
		d.featureRefs[name] = sampleClippedNormal(rng, fs.Mean, fs.Std, fs.Min, fs.Max, config.ReferenceSampleSize)
	}

	if ps := baseline.PredictionStatistics; ps != nil && ps.Type == models.PredictionStatsBinary && ps.StdProbability > 0 {
		d.predictionRef = sampleClippedNormal(rng, ps.MeanProbability, ps.StdProbability, 0, 1, config.ReferenceSampleSize)
		d.predictionMean = ps.MeanProbability
		d.hasPredictionRef = true
	}

	logger.WithFields(logrus.Fields{
		"n_feature_references": len(d.featureRefs),
		"prediction_reference": d.hasPredictionRef,
	}).Debug("Built drift detector references")

	return d
}

// DetectFeatureDrift scores every feature present in both the baseline and
// the current sample. Features without a usable baseline reference, absent
// from the current data, or with no non-null values are omitted from the
// result rather than reported as zero.
func (d *Detector) DetectFeatureDrift(current *models.Dataset) map[string]FeatureDrift {
	results := make(map[string]FeatureDrift)

	for name, ref := range d.featureRefs {
		col := current.Column(name)
		if col == nil || col.Kind != models.ColumnNumeric {
			continue
		}
		values := col.NonMissingFloats()
		if len(values) == 0 {
			continue
		}

		ksStat, ksP := twoSampleKS(ref, values)
		results[name] = FeatureDrift{
			PSI:         histogramPSI(ref, values, d.config.BinCount),
			MeanShift:   math.Abs(stat.Mean(values, nil) - d.baseline.FeatureStatistics[name].Mean),
			KSStatistic: ksStat,
			KSPValue:    ksP,
		}
	}
	return results
}

// DetectPredictionDrift scores the served probability distribution against
// the baseline's prediction statistics. The result is nil when the baseline
// carries no prediction statistics or the distribution type is not the
// supported binary path.
func (d *Detector) DetectPredictionDrift(predictions []float64) *FeatureDrift {
	if !d.hasPredictionRef || len(predictions) == 0 {
		return nil
	}

	ksStat, ksP := twoSampleKS(d.predictionRef, predictions)
	return &FeatureDrift{
		PSI:         histogramPSI(d.predictionRef, predictions, d.config.BinCount),
		MeanShift:   math.Abs(stat.Mean(predictions, nil) - d.predictionMean),
		KSStatistic: ksStat,
		KSPValue:    ksP,
	}
}

// ReferenceSample exposes a feature's synthesized reference for inspection.
func (d *Detector) ReferenceSample(feature string) []float64 {
	return d.featureRefs[feature]
}

func sampleClippedNormal(rng *rand.Rand, mean, std, lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		v := rng.NormFloat64()*std + mean
		if v < lo {
			v = lo
		}
		if v > hi {
			v = hi
		}
		out[i] = v
	}
	return out
}
