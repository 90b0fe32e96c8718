// Package baseline builds the training-time statistical summaries that the
// drift detector later compares live traffic against. One baseline is
// generated per published model version and never mutated afterwards.
package baseline

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferstack/mlserve/pkg/models"
)

const topCategoryCount = 10

// GenerateFeatureBaseline summarizes every feature column of a training
// dataset. Numeric columns get moments, range, and percentiles; categorical
// columns get cardinality and top-category frequencies.
func GenerateFeatureBaseline(features *models.Dataset, excludeColumn string, logger *logrus.Logger) *models.Baseline {
	if logger == nil {
		logger = logrus.New()
	}

	columns := features.FeatureColumns(excludeColumn)
	stats := make(map[string]models.FeatureStats, len(columns))

	for _, col := range columns {
		switch col.Kind {
		case models.ColumnNumeric:
			stats[col.Name] = numericStats(&col)
		case models.ColumnCategorical:
			stats[col.Name] = categoricalStats(&col)
		default:
			stats[col.Name] = models.FeatureStats{Type: models.StatTypeUnsupported}
		}
	}

	logger.WithFields(logrus.Fields{
		"n_samples":  features.NumRows(),
		"n_features": len(stats),
	}).Info("Generated feature baseline")

	return &models.Baseline{
		NSamples:          features.NumRows(),
		FeatureStatistics: stats,
	}
}

func numericStats(col *models.Column) models.FeatureStats {
	n := col.Len()
	values := col.NonMissingFloats()

	fs := models.FeatureStats{Type: models.StatTypeNumeric}
	if n > 0 {
		fs.MissingRate = float64(col.MissingCount()) / float64(n)
	}
	if len(values) == 0 {
		return fs
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	fs.Mean = stat.Mean(values, nil)
	fs.Std = stat.StdDev(values, nil)
	if math.IsNaN(fs.Std) {
		fs.Std = 0
	}
	fs.Min = sorted[0]
	fs.Max = sorted[len(sorted)-1]
	fs.Percentiles = map[string]float64{
		"p25": stat.Quantile(0.25, stat.Empirical, sorted, nil),
		"p50": stat.Quantile(0.50, stat.Empirical, sorted, nil),
		"p75": stat.Quantile(0.75, stat.Empirical, sorted, nil),
		"p95": stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
	return fs
}

func categoricalStats(col *models.Column) models.FeatureStats {
	n := col.Len()

	fs := models.FeatureStats{Type: models.StatTypeCategorical}
	if n > 0 {
		fs.MissingRate = float64(col.MissingCount()) / float64(n)
	}

	counts := make(map[string]int)
	total := 0
	for _, label := range col.Labels {
		if label == "" {
			continue
		}
		counts[label]++
		total++
	}
	fs.NUnique = len(counts)
	if total == 0 {
		return fs
	}

	type labelCount struct {
		label string
		count int
	}
	ordered := make([]labelCount, 0, len(counts))
	for label, count := range counts {
		ordered = append(ordered, labelCount{label, count})
	}
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].count != ordered[j].count {
			return ordered[i].count > ordered[j].count
		}
		return ordered[i].label < ordered[j].label
	})

	top := make(map[string]float64, topCategoryCount)
	for i, lc := range ordered {
		if i >= topCategoryCount {
			break
		}
		top[lc.label] = float64(lc.count) / float64(total)
	}
	fs.TopCategories = top
	return fs
}
