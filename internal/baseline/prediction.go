package baseline

import (
	"math"
	"sort"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferstack/mlserve/pkg/models"
)

const predictionHistogramBins = 20

// GeneratePredictionBaseline summarizes the model's prediction distribution
// on the training set. A single probability vector per row means binary
// classification; wider matrices produce per-class moments.
func GeneratePredictionBaseline(probabilities [][]float64, logger *logrus.Logger) *models.PredictionStats {
	if logger == nil {
		logger = logrus.New()
	}
	if len(probabilities) == 0 {
		return nil
	}

	nClasses := len(probabilities[0])
	logger.WithFields(logrus.Fields{
		"n_samples": len(probabilities),
		"n_classes": nClasses,
	}).Info("Generating prediction baseline")

	if nClasses <= 2 {
		// Binary: summarize the positive-class probability.
		positives := make([]float64, len(probabilities))
		for i, row := range probabilities {
			positives[i] = row[len(row)-1]
		}
		return binaryStats(positives)
	}

	dists := make([]models.ClassMoments, nClasses)
	for class := 0; class < nClasses; class++ {
		col := make([]float64, len(probabilities))
		for i, row := range probabilities {
			col[i] = row[class]
		}
		std := stat.StdDev(col, nil)
		if math.IsNaN(std) {
			std = 0
		}
		dists[class] = models.ClassMoments{
			ClassIdx: class,
			Mean:     stat.Mean(col, nil),
			Std:      std,
		}
	}
	return &models.PredictionStats{
		Type:               models.PredictionStatsMulticlass,
		NClasses:           nClasses,
		ClassDistributions: dists,
	}
}

func binaryStats(preds []float64) *models.PredictionStats {
	sorted := append([]float64(nil), preds...)
	sort.Float64s(sorted)

	std := stat.StdDev(preds, nil)
	if math.IsNaN(std) {
		std = 0
	}

	return &models.PredictionStats{
		Type:            models.PredictionStatsBinary,
		MeanProbability: stat.Mean(preds, nil),
		StdProbability:  std,
		Percentiles: map[string]float64{
			"p25": stat.Quantile(0.25, stat.Empirical, sorted, nil),
			"p50": stat.Quantile(0.50, stat.Empirical, sorted, nil),
			"p75": stat.Quantile(0.75, stat.Empirical, sorted, nil),
			"p95": stat.Quantile(0.95, stat.Empirical, sorted, nil),
		},
		Histogram: computeHistogram(sorted, predictionHistogramBins),
	}
}

// computeHistogram bins sorted data into equal-width bins over its range.
func computeHistogram(sorted []float64, bins int) *models.Histogram {
	lo := sorted[0]
	hi := sorted[len(sorted)-1]
	if hi == lo {
		hi = lo + 1e-9
	}

	width := (hi - lo) / float64(bins)
	edges := make([]float64, bins+1)
	for i := range edges {
		edges[i] = lo + float64(i)*width
	}
	edges[bins] = hi

	counts := make([]int, bins)
	for _, v := range sorted {
		bin := int((v - lo) / width)
		if bin >= bins {
			bin = bins - 1
		}
		if bin < 0 {
			bin = 0
		}
		counts[bin]++
	}

	return &models.Histogram{Counts: counts, BinEdges: edges}
}
