// Package schema derives structural schemas from datasets and validates
// incoming data against a previously fingerprinted schema. The fingerprint
// covers structure only: column names, order, and declared types. Descriptive
// statistics ride along for reporting but never affect the hash.
package schema

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/inferstack/mlserve/pkg/models"
)

// structuralHashLength is the hex length of the schema fingerprint: 32 hex
// characters is 128 bits. Shorter truncations collide in practice and are
// not allowed.
const structuralHashLength = 32

// Generator derives schemas from training datasets.
type Generator struct {
	logger *logrus.Logger
}

// NewGenerator creates a schema generator.
func NewGenerator(logger *logrus.Logger) *Generator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Generator{logger: logger}
}

// Generate derives a schema from a dataset, excluding the target column if
// given. Structural entries keep column order.
func (g *Generator) Generate(data *models.Dataset, excludeColumn string) *models.Schema {
	columns := data.FeatureColumns(excludeColumn)

	structural := make([]models.StructuralField, 0, len(columns))
	descriptive := make(map[string]models.ColumnStats, len(columns))
	names := make([]string, 0, len(columns))

	for idx, col := range columns {
		structural = append(structural, models.StructuralField{
			Name:     col.Name,
			Position: idx,
			DType:    col.DType,
		})
		names = append(names, col.Name)
		descriptive[col.Name] = describeColumn(&col)
	}

	s := &models.Schema{
		StructuralSchema: structural,
		DescriptiveStats: descriptive,
		SchemaHash:       StructuralHash(structural),
		NFeatures:        len(columns),
		FeatureNames:     names,
	}

	g.logger.WithFields(logrus.Fields{
		"n_features":  s.NFeatures,
		"schema_hash": s.SchemaHash,
	}).Info("Generated schema")

	return s
}

// StructuralHash fingerprints the ordered structural schema. Entries are
// serialized canonically (sorted keys) and hashed with SHA-256, truncated to
// 128 bits.
func StructuralHash(structural []models.StructuralField) string {
	canonical := make([]map[string]any, len(structural))
	for i, field := range structural {
		// json.Marshal emits map keys in sorted order, giving a stable
		// serialization independent of struct field order.
		canonical[i] = map[string]any{
			"name":     field.Name,
			"position": field.Position,
			"dtype":    field.DType,
		}
	}

	data, err := json.Marshal(canonical)
	if err != nil {
		// Marshaling plain maps of strings and ints cannot fail.
		panic(err)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])[:structuralHashLength]
}

func describeColumn(col *models.Column) models.ColumnStats {
	n := col.Len()
	missing := col.MissingCount()

	stats := models.ColumnStats{
		NumMissing: missing,
	}
	if n > 0 {
		stats.MissingRate = float64(missing) / float64(n)
	}

	switch col.Kind {
	case models.ColumnNumeric:
		stats.Type = models.StatTypeNumeric
		values := col.NonMissingFloats()
		stats.NumUnique = countUniqueFloats(values)
		if len(values) > 0 {
			stats.Mean = stat.Mean(values, nil)
			stats.Std = stat.StdDev(values, nil)
			if math.IsNaN(stats.Std) {
				stats.Std = 0
			}
			stats.Min, stats.Max = minMax(values)
		}
	case models.ColumnCategorical:
		stats.Type = models.StatTypeCategorical
		stats.NumUnique = countUniqueLabels(col.Labels)
	default:
		stats.Type = models.StatTypeUnsupported
	}
	return stats
}

func countUniqueFloats(values []float64) int {
	seen := make(map[float64]struct{}, len(values))
	for _, v := range values {
		seen[v] = struct{}{}
	}
	return len(seen)
}

func countUniqueLabels(labels []string) int {
	seen := make(map[string]struct{}, len(labels))
	for _, v := range labels {
		if v != "" {
			seen[v] = struct{}{}
		}
	}
	return len(seen)
}

func minMax(values []float64) (float64, float64) {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
