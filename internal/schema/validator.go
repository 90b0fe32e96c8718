package schema

import (
	"fmt"

	"github.com/inferstack/mlserve/pkg/models"
)

// ValidateCompatibility checks new data against a registered schema. All
// violations are accumulated so one call surfaces every problem: feature
// count, feature names and order, and per-column declared types, in that
// order. A transposed column set gets its own error, not a generic name
// mismatch.
func ValidateCompatibility(newData *models.Dataset, existing *models.Schema, excludeColumn string) (bool, []string) {
	var errs []string

	columns := newData.FeatureColumns(excludeColumn)
	names := make([]string, len(columns))
	for i, col := range columns {
		names[i] = col.Name
	}

	if len(columns) != existing.NFeatures {
		errs = append(errs, fmt.Sprintf("feature count mismatch: %d vs %d", len(columns), existing.NFeatures))
	}

	if !equalStrings(names, existing.FeatureNames) {
		if sameNameSet(names, existing.FeatureNames) {
			errs = append(errs, fmt.Sprintf("feature order mismatch: %v vs %v (same columns, different order)", names, existing.FeatureNames))
		} else {
			errs = append(errs, fmt.Sprintf("feature names mismatch: %v vs %v", names, existing.FeatureNames))
		}
	}

	for _, field := range existing.StructuralSchema {
		col := findColumn(columns, field.Name)
		if col == nil {
			continue
		}
		if col.DType != field.DType {
			errs = append(errs, fmt.Sprintf("data type mismatch for %q: %s vs %s", field.Name, col.DType, field.DType))
		}
	}

	return len(errs) == 0, errs
}

func findColumn(columns []models.Column, name string) *models.Column {
	for i := range columns {
		if columns[i].Name == name {
			return &columns[i]
		}
	}
	return nil
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameNameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]int, len(a))
	for _, name := range a {
		set[name]++
	}
	for _, name := range b {
		set[name]--
		if set[name] < 0 {
			return false
		}
	}
	return true
}
