package schema

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferstack/mlserve/pkg/models"
)

func registeredSchema() *models.Schema {
	return NewGenerator(nil).Generate(trainingData(), "churned")
}

func TestValidateCompatibilityMatchingData(t *testing.T) {
	compatible, errs := ValidateCompatibility(trainingData(), registeredSchema(), "churned")
	assert.True(t, compatible)
	assert.Empty(t, errs)
}

func TestValidateCompatibilityFeatureCount(t *testing.T) {
	data := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("age", []float64{30}),
	}}

	compatible, errs := ValidateCompatibility(data, registeredSchema(), "")
	assert.False(t, compatible)
	require.NotEmpty(t, errs)
	assert.Contains(t, errs[0], "feature count mismatch")
}

func TestValidateCompatibilityReorderedColumns(t *testing.T) {
	data := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("balance", []float64{100}),
		models.NumericColumn("age", []float64{30}),
		models.CategoricalColumn("segment", []string{"retail"}),
	}}

	compatible, errs := ValidateCompatibility(data, registeredSchema(), "")
	assert.False(t, compatible)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "feature order mismatch")
	assert.Contains(t, errs[0], "same columns, different order")
}

func TestValidateCompatibilityRenamedColumn(t *testing.T) {
	data := &models.Dataset{Columns: []models.Column{
		models.NumericColumn("years", []float64{30}),
		models.NumericColumn("balance", []float64{100}),
		models.CategoricalColumn("segment", []string{"retail"}),
	}}

	compatible, errs := ValidateCompatibility(data, registeredSchema(), "")
	assert.False(t, compatible)
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "feature names mismatch")
	assert.NotContains(t, errs[0], "different order")
}

func TestValidateCompatibilityTypeMismatch(t *testing.T) {
	data := &models.Dataset{Columns: []models.Column{
		models.CategoricalColumn("age", []string{"thirty"}),
		models.NumericColumn("balance", []float64{100}),
		models.CategoricalColumn("segment", []string{"retail"}),
	}}

	compatible, errs := ValidateCompatibility(data, registeredSchema(), "")
	assert.False(t, compatible)
	require.NotEmpty(t, errs)

	found := false
	for _, e := range errs {
		if strings.Contains(e, `data type mismatch for "age"`) {
			found = true
		}
	}
	assert.True(t, found, "expected a dtype error for age, got %v", errs)
}

func TestValidateCompatibilityAccumulatesErrors(t *testing.T) {
	data := &models.Dataset{Columns: []models.Column{
		models.CategoricalColumn("age", []string{"thirty"}),
		models.NumericColumn("extra", []float64{1}),
	}}

	compatible, errs := ValidateCompatibility(data, registeredSchema(), "")
	assert.False(t, compatible)
	assert.GreaterOrEqual(t, len(errs), 2, "all violations are reported at once")
}
