package drift

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePSIIdenticalDistributions(t *testing.T) {
	counts := []float64{10, 20, 30, 25, 15}
	psi := CalculatePSI(counts, counts)
	assert.InDelta(t, 0.0, psi, 1e-12)
}

func TestCalculatePSINonNegativeAndFinite(t *testing.T) {
	cases := []struct {
		name     string
		actual   []float64
		expected []float64
	}{
		{"mild shift", []float64{12, 18, 30, 25, 15}, []float64{10, 20, 30, 25, 15}},
		{"heavy shift", []float64{90, 5, 3, 1, 1}, []float64{1, 1, 3, 5, 90}},
		{"empty bin in actual", []float64{0, 30, 40, 30, 0}, []float64{20, 20, 20, 20, 20}},
		{"empty bin in expected", []float64{20, 20, 20, 20, 20}, []float64{0, 30, 40, 30, 0}},
		{"different scales", []float64{1, 2, 3}, []float64{100, 200, 300}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			psi := CalculatePSI(tc.actual, tc.expected)
			assert.False(t, math.IsNaN(psi), "PSI must be finite")
			assert.False(t, math.IsInf(psi, 0), "PSI must be finite")
			assert.GreaterOrEqual(t, psi, 0.0)
		})
	}
}

func TestCalculatePSIScaleInvariant(t *testing.T) {
	// PSI compares normalized histograms, so absolute counts are irrelevant.
	a := []float64{10, 20, 30, 25, 15}
	b := []float64{12, 18, 28, 27, 15}

	psi1 := CalculatePSI(a, b)
	scaled := make([]float64, len(a))
	for i, v := range a {
		scaled[i] = v * 100
	}
	psi2 := CalculatePSI(scaled, b)
	assert.InDelta(t, psi1, psi2, 1e-12)
}

func TestCalculatePSIDetectsLargeShift(t *testing.T) {
	expected := []float64{40, 30, 20, 8, 2}
	actual := []float64{2, 8, 20, 30, 40}
	psi := CalculatePSI(actual, expected)
	assert.Greater(t, psi, 0.2, "a reversed distribution must breach the alert threshold")
}

func TestHistogramPSISameSample(t *testing.T) {
	sample := []float64{1, 2, 2, 3, 3, 3, 4, 4, 5}
	psi := histogramPSI(sample, sample, 10)
	assert.InDelta(t, 0.0, psi, 1e-12)
}

func TestHistogramPSIShiftedSample(t *testing.T) {
	reference := make([]float64, 1000)
	current := make([]float64, 1000)
	for i := range reference {
		reference[i] = float64(i % 100)
		current[i] = float64(i%100) + 80
	}

	psi := histogramPSI(reference, current, 10)
	require.False(t, math.IsNaN(psi))
	assert.Greater(t, psi, 0.2)
}

func TestHistogramPSIEmptySamples(t *testing.T) {
	assert.Equal(t, 0.0, histogramPSI(nil, []float64{1, 2}, 10))
	assert.Equal(t, 0.0, histogramPSI([]float64{1, 2}, nil, 10))
}
