package inference

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func binaryArtifact(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(linearModelDoc{
		Coefficients: [][]float64{{1.5, -0.5}},
		Intercepts:   []float64{0.25},
		NFeatures:    2,
	})
	require.NoError(t, err)
	return data
}

func multiclassArtifact(t *testing.T) []byte {
	t.Helper()
	data, err := json.Marshal(linearModelDoc{
		Coefficients: [][]float64{{1, 0}, {0, 1}, {-1, -1}},
		Intercepts:   []float64{0, 0, 0},
	})
	require.NoError(t, err)
	return data
}

func TestLoadModelRejectsBadArtifacts(t *testing.T) {
	runtime := NewLinearRuntime()

	cases := []struct {
		name     string
		artifact string
	}{
		{"not json", "{broken"},
		{"no coefficient rows", `{"coefficients": [], "intercepts": []}`},
		{"intercept count mismatch", `{"coefficients": [[1, 2]], "intercepts": [0.1, 0.2]}`},
		{"ragged coefficient rows", `{"coefficients": [[1, 2], [3]], "intercepts": [0, 0]}`},
		{"declared feature count mismatch", `{"coefficients": [[1, 2]], "intercepts": [0], "n_features": 5}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := runtime.LoadModel([]byte(tc.artifact))
			assert.Error(t, err)
		})
	}
}

func TestBinaryLogisticPredict(t *testing.T) {
	handle, err := NewLinearRuntime().LoadModel(binaryArtifact(t))
	require.NoError(t, err)
	defer handle.Close()

	classes, probs, err := handle.Predict([][]float64{
		{2.0, 1.0},   // z = 0.25 + 3.0 - 0.5 = 2.75, positive
		{-2.0, 1.0},  // z = 0.25 - 3.0 - 0.5 = -3.25, negative
		{0.0, 0.5},   // z = 0, probability exactly 0.5
	})
	require.NoError(t, err)
	require.Len(t, classes, 3)

	assert.Equal(t, 1, classes[0])
	assert.Equal(t, 0, classes[1])

	expected := 1.0 / (1.0 + math.Exp(-2.75))
	assert.InDelta(t, expected, probs[0][1], 1e-12)

	for _, p := range probs {
		require.Len(t, p, 2)
		assert.InDelta(t, 1.0, p[0]+p[1], 1e-12)
	}
	assert.InDelta(t, 0.5, probs[2][1], 1e-12)
}

func TestMulticlassSoftmaxPredict(t *testing.T) {
	handle, err := NewLinearRuntime().LoadModel(multiclassArtifact(t))
	require.NoError(t, err)
	defer handle.Close()

	classes, probs, err := handle.Predict([][]float64{
		{5.0, 0.0},
		{0.0, 5.0},
		{-5.0, -5.0},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{0, 1, 2}, classes)
	for i, p := range probs {
		require.Len(t, p, 3)
		sum := 0.0
		for _, v := range p {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-12)
		assert.Greater(t, p[classes[i]], 0.5)
	}
}

func TestSoftmaxNumericStability(t *testing.T) {
	data, err := json.Marshal(linearModelDoc{
		Coefficients: [][]float64{{1000}, {-1000}},
		Intercepts:   []float64{0, 0},
	})
	require.NoError(t, err)

	handle, err := NewLinearRuntime().LoadModel(data)
	require.NoError(t, err)

	_, probs, err := handle.Predict([][]float64{{1.0}})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(probs[0][0]))
	assert.InDelta(t, 1.0, probs[0][0], 1e-12)
	assert.InDelta(t, 0.0, probs[0][1], 1e-12)
}

func TestPredictRejectsWrongRowWidth(t *testing.T) {
	handle, err := NewLinearRuntime().LoadModel(binaryArtifact(t))
	require.NoError(t, err)

	_, _, err = handle.Predict([][]float64{{1.0}})
	assert.Error(t, err)
}
