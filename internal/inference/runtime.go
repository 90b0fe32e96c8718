package inference

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/inferstack/mlserve/pkg/interfaces"
)

// linearModelDoc is the JSON artifact format the built-in runtime accepts:
// per-class coefficient rows plus intercepts. One row means binary logistic
// regression; several rows mean multinomial with softmax.
type linearModelDoc struct {
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
	NFeatures    int         `json:"n_features"`
}

// LinearRuntime is the built-in inference runtime: a linear classifier over
// a JSON coefficient artifact. It exists so the serving stack runs without
// an external model runtime; production deployments plug in their own
// InferenceRuntime.
type LinearRuntime struct{}

// NewLinearRuntime returns the built-in linear classifier runtime.
func NewLinearRuntime() *LinearRuntime {
	return &LinearRuntime{}
}

// LoadModel parses and validates a coefficient artifact.
func (r *LinearRuntime) LoadModel(artifact []byte) (interfaces.ModelHandle, error) {
	var doc linearModelDoc
	if err := json.Unmarshal(artifact, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse linear model artifact: %w", err)
	}
	if len(doc.Coefficients) == 0 {
		return nil, fmt.Errorf("linear model artifact has no coefficient rows")
	}
	if len(doc.Intercepts) != len(doc.Coefficients) {
		return nil, fmt.Errorf("linear model artifact has %d intercepts for %d coefficient rows",
			len(doc.Intercepts), len(doc.Coefficients))
	}
	nFeatures := len(doc.Coefficients[0])
	for i, row := range doc.Coefficients {
		if len(row) != nFeatures {
			return nil, fmt.Errorf("coefficient row %d has %d values, expected %d", i, len(row), nFeatures)
		}
	}
	if doc.NFeatures != 0 && doc.NFeatures != nFeatures {
		return nil, fmt.Errorf("artifact declares %d features but has %d coefficients", doc.NFeatures, nFeatures)
	}
	return &linearHandle{doc: doc, nFeatures: nFeatures}, nil
}

type linearHandle struct {
	doc       linearModelDoc
	nFeatures int
}

// Predict scores a row-major feature matrix. Handles are stateless after
// load and safe for concurrent use.
func (h *linearHandle) Predict(features [][]float64) ([]int, [][]float64, error) {
	classes := make([]int, len(features))
	probabilities := make([][]float64, len(features))

	for i, row := range features {
		if len(row) != h.nFeatures {
			return nil, nil, fmt.Errorf("row %d has %d features, model expects %d", i, len(row), h.nFeatures)
		}
		probs := h.scoreRow(row)
		class := 0
		for c := 1; c < len(probs); c++ {
			if probs[c] > probs[class] {
				class = c
			}
		}
		classes[i] = class
		probabilities[i] = probs
	}
	return classes, probabilities, nil
}

func (h *linearHandle) scoreRow(row []float64) []float64 {
	if len(h.doc.Coefficients) == 1 {
		// Binary logistic: one coefficient row scores the positive class.
		z := h.doc.Intercepts[0]
		for j, w := range h.doc.Coefficients[0] {
			z += w * row[j]
		}
		p := 1.0 / (1.0 + math.Exp(-z))
		return []float64{1 - p, p}
	}

	logits := make([]float64, len(h.doc.Coefficients))
	maxLogit := math.Inf(-1)
	for c, coeffs := range h.doc.Coefficients {
		z := h.doc.Intercepts[c]
		for j, w := range coeffs {
			z += w * row[j]
		}
		logits[c] = z
		if z > maxLogit {
			maxLogit = z
		}
	}

	// Softmax with the max subtracted for numeric stability.
	sum := 0.0
	probs := make([]float64, len(logits))
	for c, z := range logits {
		probs[c] = math.Exp(z - maxLogit)
		sum += probs[c]
	}
	for c := range probs {
		probs[c] /= sum
	}
	return probs
}

func (h *linearHandle) Close() error {
	return nil
}
