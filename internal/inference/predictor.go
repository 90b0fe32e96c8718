package inference

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/monitor"
	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/models"
)

// PredictionResult is the outcome of scoring one feature row.
type PredictionResult struct {
	ModelVersion  string    `json:"model_version"`
	Probability   float64   `json:"probability"`
	Class         int       `json:"prediction"`
	SchemaHash    string    `json:"schema_hash"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Predictor is the serving path: validate a feature row against the active
// schema, score it, and record the event for drift monitoring.
type Predictor struct {
	state  *ModelState
	buffer *monitor.PredictionBuffer
	logger *logrus.Logger
}

// NewPredictor wires the prediction path. buffer may be nil, in which case
// events are not recorded.
func NewPredictor(state *ModelState, buffer *monitor.PredictionBuffer, logger *logrus.Logger) *Predictor {
	if logger == nil {
		logger = logrus.New()
	}
	return &Predictor{state: state, buffer: buffer, logger: logger}
}

// Predict scores a single feature row.
func (p *Predictor) Predict(features map[string]float64) (*PredictionResult, error) {
	results, err := p.PredictBatch([]map[string]float64{features})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// PredictBatch validates every instance, scores the batch in one runtime
// call, and appends one event per instance. Validation is all-or-nothing: a
// single bad instance fails the whole batch before any scoring happens.
func (p *Predictor) PredictBatch(instances []map[string]float64) ([]*PredictionResult, error) {
	active := p.state.Acquire()
	if active == nil {
		return nil, errors.NewNotLoadedError("no model is currently loaded")
	}
	defer active.Release()
	if len(instances) == 0 {
		return nil, errors.NewValidationError(errors.CodeInvalidInput, "empty instance list")
	}

	matrix := make([][]float64, len(instances))
	for i, features := range instances {
		row, err := buildRow(active.Schema, features)
		if err != nil {
			observability.SchemaValidationErrorsTotal.WithLabelValues(active.Version, errors.CodeOf(err)).Inc()
			return nil, err
		}
		matrix[i] = row
	}

	classes, probabilities, err := active.Handle.Predict(matrix)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, errors.CodeInferenceFailed, "inference call failed")
	}
	if len(classes) != len(instances) || len(probabilities) != len(instances) {
		return nil, errors.NewInternalError(fmt.Sprintf("runtime returned %d results for %d instances", len(classes), len(instances)))
	}

	now := time.Now().UTC()
	results := make([]*PredictionResult, len(instances))
	for i := range instances {
		probability := positiveProbability(classes[i], probabilities[i])
		results[i] = &PredictionResult{
			ModelVersion:  active.Version,
			Probability:   probability,
			Class:         classes[i],
			SchemaHash:    active.Schema.SchemaHash,
			CorrelationID: uuid.NewString(),
			Timestamp:     now,
		}
		if p.buffer != nil {
			p.buffer.Append(models.PredictionEvent{
				Features:        instances[i],
				Prediction:      probability,
				PredictionClass: classes[i],
				ModelVersion:    active.Version,
				Timestamp:       now,
				CorrelationID:   results[i].CorrelationID,
			})
		}
	}
	return results, nil
}

// buildRow orders a feature map into the schema's column order. Missing or
// extra features and non-finite values are validation errors.
func buildRow(schema *models.Schema, features map[string]float64) ([]float64, error) {
	if schema == nil {
		return nil, errors.NewInternalError("active model has no schema")
	}
	if len(features) != len(schema.FeatureNames) {
		return nil, schemaMismatch(schema, features)
	}

	row := make([]float64, len(schema.FeatureNames))
	for i, name := range schema.FeatureNames {
		value, ok := features[name]
		if !ok {
			return nil, schemaMismatch(schema, features)
		}
		if math.IsNaN(value) || math.IsInf(value, 0) {
			return nil, errors.NewValidationError(errors.CodeNonFiniteValues,
				fmt.Sprintf("feature %q has a non-finite value", name))
		}
		row[i] = value
	}
	return row, nil
}

func schemaMismatch(schema *models.Schema, features map[string]float64) error {
	missing := make([]string, 0)
	for _, name := range schema.FeatureNames {
		if _, ok := features[name]; !ok {
			missing = append(missing, name)
		}
	}
	extra := len(features) - (len(schema.FeatureNames) - len(missing))
	return errors.NewValidationError(errors.CodeSchemaMismatch,
		fmt.Sprintf("feature set does not match model schema: %d missing, %d unexpected", len(missing), extra)).
		WithContext("missing_features", missing).
		WithContext("expected_features", schema.NFeatures).
		WithContext("received_features", len(features))
}

// positiveProbability reduces a probability vector to the single reported
// score: the positive-class probability for binary models, the winning
// class's probability otherwise.
func positiveProbability(class int, probs []float64) float64 {
	switch {
	case len(probs) == 2:
		return probs[1]
	case class >= 0 && class < len(probs):
		return probs[class]
	case len(probs) > 0:
		return probs[0]
	default:
		return 0
	}
}
