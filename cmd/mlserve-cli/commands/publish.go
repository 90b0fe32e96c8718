package commands

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/inferstack/mlserve/internal/baseline"
	"github.com/inferstack/mlserve/internal/inference"
	"github.com/inferstack/mlserve/internal/schema"
	"github.com/inferstack/mlserve/pkg/models"
)

type PublishOptions struct {
	ModelFile    string
	DataFile     string
	TargetColumn string
	ModelType    string
	Metrics      []string
	Version      string
}

func NewPublishCmd() *cobra.Command {
	opts := &PublishOptions{}

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish a model artifact with its schema, metadata, and baseline",
		Long: `Publish derives the feature schema and drift baseline from the training
data, mints a version identifier, and uploads the model artifact, metadata,
and baseline to the artifact store. Publishing does not change which version
any environment serves; use promote for that.`,
		Example: `  mlserve-cli publish \
    --model model.onnx \
    --data training.csv \
    --target churned \
    --model-type gradient_boosting \
    --metric auc=0.91 --metric accuracy=0.87`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPublish(opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ModelFile, "model", "m", "", "Model artifact file (required)")
	cmd.Flags().StringVarP(&opts.DataFile, "data", "d", "", "Training data CSV (required)")
	cmd.Flags().StringVarP(&opts.TargetColumn, "target", "t", "target", "Label column in the training data")
	cmd.Flags().StringVar(&opts.ModelType, "model-type", "", "Model type recorded in metadata (required)")
	cmd.Flags().StringArrayVar(&opts.Metrics, "metric", nil, "Evaluation metric as name=value (repeatable)")
	cmd.Flags().StringVar(&opts.Version, "model-version", "", "Version override (default: minted from time + artifact hash)")
	_ = cmd.MarkFlagRequired("model")
	_ = cmd.MarkFlagRequired("data")
	_ = cmd.MarkFlagRequired("model-type")

	return cmd
}

func runPublish(opts *PublishOptions) error {
	rt, err := newRuntime("")
	if err != nil {
		return err
	}

	artifact, err := os.ReadFile(opts.ModelFile)
	if err != nil {
		return fmt.Errorf("failed to read model artifact: %w", err)
	}

	dataset, err := loadCSVDataset(opts.DataFile)
	if err != nil {
		return err
	}
	if dataset.Column(opts.TargetColumn) == nil {
		return fmt.Errorf("target column %q not found in training data", opts.TargetColumn)
	}

	metrics, err := parseMetrics(opts.Metrics)
	if err != nil {
		return err
	}

	version := opts.Version
	trainedAt := time.Now().UTC()
	if version == "" {
		sum := sha256.Sum256(artifact)
		version, err = models.NewModelVersion(trainedAt, hex.EncodeToString(sum[:]))
		if err != nil {
			return err
		}
	} else if err := models.ValidateVersion(version); err != nil {
		return err
	}

	modelSchema := schema.NewGenerator(rt.logger).Generate(dataset, opts.TargetColumn)
	modelBaseline := baseline.GenerateFeatureBaseline(dataset, opts.TargetColumn, rt.logger)

	// When the built-in runtime can score the artifact, capture the
	// training-time prediction distribution too. Other artifact formats
	// publish a feature-only baseline.
	if stats := scoreTrainingData(artifact, dataset, modelSchema); stats != nil {
		modelBaseline.PredictionStatistics = stats
	}

	metadata := &models.ModelMetadata{
		ModelVersion: version,
		ModelType:    opts.ModelType,
		ModelFormat:  rt.modelStore.Format(),
		TrainedAt:    trainedAt,
		Schema:       modelSchema,
		Metrics:      metrics,
	}
	if err := metadata.Validate(); err != nil {
		return err
	}

	ctx := context.Background()
	modelURI, err := rt.modelStore.UploadModel(ctx, version, artifact)
	if err != nil {
		return err
	}
	if _, err := rt.modelStore.UploadMetadata(ctx, version, metadata); err != nil {
		return err
	}
	if _, err := rt.modelStore.UploadBaseline(ctx, version, modelBaseline); err != nil {
		return err
	}

	fmt.Printf("Published %s\n", version)
	fmt.Printf("Model: %s\n", modelURI)
	fmt.Printf("Schema hash: %s (%d features)\n", modelSchema.SchemaHash, modelSchema.NFeatures)
	fmt.Printf("Baseline: %d samples\n", modelBaseline.NSamples)
	return nil
}

func parseMetrics(raw []string) (map[string]float64, error) {
	metrics := make(map[string]float64, len(raw))
	for _, entry := range raw {
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid metric %q, expected name=value", entry)
		}
		value, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid metric value in %q: %w", entry, err)
		}
		metrics[parts[0]] = value
	}
	return metrics, nil
}

// scoreTrainingData runs the artifact over the training features with the
// built-in runtime. Returns nil when the artifact is not scoreable locally or
// the data has missing or non-numeric features.
func scoreTrainingData(artifact []byte, dataset *models.Dataset, modelSchema *models.Schema) *models.PredictionStats {
	handle, err := inference.NewLinearRuntime().LoadModel(artifact)
	if err != nil {
		return nil
	}
	defer handle.Close()

	rows := dataset.NumRows()
	matrix := make([][]float64, 0, rows)
	for i := 0; i < rows; i++ {
		row := make([]float64, len(modelSchema.FeatureNames))
		for j, name := range modelSchema.FeatureNames {
			col := dataset.Column(name)
			if col == nil || col.Kind != models.ColumnNumeric {
				return nil
			}
			v := col.Floats[i]
			if math.IsNaN(v) {
				return nil
			}
			row[j] = v
		}
		matrix = append(matrix, row)
	}

	_, probabilities, err := handle.Predict(matrix)
	if err != nil {
		return nil
	}
	return baseline.GeneratePredictionBaseline(probabilities, nil)
}
