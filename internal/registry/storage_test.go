package registry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferstack/mlserve/internal/storage/local"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/models"
)

func newTestModelStore(t *testing.T) *ModelStore {
	t.Helper()
	store, err := local.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	return NewModelStore(store, "onnx", nil)
}

func testSchema() *models.Schema {
	structural := []models.StructuralField{
		{Name: "age", Position: 0, DType: "float64"},
	}
	return &models.Schema{
		StructuralSchema: structural,
		SchemaHash:       "0123456789abcdef0123456789abcdef",
		NFeatures:        1,
		FeatureNames:     []string{"age"},
	}
}

func testMetadata(version string) *models.ModelMetadata {
	return &models.ModelMetadata{
		ModelVersion: version,
		ModelType:    "logistic_regression",
		TrainedAt:    time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC),
		Schema:       testSchema(),
		Metrics:      map[string]float64{"auc": 0.91},
	}
}

func publishVersion(t *testing.T, ms *ModelStore, version string) {
	t.Helper()
	ctx := context.Background()
	_, err := ms.UploadModel(ctx, version, []byte("artifact-"+version))
	require.NoError(t, err)
	_, err = ms.UploadMetadata(ctx, version, testMetadata(version))
	require.NoError(t, err)
	_, err = ms.UploadBaseline(ctx, version, &models.Baseline{NSamples: 100})
	require.NoError(t, err)
}

func TestModelStoreRoundtrip(t *testing.T) {
	ms := newTestModelStore(t)
	ctx := context.Background()
	version := "v20250118_120000_abc123"

	publishVersion(t, ms, version)

	artifact, err := ms.DownloadModel(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, []byte("artifact-"+version), artifact)

	metadata, err := ms.GetMetadata(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, "logistic_regression", metadata.ModelType)
	assert.Equal(t, []string{"age"}, metadata.Schema.FeatureNames)

	baseline, err := ms.GetBaseline(ctx, version)
	require.NoError(t, err)
	assert.Equal(t, 100, baseline.NSamples)
}

func TestModelStoreDownloadMissingVersion(t *testing.T) {
	ms := newTestModelStore(t)

	_, err := ms.DownloadModel(context.Background(), "v20250118_120000_abc123")
	require.Error(t, err)
	assert.Equal(t, errors.CodeObjectNotFound, errors.CodeOf(err))
}

func TestModelStoreListVersionsNewestFirst(t *testing.T) {
	ms := newTestModelStore(t)
	versions := []string{
		"v20250110_090000_aaa111",
		"v20250118_120000_bbb222",
		"v20250115_060000_ccc333",
	}
	for _, v := range versions {
		publishVersion(t, ms, v)
	}

	listed, err := ms.ListVersions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		"v20250118_120000_bbb222",
		"v20250115_060000_ccc333",
		"v20250110_090000_aaa111",
	}, listed)
}

func TestModelStoreListVersionsSkipsMalformedKeys(t *testing.T) {
	ms := newTestModelStore(t)
	ctx := context.Background()
	publishVersion(t, ms, "v20250118_120000_abc123")

	// Stray objects under the model prefix must not surface as versions.
	require.NoError(t, ms.store.PutObject(ctx, "models/readme.txt", []byte("x"), nil))
	require.NoError(t, ms.store.PutObject(ctx, "models/not-a-version.onnx", []byte("x"), nil))

	listed, err := ms.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"v20250118_120000_abc123"}, listed)
}

func TestVerifyArtifactsComplete(t *testing.T) {
	ms := newTestModelStore(t)
	version := "v20250118_120000_abc123"
	publishVersion(t, ms, version)

	assert.NoError(t, ms.VerifyArtifacts(context.Background(), version))
}

func TestVerifyArtifactsMissingBaseline(t *testing.T) {
	ms := newTestModelStore(t)
	ctx := context.Background()
	version := "v20250118_120000_abc123"

	_, err := ms.UploadModel(ctx, version, []byte("artifact"))
	require.NoError(t, err)
	_, err = ms.UploadMetadata(ctx, version, testMetadata(version))
	require.NoError(t, err)

	err = ms.VerifyArtifacts(ctx, version)
	require.Error(t, err)
	assert.Equal(t, errors.KindIntegrity, errors.KindOf(err))
	assert.Equal(t, errors.CodeBaselineNotFound, errors.CodeOf(err))
}
