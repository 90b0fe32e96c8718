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

func newTestPointerManager(t *testing.T) (*PointerManager, *ModelStore) {
	t.Helper()
	store, err := local.NewStore(t.TempDir(), nil)
	require.NoError(t, err)
	ms := NewModelStore(store, "onnx", nil)
	return NewPointerManager(store, ms, "production", nil), ms
}

// stepClock makes each pm.now() call return a strictly later time, so
// consecutive promotions archive under distinct history keys.
func stepClock(pm *PointerManager) {
	base := time.Date(2025, 1, 18, 12, 0, 0, 0, time.UTC)
	calls := 0
	pm.now = func() time.Time {
		calls++
		return base.Add(time.Duration(calls) * time.Minute)
	}
}

func TestGetCurrentNoPointer(t *testing.T) {
	pm, _ := newTestPointerManager(t)

	record, err := pm.GetCurrent(context.Background())
	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestPromoteFirstVersion(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	version := "v20250118_120000_abc123"
	publishVersion(t, ms, version)

	record, err := pm.Promote(ctx, version, "alice", "initial deployment")
	require.NoError(t, err)

	assert.Equal(t, version, record.ModelVersion)
	assert.Empty(t, record.PreviousVersion)
	assert.Equal(t, "0123456789abcdef0123456789abcdef", record.SchemaHash)
	assert.Equal(t, "production", record.Environment)
	assert.Equal(t, "alice", record.PromotedBy)
	assert.Equal(t, "initial deployment", record.PromotionReason)
	assert.True(t, record.Approved)
	assert.Contains(t, record.ModelPath, version+".onnx")

	current, err := pm.GetCurrent(ctx)
	require.NoError(t, err)
	require.NotNil(t, current)
	assert.Equal(t, version, current.ModelVersion)
}

func TestPromoteInvalidVersionFormat(t *testing.T) {
	pm, _ := newTestPointerManager(t)

	_, err := pm.Promote(context.Background(), "model-v2", "alice", "")
	require.Error(t, err)
	assert.Equal(t, errors.KindValidation, errors.KindOf(err))
	assert.Equal(t, errors.CodeInvalidFormat, errors.CodeOf(err))
}

func TestPromoteMissingArtifacts(t *testing.T) {
	pm, _ := newTestPointerManager(t)

	_, err := pm.Promote(context.Background(), "v20250118_120000_abc123", "alice", "")
	require.Error(t, err)
	assert.Equal(t, errors.KindIntegrity, errors.KindOf(err))
}

func TestPromoteArchivesPrevious(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	v1 := "v20250118_120000_abc123"
	v2 := "v20250119_090000_def456"
	publishVersion(t, ms, v1)
	publishVersion(t, ms, v2)

	_, err := pm.Promote(ctx, v1, "alice", "initial")
	require.NoError(t, err)

	record, err := pm.Promote(ctx, v2, "bob", "retrain")
	require.NoError(t, err)
	assert.Equal(t, v2, record.ModelVersion)
	assert.Equal(t, v1, record.PreviousVersion)

	history, err := pm.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, v1, history[0].ModelVersion)
	assert.Equal(t, "alice", history[0].PromotedBy)
}

func TestRollbackNoPointer(t *testing.T) {
	pm, _ := newTestPointerManager(t)

	_, err := pm.Rollback(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoPreviousVersion, errors.CodeOf(err))
}

func TestRollbackNoPreviousVersion(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	version := "v20250118_120000_abc123"
	publishVersion(t, ms, version)
	_, err := pm.Promote(ctx, version, "alice", "initial")
	require.NoError(t, err)

	_, err = pm.Rollback(ctx)
	require.Error(t, err)
	assert.Equal(t, errors.CodeNoPreviousVersion, errors.CodeOf(err))
}

func TestRollbackRestoresPrevious(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	v1 := "v20250118_120000_abc123"
	v2 := "v20250119_090000_def456"
	publishVersion(t, ms, v1)
	publishVersion(t, ms, v2)

	_, err := pm.Promote(ctx, v1, "alice", "initial")
	require.NoError(t, err)
	_, err = pm.Promote(ctx, v2, "bob", "retrain")
	require.NoError(t, err)

	record, err := pm.Rollback(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, record.ModelVersion)
	assert.Equal(t, v2, record.PreviousVersion)
	assert.Equal(t, "system_rollback", record.PromotedBy)
	assert.Contains(t, record.PromotionReason, v2)

	current, err := pm.GetCurrent(ctx)
	require.NoError(t, err)
	assert.Equal(t, v1, current.ModelVersion)
}

func TestHistoryMostRecentFirst(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	versions := []string{
		"v20250118_120000_abc123",
		"v20250119_090000_def456",
		"v20250120_090000_aaa111",
	}
	for _, v := range versions {
		publishVersion(t, ms, v)
		_, err := pm.Promote(ctx, v, "alice", "rollout")
		require.NoError(t, err)
	}

	history, err := pm.History(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, versions[1], history[0].ModelVersion)
	assert.Equal(t, versions[0], history[1].ModelVersion)

	limited, err := pm.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, versions[1], limited[0].ModelVersion)
}

func TestHistoryNonPositiveLimit(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	version := "v20250118_120000_abc123"
	publishVersion(t, ms, version)
	_, err := pm.Promote(ctx, version, "alice", "initial")
	require.NoError(t, err)

	for _, limit := range []int{0, -1, -100} {
		history, err := pm.History(ctx, limit)
		require.NoError(t, err)
		assert.Empty(t, history)
	}
}

func TestValidatePointer(t *testing.T) {
	pm, ms := newTestPointerManager(t)
	ctx := context.Background()
	stepClock(pm)

	version := "v20250118_120000_abc123"
	publishVersion(t, ms, version)
	record, err := pm.Promote(ctx, version, "alice", "initial")
	require.NoError(t, err)

	assert.True(t, pm.ValidatePointer(ctx, record))
	assert.False(t, pm.ValidatePointer(ctx, nil))

	// Pointer referencing a version whose baseline was never uploaded.
	incomplete := "v20250119_090000_def456"
	_, err = ms.UploadModel(ctx, incomplete, []byte("artifact"))
	require.NoError(t, err)
	_, err = ms.UploadMetadata(ctx, incomplete, testMetadata(incomplete))
	require.NoError(t, err)

	stale := &models.PointerRecord{ModelVersion: incomplete}
	assert.False(t, pm.ValidatePointer(ctx, stale))
}

func TestEnvironment(t *testing.T) {
	pm, _ := newTestPointerManager(t)
	assert.Equal(t, "production", pm.Environment())
}
