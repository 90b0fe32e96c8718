// Package registry implements model artifact storage and the serving
// pointer protocol: the single authoritative record of which model version
// is live for an environment, with promotion, rollback, and audit history.
package registry

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/pkg/constants"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/interfaces"
	"github.com/inferstack/mlserve/pkg/models"
)

// ModelStore maps the typed artifact set of a model version onto the
// artifact store's key scheme.
type ModelStore struct {
	store  interfaces.ArtifactStore
	format string
	logger *logrus.Logger
}

// NewModelStore creates a model store over an artifact store. format is the
// model artifact file extension; empty means the default.
func NewModelStore(store interfaces.ArtifactStore, format string, logger *logrus.Logger) *ModelStore {
	if format == "" {
		format = constants.DefaultModelFormat
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &ModelStore{store: store, format: format, logger: logger}
}

// UploadModel stores a model artifact and returns its URI.
func (ms *ModelStore) UploadModel(ctx context.Context, version string, artifact []byte) (string, error) {
	key := constants.ModelKey(version, ms.format)
	meta := map[string]string{
		"model_version": version,
		"uploaded_at":   time.Now().UTC().Format(time.RFC3339),
	}
	if err := ms.store.PutObject(ctx, key, artifact, meta); err != nil {
		return "", err
	}
	return ms.store.URI(key), nil
}

// UploadMetadata stores model metadata and returns its URI.
func (ms *ModelStore) UploadMetadata(ctx context.Context, version string, metadata *models.ModelMetadata) (string, error) {
	key := constants.MetadataKey(version)
	if err := ms.store.PutJSON(ctx, key, metadata); err != nil {
		return "", err
	}
	return ms.store.URI(key), nil
}

// UploadBaseline stores baseline statistics and returns their URI.
func (ms *ModelStore) UploadBaseline(ctx context.Context, version string, baseline *models.Baseline) (string, error) {
	key := constants.BaselineKey(version)
	if err := ms.store.PutJSON(ctx, key, baseline); err != nil {
		return "", err
	}
	return ms.store.URI(key), nil
}

// DownloadModel fetches the raw model artifact bytes for a version.
func (ms *ModelStore) DownloadModel(ctx context.Context, version string) ([]byte, error) {
	return ms.store.GetObject(ctx, constants.ModelKey(version, ms.format))
}

// GetMetadata fetches and decodes a version's metadata.
func (ms *ModelStore) GetMetadata(ctx context.Context, version string) (*models.ModelMetadata, error) {
	var metadata models.ModelMetadata
	if err := ms.store.GetJSON(ctx, constants.MetadataKey(version), &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

// GetBaseline fetches and decodes a version's baseline statistics.
func (ms *ModelStore) GetBaseline(ctx context.Context, version string) (*models.Baseline, error) {
	var baseline models.Baseline
	if err := ms.store.GetJSON(ctx, constants.BaselineKey(version), &baseline); err != nil {
		return nil, err
	}
	return &baseline, nil
}

// ListVersions returns all published model versions, newest first. The
// version format sorts lexicographically by training time.
func (ms *ModelStore) ListVersions(ctx context.Context) ([]string, error) {
	keys, err := ms.store.ListKeys(ctx, constants.ModelPrefix)
	if err != nil {
		return nil, err
	}

	suffix := "." + ms.format
	versions := make([]string, 0, len(keys))
	for _, key := range keys {
		if !strings.HasSuffix(key, suffix) {
			continue
		}
		version := strings.TrimSuffix(strings.TrimPrefix(key, constants.ModelPrefix), suffix)
		if models.ValidateVersion(version) == nil {
			versions = append(versions, version)
		}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(versions)))
	return versions, nil
}

// VerifyArtifacts checks that model, metadata, and baseline objects all
// exist for a version. Existence only; content is not inspected here.
func (ms *ModelStore) VerifyArtifacts(ctx context.Context, version string) error {
	checks := []struct {
		key  string
		code string
		what string
	}{
		{constants.ModelKey(version, ms.format), errors.CodeModelNotFound, "model"},
		{constants.MetadataKey(version), errors.CodeMetadataNotFound, "metadata"},
		{constants.BaselineKey(version), errors.CodeBaselineNotFound, "baseline"},
	}
	for _, check := range checks {
		exists, err := ms.store.Exists(ctx, check.key)
		if err != nil {
			return err
		}
		if !exists {
			return errors.NewIntegrityError(check.code, check.what+" not found: "+check.key)
		}
	}
	return nil
}

// Format returns the model artifact file extension.
func (ms *ModelStore) Format() string {
	return ms.format
}
