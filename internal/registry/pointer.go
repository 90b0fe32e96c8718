package registry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/pkg/constants"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/interfaces"
	"github.com/inferstack/mlserve/pkg/models"
)

// PointerManager owns the serving pointer for one environment. Promotion is
// archive-then-write: a crash between the two steps leaves the previous
// pointer authoritative, which is the safe failure direction.
type PointerManager struct {
	store       interfaces.ArtifactStore
	modelStore  *ModelStore
	environment string
	logger      *logrus.Logger
	now         func() time.Time
}

// NewPointerManager creates a pointer manager for an environment.
func NewPointerManager(store interfaces.ArtifactStore, modelStore *ModelStore, environment string, logger *logrus.Logger) *PointerManager {
	if logger == nil {
		logger = logrus.New()
	}
	return &PointerManager{
		store:       store,
		modelStore:  modelStore,
		environment: environment,
		logger:      logger,
		now:         time.Now,
	}
}

// GetCurrent returns the authoritative pointer, or nil when no pointer has
// been written yet.
func (pm *PointerManager) GetCurrent(ctx context.Context) (*models.PointerRecord, error) {
	key := constants.PointerKey(pm.environment)

	exists, err := pm.store.Exists(ctx, key)
	if err != nil {
		return nil, err
	}
	if !exists {
		pm.logger.WithField("key", key).Warn("No serving pointer found")
		return nil, nil
	}

	var record models.PointerRecord
	if err := pm.store.GetJSON(ctx, key, &record); err != nil {
		return nil, err
	}
	return &record, nil
}

// Promote makes a model version authoritative for the environment. It
// validates the version format, verifies every referenced artifact exists,
// checks the metadata contract, archives the current pointer, and writes the
// new one.
func (pm *PointerManager) Promote(ctx context.Context, version, promotedBy, reason string) (*models.PointerRecord, error) {
	if err := models.ValidateVersion(version); err != nil {
		return nil, errors.Wrap(err, errors.KindValidation, errors.CodeInvalidFormat, err.Error())
	}

	if err := pm.modelStore.VerifyArtifacts(ctx, version); err != nil {
		return nil, err
	}

	metadata, err := pm.modelStore.GetMetadata(ctx, version)
	if err != nil {
		return nil, err
	}
	if err := metadata.Validate(); err != nil {
		return nil, errors.Wrap(err, errors.KindIntegrity, errors.CodeInvalidMetadata, err.Error())
	}

	current, err := pm.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}

	previousVersion := ""
	if current != nil {
		previousVersion = current.ModelVersion

		historyKey := constants.HistoryKeyPrefix(pm.environment) + pm.now().UTC().Format("20060102_150405") + ".json"
		if err := pm.store.PutJSON(ctx, historyKey, current); err != nil {
			return nil, err
		}
		pm.logger.WithField("history_key", historyKey).Info("Archived previous serving pointer")
	}

	schemaHash := ""
	if metadata.Schema != nil {
		schemaHash = metadata.Schema.SchemaHash
	}

	record := &models.PointerRecord{
		ModelVersion:    version,
		ModelPath:       pm.store.URI(constants.ModelKey(version, pm.modelStore.Format())),
		MetadataPath:    pm.store.URI(constants.MetadataKey(version)),
		BaselinePath:    pm.store.URI(constants.BaselineKey(version)),
		SchemaHash:      schemaHash,
		PromotedAt:      pm.now().UTC(),
		PromotedBy:      promotedBy,
		PromotionReason: reason,
		PreviousVersion: previousVersion,
		Environment:     pm.environment,
		Approved:        true,
	}

	if err := pm.store.PutJSON(ctx, constants.PointerKey(pm.environment), record); err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodePointerWriteFailed, "failed to write serving pointer")
	}

	pm.logger.WithFields(logrus.Fields{
		"model_version":    version,
		"previous_version": previousVersion,
		"environment":      pm.environment,
		"promoted_by":      promotedBy,
	}).Info("Promoted model")

	return record, nil
}

// Rollback re-promotes the previous version recorded in the current pointer.
func (pm *PointerManager) Rollback(ctx context.Context) (*models.PointerRecord, error) {
	current, err := pm.GetCurrent(ctx)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, errors.NewIntegrityError(errors.CodeNoPreviousVersion, "no current pointer found - cannot rollback")
	}
	if current.PreviousVersion == "" {
		return nil, errors.NewIntegrityError(errors.CodeNoPreviousVersion, "no previous version in pointer - cannot rollback")
	}

	pm.logger.WithFields(logrus.Fields{
		"from_version": current.ModelVersion,
		"to_version":   current.PreviousVersion,
	}).Warn("Rolling back model")

	return pm.Promote(ctx, current.PreviousVersion, "system_rollback", "Rollback from "+current.ModelVersion)
}

// History returns archived pointer records, most recent first, up to limit.
func (pm *PointerManager) History(ctx context.Context, limit int) ([]*models.PointerRecord, error) {
	if limit < 0 {
		limit = 0
	}
	keys, err := pm.store.ListKeys(ctx, constants.HistoryKeyPrefix(pm.environment))
	if err != nil {
		return nil, err
	}

	// Keys embed the archive timestamp, so reverse lexicographic order is
	// reverse chronological order.
	history := make([]*models.PointerRecord, 0, limit)
	for i := len(keys) - 1; i >= 0 && len(history) < limit; i-- {
		var record models.PointerRecord
		if err := pm.store.GetJSON(ctx, keys[i], &record); err != nil {
			pm.logger.WithError(err).WithField("key", keys[i]).Warn("Skipping unreadable history entry")
			continue
		}
		history = append(history, &record)
	}
	return history, nil
}

// ValidatePointer re-checks that every artifact a record references still
// exists in the store.
func (pm *PointerManager) ValidatePointer(ctx context.Context, record *models.PointerRecord) bool {
	if record == nil {
		return false
	}

	keys := []string{
		constants.ModelKey(record.ModelVersion, pm.modelStore.Format()),
		constants.MetadataKey(record.ModelVersion),
		constants.BaselineKey(record.ModelVersion),
	}
	for _, key := range keys {
		exists, err := pm.store.Exists(ctx, key)
		if err != nil || !exists {
			pm.logger.WithFields(logrus.Fields{
				"key":           key,
				"model_version": record.ModelVersion,
			}).Error("Referenced artifact does not exist")
			return false
		}
	}
	return true
}

// Environment returns the environment this manager owns.
func (pm *PointerManager) Environment() string {
	return pm.environment
}
