// Package inference owns the live model: the currently active artifact set,
// the hot-reload loop that tracks the serving pointer, and the prediction
// path that scores validated feature rows against the active handle.
package inference

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/internal/registry"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/interfaces"
	"github.com/inferstack/mlserve/pkg/models"
)

// ActiveModel is the artifact set currently serving traffic. Once installed
// it is treated as immutable; a reload installs a whole new set.
type ActiveModel struct {
	Version  string
	Handle   interfaces.ModelHandle
	Metadata *models.ModelMetadata
	Baseline *models.Baseline
	Schema   *models.Schema
	Pointer  *models.PointerRecord
	LoadedAt time.Time

	inflight sync.WaitGroup
}

// Release returns a reservation taken with Acquire. The handle is not closed
// until every reservation is released.
func (a *ActiveModel) Release() {
	a.inflight.Done()
}

// retire closes the handle once in-flight calls have drained. Must only be
// called after the model is no longer active, so no new reservations can
// arrive.
func (a *ActiveModel) retire() {
	if a.Handle == nil {
		return
	}
	go func() {
		a.inflight.Wait()
		_ = a.Handle.Close()
	}()
}

// SwapHook observes model swaps. Hooks run outside the state lock, after the
// new model is active.
type SwapHook func(active *ActiveModel)

// ModelState owns the active model and its replacement protocol. The lock
// covers only the read and the swap; artifact download and deserialization
// happen before it is taken, so serving is never blocked on network I/O.
type ModelState struct {
	modelStore *registry.ModelStore
	pointers   *registry.PointerManager
	runtime    interfaces.InferenceRuntime
	logger     *logrus.Logger

	mu     sync.RWMutex
	active *ActiveModel
	hooks  []SwapHook
}

// NewModelState creates an empty model state. Nothing is loaded until the
// first Refresh.
func NewModelState(modelStore *registry.ModelStore, pointers *registry.PointerManager, runtime interfaces.InferenceRuntime, logger *logrus.Logger) *ModelState {
	if logger == nil {
		logger = logrus.New()
	}
	return &ModelState{
		modelStore: modelStore,
		pointers:   pointers,
		runtime:    runtime,
		logger:     logger,
	}
}

// OnSwap registers a hook invoked after every successful swap. Must be
// called before the reload loop starts.
func (s *ModelState) OnSwap(hook SwapHook) {
	s.hooks = append(s.hooks, hook)
}

// Active returns the currently serving model, or nil when none is loaded.
func (s *ModelState) Active() *ActiveModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// Acquire returns the active model with an in-flight reservation, or nil
// when none is loaded. Callers scoring against the handle must use Acquire
// and Release it when the call returns; a concurrent swap then defers
// closing the old handle until the call has drained.
func (s *ModelState) Acquire() *ActiveModel {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active != nil {
		s.active.inflight.Add(1)
	}
	return s.active
}

// ActiveVersion returns the serving version, or empty when none is loaded.
func (s *ModelState) ActiveVersion() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.active == nil {
		return ""
	}
	return s.active.Version
}

// Loaded reports whether a model is serving.
func (s *ModelState) Loaded() bool {
	return s.Active() != nil
}

// Refresh resolves the authoritative pointer and, when it names a version
// different from the active one, loads and installs that version. Returns
// whether a swap happened. On any failure the previously active model stays
// in place.
func (s *ModelState) Refresh(ctx context.Context) (bool, error) {
	record, err := s.pointers.GetCurrent(ctx)
	if err != nil {
		return false, err
	}
	if record == nil {
		return false, nil
	}
	if record.ModelVersion == s.ActiveVersion() {
		return false, nil
	}

	loaded, err := s.load(ctx, record)
	if err != nil {
		return false, err
	}
	return s.install(loaded), nil
}

// load fetches and deserializes a version's full artifact set. No lock is
// held here.
func (s *ModelState) load(ctx context.Context, record *models.PointerRecord) (*ActiveModel, error) {
	version := record.ModelVersion
	log := s.logger.WithField("model_version", version)
	log.Info("Loading model artifacts")

	artifact, err := s.modelStore.DownloadModel(ctx, version)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeArtifactFetchFailed, "failed to fetch model artifact")
	}
	metadata, err := s.modelStore.GetMetadata(ctx, version)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeArtifactFetchFailed, "failed to fetch model metadata")
	}
	baseline, err := s.modelStore.GetBaseline(ctx, version)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeArtifactFetchFailed, "failed to fetch model baseline")
	}

	handle, err := s.runtime.LoadModel(artifact)
	if err != nil {
		return nil, errors.Wrap(err, errors.KindInternal, errors.CodeRuntimeLoadFailed, "failed to load model artifact into runtime")
	}

	log.WithField("artifact_bytes", len(artifact)).Info("Model artifacts loaded")
	return &ActiveModel{
		Version:  version,
		Handle:   handle,
		Metadata: metadata,
		Baseline: baseline,
		Schema:   metadata.Schema,
		Pointer:  record,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// install swaps the loaded model in under the lock. The version comparison
// is repeated here: between the unlocked check in Refresh and this point a
// concurrent reload may already have installed the same version, in which
// case the duplicate is discarded.
func (s *ModelState) install(loaded *ActiveModel) bool {
	s.mu.Lock()
	if s.active != nil && s.active.Version == loaded.Version {
		s.mu.Unlock()
		if loaded.Handle != nil {
			_ = loaded.Handle.Close()
		}
		s.logger.WithField("model_version", loaded.Version).Debug("Discarding duplicate reload")
		return false
	}
	previous := s.active
	s.active = loaded
	s.mu.Unlock()

	fromVersion := "none"
	if previous != nil {
		fromVersion = previous.Version
		previous.retire()
		observability.ModelInfo.DeleteLabelValues(previous.Version, s.pointers.Environment())
	}
	observability.ModelInfo.WithLabelValues(loaded.Version, s.pointers.Environment()).Set(1)
	observability.ModelReloadTotal.WithLabelValues(fromVersion, loaded.Version).Inc()

	s.logger.WithFields(logrus.Fields{
		"from_version": fromVersion,
		"to_version":   loaded.Version,
	}).Info("Model swapped")

	for _, hook := range s.hooks {
		hook(loaded)
	}
	return true
}

// Close releases the active handle, if any.
func (s *ModelState) Close() error {
	s.mu.Lock()
	active := s.active
	s.active = nil
	s.mu.Unlock()

	if active != nil && active.Handle != nil {
		active.inflight.Wait()
		return active.Handle.Close()
	}
	return nil
}
