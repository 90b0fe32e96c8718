package commands

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/config"
	"github.com/inferstack/mlserve/internal/registry"
	"github.com/inferstack/mlserve/internal/storage/local"
	"github.com/inferstack/mlserve/internal/storage/s3"
	"github.com/inferstack/mlserve/pkg/interfaces"
)

// Shared global flags, bound by the root command.
var (
	ConfigFile string
	Verbose    bool
)

// runtime bundles the collaborators every command needs.
type runtime struct {
	cfg        *config.Config
	logger     *logrus.Logger
	store      interfaces.ArtifactStore
	modelStore *registry.ModelStore
	pointers   *registry.PointerManager
}

// newRuntime loads configuration and constructs the store and registry.
// environment overrides the configured environment when non-empty.
func newRuntime(environment string) (*runtime, error) {
	cfg, err := config.Load(ConfigFile)
	if err != nil {
		return nil, err
	}
	if environment != "" {
		cfg.Model.Environment = environment
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	if Verbose {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.WarnLevel)
	}

	var store interfaces.ArtifactStore
	switch cfg.Storage.Backend {
	case "local":
		store, err = local.NewStore(cfg.Storage.LocalPath, logger)
	case "s3":
		store, err = s3.NewStore(&s3.Config{
			Region:          cfg.Storage.Region,
			Bucket:          cfg.Storage.Bucket,
			AccessKeyID:     cfg.Storage.AccessKeyID,
			SecretAccessKey: cfg.Storage.SecretAccessKey,
			Endpoint:        cfg.Storage.Endpoint,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend: %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	modelStore := registry.NewModelStore(store, cfg.Storage.ModelFormat, logger)
	return &runtime{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		modelStore: modelStore,
		pointers:   registry.NewPointerManager(store, modelStore, cfg.Model.Environment, logger),
	}, nil
}
