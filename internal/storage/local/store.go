// Package local implements the artifact store on the local filesystem. It is
// the development-mode backend and the storage double the registry tests run
// against; it honors the same key scheme as the S3 store.
package local

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/inferstack/mlserve/internal/observability"
	"github.com/inferstack/mlserve/pkg/errors"
	"github.com/inferstack/mlserve/pkg/interfaces"
)

// Store implements interfaces.ArtifactStore on a local directory.
type Store struct {
	root   string
	logger *logrus.Logger
	mu     sync.RWMutex
}

// NewStore creates a filesystem-backed artifact store rooted at root.
func NewStore(root string, logger *logrus.Logger) (*Store, error) {
	if root == "" {
		return nil, errors.NewUnavailableError("INVALID_CONFIG", "local storage root is required")
	}
	if logger == nil {
		logger = logrus.New()
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "failed to create storage root")
	}

	logger.WithField("root", root).Info("Initialized local artifact store")
	return &Store{root: root, logger: logger}, nil
}

// Exists reports whether a file exists under the store root.
func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, err := os.Stat(s.path(key))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "stat failed for "+key)
}

// PutObject writes raw bytes under key, creating parent directories.
func (s *Store) PutObject(ctx context.Context, key string, data []byte, metadata map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "mkdir failed for "+key)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		observability.StorageOperationsTotal.WithLabelValues("local", "put", "error").Inc()
		return errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "write failed for "+key)
	}
	observability.StorageOperationsTotal.WithLabelValues("local", "put", "ok").Inc()
	return nil
}

// GetObject reads the raw bytes stored under key.
func (s *Store) GetObject(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			observability.StorageOperationsTotal.WithLabelValues("local", "get", "not_found").Inc()
			return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeObjectNotFound, "object not found: "+key)
		}
		observability.StorageOperationsTotal.WithLabelValues("local", "get", "error").Inc()
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "read failed for "+key)
	}
	observability.StorageOperationsTotal.WithLabelValues("local", "get", "ok").Inc()
	return data, nil
}

// PutJSON marshals v and writes it under key.
func (s *Store) PutJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, errors.KindInternal, "MARSHAL_FAILED", "failed to marshal JSON for "+key)
	}
	return s.PutObject(ctx, key, data, nil)
}

// GetJSON reads key and unmarshals into v.
func (s *Store) GetJSON(ctx context.Context, key string, v any) error {
	data, err := s.GetObject(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return errors.Wrap(err, errors.KindInternal, "UNMARSHAL_FAILED", "invalid JSON at "+key)
	}
	return nil
}

// ListKeys returns all keys under the given prefix, sorted.
func (s *Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	err := filepath.WalkDir(s.root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.KindUnavailable, errors.CodeStoreRequestFailed, "list failed for "+prefix)
	}
	sort.Strings(keys)
	return keys, nil
}

// URI returns the file:// URI for a key.
func (s *Store) URI(key string) string {
	return fmt.Sprintf("file://%s", filepath.Join(s.root, filepath.FromSlash(key)))
}

func (s *Store) path(key string) string {
	return filepath.Join(s.root, filepath.FromSlash(key))
}

var _ interfaces.ArtifactStore = (*Store)(nil)
