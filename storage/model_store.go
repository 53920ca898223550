// Package storage persists the active model artifact and the prediction history.
package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"delaycast/ml"
)

// ModelFileName is the fixed name of the artifact inside the storage directory.
const ModelFileName = "model" + ml.ArtifactExt

// ModelStore keeps a single model artifact on disk with an in-memory
// read-through copy. The cache holds one entry and is never cleared.
type ModelStore struct {
	path  string
	cache *lru.Cache[string, ml.Model]
}

// NewModelStore returns a store for the artifact kept in dir. The cache starts
// empty; the first Active call reads the file.
func NewModelStore(dir string) (*ModelStore, error) {
	cache, err := lru.New[string, ml.Model](1)
	if err != nil {
		return nil, err
	}
	return &ModelStore{
		path:  filepath.Join(dir, ModelFileName),
		cache: cache,
	}, nil
}

// Path returns the on-disk location of the artifact.
func (s *ModelStore) Path() string {
	return s.path
}

// Load validates and decodes an uploaded artifact, then overwrites the file on
// disk and the cached model. Nothing is written when validation fails.
func (s *ModelStore) Load(filename string, data []byte) error {
	if !strings.HasSuffix(filename, ml.ArtifactExt) {
		return ErrInvalidFormat
	}

	model, err := ml.Decode(data)
	if err != nil {
		return &DeserializationError{Err: err}
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write model: %w", err)
	}
	s.cache.Add(s.path, model)
	return nil
}

// Active returns the cached model, reading it from disk on a miss.
func (s *ModelStore) Active() (ml.Model, error) {
	if model, ok := s.cache.Get(s.path); ok {
		return model, nil
	}

	model, err := ml.LoadModel(s.path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, ErrNotLoaded
	case errors.Is(err, ml.ErrInvalidArtifact):
		return nil, &DeserializationError{Err: err}
	case err != nil:
		return nil, fmt.Errorf("read model: %w", err)
	}

	s.cache.Add(s.path, model)
	return model, nil
}

// Cached reports whether a model is currently held in memory.
func (s *ModelStore) Cached() bool {
	return s.cache.Contains(s.path)
}
