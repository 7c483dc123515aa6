package cachefile

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"asanaid/internal/domain"
	"asanaid/internal/ports"
)

// DefaultPath is the cache file written next to the configuration.
const DefaultPath = ".asanaid.cache.yaml"

// Store implements ports.CacheStore on a YAML file.
type Store struct {
	path string
}

// Ensure Store implements CacheStore
var _ ports.CacheStore = (*Store)(nil)

// NewStore creates a YAML cache store at the given path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load reads the cache file. A missing or empty file yields an empty
// cache; a malformed file is an error, no partial state is trusted.
func (s *Store) Load() (*domain.CacheRoot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.NewCacheRoot(), nil
		}
		return nil, fmt.Errorf("read cache %s: %w", s.path, err)
	}

	cache := domain.NewCacheRoot()
	if err := yaml.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("invalid cache file %s: %w", s.path, err)
	}
	if cache.Projects == nil {
		cache.Projects = make(map[string]*domain.ProjectCounters)
	}
	return cache, nil
}

// Save writes the cache atomically: marshal to a temp file in the same
// directory, then rename over the destination. A concurrent reader sees
// either the old file or the new one, never a partial write.
func (s *Store) Save(cache *domain.CacheRoot) error {
	data, err := yaml.Marshal(cache)
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".asanaid.cache.*.tmp")
	if err != nil {
		return fmt.Errorf("create temp cache file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close cache file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace cache %s: %w", s.path, err)
	}
	return nil
}
