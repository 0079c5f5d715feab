package pipeline

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
)

// Store is the durable artifact store behind the registry.
type Store interface {
	Get(name string) (*Artifact, bool, error)
	Put(artifact *Artifact) error
	Delete(name string) (bool, error)
	List() ([]*Artifact, error)
}

// Registry serves artifacts from an in-memory cache backed by a Store.
// A cache miss triggers a full reload from the store before the name is
// declared not found. Entries are replaced whole, never mutated in place.
type Registry struct {
	mu     sync.RWMutex
	store  Store
	cache  *lru.Cache[string, *Artifact]
	logger *zap.Logger
}

func NewRegistry(store Store, cacheSize int, logger *zap.Logger) (*Registry, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, *Artifact](cacheSize)
	if err != nil {
		return nil, err
	}
	return &Registry{store: store, cache: cache, logger: logger}, nil
}

func (r *Registry) Get(name string) (*Artifact, error) {
	r.mu.RLock()
	artifact, ok := r.cache.Get(name)
	r.mu.RUnlock()
	if ok {
		return artifact, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if artifact, ok := r.cache.Get(name); ok {
		return artifact, nil
	}
	if _, err := r.reloadLocked(); err != nil {
		return nil, err
	}
	if artifact, ok := r.cache.Get(name); ok {
		return artifact, nil
	}
	return nil, &ModelNotFoundError{Name: name, Available: r.namesLocked()}
}

func (r *Registry) Put(artifact *Artifact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.store.Put(artifact); err != nil {
		return err
	}
	r.cache.Add(artifact.Name, artifact)
	return nil
}

// Delete removes the artifact and everything keyed by it from the store
// and the cache. Reports false when the name was absent.
func (r *Registry) Delete(name string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted, err := r.store.Delete(name)
	if err != nil {
		return false, err
	}
	r.cache.Remove(name)
	return deleted, nil
}

// Reload replaces the cache contents with the store contents and returns
// the number of artifacts loaded.
func (r *Registry) Reload() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reloadLocked()
}

func (r *Registry) reloadLocked() (int, error) {
	artifacts, err := r.store.List()
	if err != nil {
		return 0, err
	}
	r.cache.Purge()
	for _, artifact := range artifacts {
		r.cache.Add(artifact.Name, artifact)
	}
	if r.logger != nil {
		r.logger.Info("loaded models from store", zap.Int("count", len(artifacts)))
	}
	return len(artifacts), nil
}

func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.namesLocked()
}

func (r *Registry) namesLocked() []string {
	names := r.cache.Keys()
	sort.Strings(names)
	return names
}
