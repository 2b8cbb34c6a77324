package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
)

var _ domain.StateRepository = (*InMemoryStateRepository)(nil)

type InMemoryStateRepository struct {
	store map[string][]byte

	mu sync.RWMutex
}

func NewInMemoryStateRepository() *InMemoryStateRepository {
	return &InMemoryStateRepository{
		store: make(map[string][]byte),
	}
}

func (r *InMemoryStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, ok := r.store[key]
	if !ok {
		return nil, domain.ErrKeyNotFound
	}
	return append([]byte(nil), value...), nil
}

func (r *InMemoryStateRepository) Put(ctx context.Context, key string, value []byte) error {
	return r.PutMany(ctx, map[string][]byte{key: value})
}

func (r *InMemoryStateRepository) PutMany(ctx context.Context, entries map[string][]byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for k, v := range entries {
		r.store[k] = append([]byte(nil), v...)
	}
	return nil
}

func (r *InMemoryStateRepository) Delete(ctx context.Context, keys ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, k := range keys {
		delete(r.store, k)
	}
	return nil
}

func (r *InMemoryStateRepository) Clear(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.store = make(map[string][]byte)
	return nil
}

func (r *InMemoryStateRepository) Keys(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]string, 0, len(r.store))
	for k := range r.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (r *InMemoryStateRepository) Ping(ctx context.Context) error {
	return nil
}
