package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/comitanigiacomo/syllabus-pulse/internal/core/domain"
	"github.com/redis/go-redis/v9"
)

const cacheTTL = 30 * time.Minute

var _ domain.StateRepository = (*CachedStateRepository)(nil)

type cachedValue struct {
	Value []byte `json:"v"`
}

// CachedStateRepository is a read-through Redis cache in front of another
// repository. Every write invalidates the touched keys.
type CachedStateRepository struct {
	next   domain.StateRepository
	cache  *redis.Client
	prefix string
}

func NewCachedStateRepository(next domain.StateRepository, cache *redis.Client, prefix string) *CachedStateRepository {
	if prefix == "" {
		prefix = "pulse"
	}
	return &CachedStateRepository{
		next:   next,
		cache:  cache,
		prefix: prefix,
	}
}

func (r *CachedStateRepository) cacheKey(key string) string {
	return fmt.Sprintf("%s:state:%s", r.prefix, key)
}

func (r *CachedStateRepository) invalidate(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	cacheKeys := make([]string, len(keys))
	for i, k := range keys {
		cacheKeys[i] = r.cacheKey(k)
	}
	if err := r.cache.Del(ctx, cacheKeys...).Err(); err != nil {
		log.Printf("[CACHE] Failed to invalidate %v: %v", keys, err)
	}
}

func (r *CachedStateRepository) Get(ctx context.Context, key string) ([]byte, error) {
	ck := r.cacheKey(key)

	val, err := r.cache.Get(ctx, ck).Result()
	if err == nil {
		var cached cachedValue
		if err := json.Unmarshal([]byte(val), &cached); err == nil {
			return cached.Value, nil
		}

		log.Printf("[CACHE] Corrupted entry for %s, cleaning up key", key)
		r.cache.Del(ctx, ck)
	} else if !errors.Is(err, redis.Nil) {
		log.Printf("[CACHE] Redis read error: %v", err)
	}

	value, err := r.next.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cachedValue{Value: value}); err == nil {
		if setErr := r.cache.Set(ctx, ck, data, cacheTTL).Err(); setErr != nil {
			log.Printf("[CACHE] Redis set error: %v", setErr)
		}
	}

	return value, nil
}

func (r *CachedStateRepository) Put(ctx context.Context, key string, value []byte) error {
	return r.PutMany(ctx, map[string][]byte{key: value})
}

func (r *CachedStateRepository) PutMany(ctx context.Context, entries map[string][]byte) error {
	keys := make([]string, 0, len(entries))
	for k := range entries {
		keys = append(keys, k)
	}
	defer r.invalidate(ctx, keys...)

	return r.next.PutMany(ctx, entries)
}

func (r *CachedStateRepository) Delete(ctx context.Context, keys ...string) error {
	defer r.invalidate(ctx, keys...)

	return r.next.Delete(ctx, keys...)
}

func (r *CachedStateRepository) Clear(ctx context.Context) error {
	keys, err := r.next.Keys(ctx)
	if err == nil {
		defer r.invalidate(ctx, keys...)
	}

	return r.next.Clear(ctx)
}

func (r *CachedStateRepository) Keys(ctx context.Context) ([]string, error) {
	return r.next.Keys(ctx)
}

// Ping checks the underlying store only. Redis health is reported separately.
func (r *CachedStateRepository) Ping(ctx context.Context) error {
	if p, ok := r.next.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
