package cache

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

type Options struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// Enabled reports whether a Redis host was configured at all.
func (o Options) Enabled() bool {
	return o.Host != ""
}

func (o Options) Addr() string {
	port := o.Port
	if port == "" {
		port = "6379"
	}
	return fmt.Sprintf("%s:%s", o.Host, port)
}

func NewRedisClient(opts Options) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         opts.Addr(),
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr(), err)
	}

	return rdb, nil
}

// Connect returns nil without error when Redis is not configured or not
// reachable, so callers can fall back to uncached storage.
func Connect(opts Options) *redis.Client {
	if !opts.Enabled() {
		return nil
	}
	rdb, err := NewRedisClient(opts)
	if err != nil {
		log.Printf("[CACHE] redis disabled: %v", err)
		return nil
	}
	log.Printf("[CACHE] connected to redis at %s", opts.Addr())
	return rdb
}
