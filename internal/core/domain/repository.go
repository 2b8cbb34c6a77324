package domain

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("state key not found")

// State keys. Values are stored as JSON text.
const (
	KeySyllabus         = "syllabus"
	KeyDailyTasks       = "daily-tasks"
	KeyLocalLastUpdated = "local-last-updated"
	KeyDateRange        = "date-range"
	KeySelectedConfig   = "selected-config"
	KeyShowTasks        = "show-tasks"
	KeyRemoteToken      = "remote-token"
	KeyRemoteDocID      = "remote-doc-id"
	KeyLastSync         = "last-sync"
	KeyPinHash          = "pin-hash"
	KeyRememberDevice   = "remember-device"
	KeyAutoSync         = "auto-sync"
	KeySetupCompleted   = "setup-completed"
	KeyDeviceID         = "device-id"
)

type StateRepository interface {
	// Get returns the raw value for key or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put inserts or overwrites a single key.
	Put(ctx context.Context, key string, value []byte) error

	// PutMany writes every entry atomically where the backend allows it.
	PutMany(ctx context.Context, entries map[string][]byte) error

	Delete(ctx context.Context, keys ...string) error

	// Clear wipes every key.
	Clear(ctx context.Context) error

	Keys(ctx context.Context) ([]string, error)
}
