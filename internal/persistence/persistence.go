package persistence

import (
	"context"
)

// Storage is the key/value store session credentials are persisted in.
type Storage interface {
	Load(ctx context.Context, key string) (string, bool, error)
	// Store writes every entry or none of them.
	Store(ctx context.Context, entries map[string]string) error
	Delete(ctx context.Context, keys ...string) error
}
