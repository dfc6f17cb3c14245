package repository

import "context"

// KeyValueStore is the string key-value substrate the record store persists into.
// Implementations must apply SetMany atomically: either every key is written or none.
type KeyValueStore interface {
	// Get returns the value for key and whether it exists.
	Get(ctx context.Context, key string) (string, bool, error)
	// Set writes a single key.
	Set(ctx context.Context, key, value string) error
	// SetMany writes all keys in one atomic step.
	SetMany(ctx context.Context, values map[string]string) error
	// Delete removes the given keys. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
}
