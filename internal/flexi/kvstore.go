package flexi

import "context"

// KVStore is the keyed storage every persisted collection and scalar lives in.
// Stores for documents, folders and the folder cursor share one KVStore and
// use disjoint keys.
//
// A Put must be atomic for readers of that single key: a concurrent Get sees
// either the old or the new value, never a mix. Nothing is atomic across keys.
type KVStore interface {
	// Get returns the raw value stored under key.
	// The bool is false, with a nil error, when the key is absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Put overwrites the value stored under key.
	Put(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys lists every key currently stored, in no particular order.
	Keys(ctx context.Context) ([]string, error)

	// Close releases the underlying storage.
	Close() error
}
