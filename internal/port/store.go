package port

import "context"

// RecordStore abstracts the keyed hash-map store backing repository
// records. The only concurrency primitives relied upon are the atomic
// counter increment and per-key field operations.
type RecordStore interface {
	// Get reads a plain string key. Returns "" when the key is absent.
	Get(ctx context.Context, key string) (string, error)

	// SetNX sets a plain string key only if it does not exist yet.
	// Reports whether the write happened.
	SetNX(ctx context.Context, key, value string) (bool, error)

	// Incr atomically increments a counter key and returns the new value.
	Incr(ctx context.Context, key string) (int64, error)

	// GetField reads one field of a record hash. Returns "" when either
	// the record or the field is absent.
	GetField(ctx context.Context, key, field string) (string, error)

	// GetAll reads a whole record hash. Absent records yield an empty map.
	GetAll(ctx context.Context, key string) (map[string]string, error)

	// SetFields writes fields into a record hash as one operation.
	SetFields(ctx context.Context, key string, fields map[string]any) error

	// DeleteField removes fields from a record hash.
	DeleteField(ctx context.Context, key string, fields ...string) error

	// Delete removes whole keys (records or mappings).
	Delete(ctx context.Context, keys ...string) error

	// Keys returns all keys matching a glob pattern.
	Keys(ctx context.Context, pattern string) ([]string, error)

	// MultiGetAll reads several record hashes in one pipelined round
	// trip, preserving the order of keys.
	MultiGetAll(ctx context.Context, keys []string) ([]map[string]string, error)
}
