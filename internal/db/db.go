package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
//
//nolint:interfacebloat // facade by design -- consumers use narrow sub-interfaces (ISP)
type Store interface {
	Pinger
	JSONStore
	KVStore
	KeyScanner
	StreamStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// JSONStore provides JSON document operations.
type JSONStore interface {
	JSONSet(ctx context.Context, key, path string, data []byte) error
	JSONGet(ctx context.Context, key string) ([]byte, error)
	// JSONGetMulti returns one entry per key, nil for keys that do not exist.
	JSONGetMulti(ctx context.Context, keys []string) ([][]byte, error)
	Del(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// KVStore provides simple key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// KeyScanner iterates keys by pattern.
type KeyScanner interface {
	// Scan returns keys matching pattern, at most limit of them (limit <= 0 means no limit).
	Scan(ctx context.Context, pattern string, limit int) ([]string, error)
}

// StreamEntry is a single stream message.
type StreamEntry struct {
	ID     string
	Fields map[string]string
}

// StreamStore provides append-only stream and consumer group operations.
type StreamStore interface {
	XAdd(ctx context.Context, stream string, fields map[string]string) (string, error)
	// XGroupCreate creates the group (and the stream) if it does not exist yet.
	XGroupCreate(ctx context.Context, stream, group string) error
	// XReadGroup reads entries after id (">" for new, "0" for own pending). Empty on timeout.
	XReadGroup(
		ctx context.Context, stream, group, consumer, id string, count int, block time.Duration,
	) ([]StreamEntry, error)
	XAck(ctx context.Context, stream, group string, ids ...string) error
}
