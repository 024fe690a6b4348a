package domain

import (
	"context"
	"time"
)

// ─── Storage Interfaces ─────────────────────────────────────────────────────
// Infrastructure implements them; the application layer depends on them.

// KVStore is the persistent key-value medium the record store writes to.
// Each collection lives under its own key as a JSON array.
type KVStore interface {
	// Get returns the raw value for key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) ([]byte, error)

	// Put overwrites the value for key.
	Put(ctx context.Context, key string, value []byte) error

	// Close releases the underlying medium.
	Close() error
}

// BatchKVStore is implemented by media that can write several keys
// atomically. The record store prefers it when saving a snapshot.
type BatchKVStore interface {
	KVStore
	PutMany(ctx context.Context, entries map[string][]byte) error
}

// StampedKVStore is implemented by media that record when each key was
// last written.
type StampedKVStore interface {
	KVStore
	UpdatedAt(ctx context.Context, key string) (time.Time, error)
}
