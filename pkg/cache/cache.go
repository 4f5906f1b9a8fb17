// Package cache provides pluggable cache backends for fetched remote
// documents.
//
// Backends store opaque byte values under string keys with per-entry TTLs.
// The file backend serves CLI usage, the Redis backend shared multi-host
// deployments, and the null backend disables caching entirely. Keys are
// generated through a Keyer so every cacheable document class hashes its
// inputs the same way everywhere.
package cache

import (
	"context"
	"time"
)

// TTLs for the cacheable document classes.
const (
	// TTLHistory is how long a fetched release-history document stays fresh.
	// Release pages change only when a maintainer publishes, so a day is a
	// safe default for update checks.
	TTLHistory = 24 * time.Hour

	// TTLStats is how long a fetched ecosystem-statistics document stays
	// fresh. Counters move constantly but consumers only need day-level
	// resolution.
	TTLStats = 24 * time.Hour

	// TTLHTTP is the default for raw HTTP response bodies without a more
	// specific class.
	TTLHTTP = 12 * time.Hour
)

// Cache is the interface for cache backends.
//
// Get returns (data, true, nil) on a hit and (nil, false, nil) on a miss;
// errors are reserved for backend failures. Set with a zero TTL stores the
// entry without expiry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}
