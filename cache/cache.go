// Package cache provides content-addressed caching for encoded property bags.
//
// Entries are keyed by the digest of the encoded buffer, so identical bags
// deduplicate and a hit can be verified by rehashing the content.
package cache

import "github.com/opencontainers/go-digest"

// Cache stores encoded property bags by digest.
//
// Implementations should handle their own size limits and eviction policies.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the buffer stored under dgst.
	// Returns nil, false if the buffer is not cached or fails verification.
	Get(dgst digest.Digest) ([]byte, bool)

	// Put stores buf and returns its digest.
	Put(buf []byte) (digest.Digest, error)

	// Delete removes the entry for dgst.
	// Implementations should treat missing entries as a no-op.
	Delete(dgst digest.Digest) error

	// MaxBytes returns the configured cache size limit (0 = unlimited).
	MaxBytes() int64

	// SizeBytes returns the current cache size in bytes.
	SizeBytes() int64

	// Prune removes cached entries until the cache is at or below targetBytes.
	// Returns the number of bytes freed.
	Prune(targetBytes int64) (int64, error)
}

// Loader is implemented by caches that can fill a miss from a load function,
// sharing one load between concurrent callers for the same digest.
type Loader interface {
	GetOrLoad(dgst digest.Digest, load func() ([]byte, error)) ([]byte, error)
}
