// Package disk provides a disk-backed cache implementation.
package disk

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/singleflight"

	"github.com/meigma/propbag"
	"github.com/meigma/propbag/cache"
)

const (
	defaultShardPrefixLen = 2
	defaultDirPerm        = 0o700
	tempPattern           = tempPrefix + "*"
	tempPrefix            = "tmp-"
)

var _ cache.Cache = (*Cache)(nil)

// Cache implements cache.Cache using the local filesystem.
// Entries are stored as dir/<algorithm>/<shard>/<encoded>, with optional
// sharding by digest prefix. The cache is safe for concurrent use.
type Cache struct {
	dir            string             // root directory for cached entries
	shardPrefixLen int                // number of hex chars for subdirectory sharding
	dirPerm        os.FileMode        // permissions for created directories
	maxBytes       int64              // maximum cache size (0 = unlimited)
	bytes          atomic.Int64       // current total size of cached entries
	loadGroup      singleflight.Group // deduplicates concurrent loads of one digest
	pruneMu        sync.Mutex         // serializes prune operations
	logger         *slog.Logger
}

// Option configures a disk cache.
type Option func(*Cache)

// WithShardPrefixLen sets the number of hex characters used for sharding.
// Use 0 to disable sharding. Defaults to 2.
func WithShardPrefixLen(n int) Option {
	return func(c *Cache) {
		c.shardPrefixLen = n
	}
}

// WithDirPerm sets the directory permissions used for cache directories.
func WithDirPerm(mode os.FileMode) Option {
	return func(c *Cache) {
		c.dirPerm = mode
	}
}

// WithMaxBytes sets the maximum cache size in bytes.
// Values < 0 are invalid. Use 0 to disable the limit.
func WithMaxBytes(n int64) Option {
	return func(c *Cache) {
		c.maxBytes = n
	}
}

// WithLogger sets the logger for cache maintenance events.
// If not set, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// New creates a disk-backed cache rooted at dir.
func New(dir string, opts ...Option) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache dir is empty")
	}
	c := &Cache{
		dir:            dir,
		shardPrefixLen: defaultShardPrefixLen,
		dirPerm:        defaultDirPerm,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.shardPrefixLen < 0 {
		return nil, errors.New("shard prefix length must be >= 0")
	}
	if c.maxBytes < 0 {
		return nil, errors.New("max bytes must be >= 0")
	}
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return nil, err
	}
	size, err := dirSize(dir)
	if err != nil {
		return nil, err
	}
	c.bytes.Store(size)
	return c, nil
}

// Get returns the buffer stored under dgst. An entry whose content no longer
// matches its digest is removed and reported as a miss.
func (c *Cache) Get(dgst digest.Digest) ([]byte, bool) {
	path, err := c.path(dgst)
	if err != nil {
		return nil, false
	}
	data, err := os.ReadFile(path) //nolint:gosec // path is derived from a validated digest
	if err != nil {
		return nil, false
	}
	if dgst.Algorithm().FromBytes(data) != dgst {
		c.logger.Warn("removing corrupt cache entry", slog.String("digest", dgst.String()))
		c.remove(path, int64(len(data)))
		return nil, false
	}
	// Refresh the modification time so pruning evicts least recently used first.
	now := time.Now()
	_ = os.Chtimes(path, now, now) //nolint:errcheck // recency tracking is best-effort
	return data, true
}

// Put stores buf under its sha256 digest. Buffers larger than the size limit
// are not cached and no error is returned.
func (c *Cache) Put(buf []byte) (digest.Digest, error) {
	dgst := propbag.Digest(buf)
	path, err := c.path(dgst)
	if err != nil {
		return "", err
	}
	if err := c.write(path, buf); err != nil {
		return "", fmt.Errorf("cache %s: %w", dgst, err)
	}
	return dgst, nil
}

// GetOrLoad returns the buffer for dgst, calling load on a miss and caching
// its result. Concurrent calls for the same digest share one load. The loaded
// buffer must match dgst.
func (c *Cache) GetOrLoad(dgst digest.Digest, load func() ([]byte, error)) ([]byte, error) {
	if err := dgst.Validate(); err != nil {
		return nil, err
	}
	result, err, _ := c.loadGroup.Do(dgst.String(), func() (any, error) {
		if data, ok := c.Get(dgst); ok {
			return data, nil
		}
		data, err := load()
		if err != nil {
			return nil, err
		}
		if got := dgst.Algorithm().FromBytes(data); got != dgst {
			return nil, fmt.Errorf("loaded content digest %s does not match %s", got, dgst)
		}
		path, err := c.path(dgst)
		if err != nil {
			return nil, err
		}
		if err := c.write(path, data); err != nil {
			c.logger.Debug("cache write failed", slog.String("digest", dgst.String()), slog.Any("error", err))
		}
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil //nolint:errcheck // type assertion always succeeds when err is nil
}

// Delete removes the entry for dgst.
func (c *Cache) Delete(dgst digest.Digest) error {
	path, err := c.path(dgst)
	if err != nil {
		return err
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if errors.Is(statErr, os.ErrNotExist) {
			return nil
		}
		return statErr
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	c.bytes.Add(-info.Size())
	return nil
}

// MaxBytes returns the configured cache size limit (0 = unlimited).
func (c *Cache) MaxBytes() int64 {
	return c.maxBytes
}

// SizeBytes returns the current cache size in bytes.
func (c *Cache) SizeBytes() int64 {
	return c.bytes.Load()
}

// Prune removes cached entries until the cache is at or below targetBytes,
// least recently used first.
func (c *Cache) Prune(targetBytes int64) (int64, error) {
	if targetBytes < 0 {
		targetBytes = 0
	}
	c.pruneMu.Lock()
	defer c.pruneMu.Unlock()

	freed, remaining, err := pruneDir(c.dir, targetBytes)
	if err != nil {
		return 0, err
	}
	c.bytes.Store(remaining)
	if freed > 0 {
		c.logger.Debug("cache pruned", slog.Int64("freed", freed), slog.Int64("remaining", remaining))
	}
	return freed, nil
}

func (c *Cache) path(dgst digest.Digest) (string, error) {
	if err := dgst.Validate(); err != nil {
		return "", err
	}
	algo, encoded := string(dgst.Algorithm()), dgst.Encoded()
	if c.shardPrefixLen <= 0 {
		return filepath.Join(c.dir, algo, encoded), nil
	}
	prefixLen := min(c.shardPrefixLen, len(encoded))
	return filepath.Join(c.dir, algo, encoded[:prefixLen], encoded), nil
}

func (c *Cache) write(path string, data []byte) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}

	if ok, err := c.ensureCapacity(int64(len(data))); err != nil {
		return err
	} else if !ok {
		return nil
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, c.dirPerm); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr == nil {
			_ = os.Remove(tmpPath)
			return nil
		}
		_ = os.Remove(tmpPath)
		return err
	}
	c.bytes.Add(int64(len(data)))
	return nil
}

func (c *Cache) remove(path string, size int64) {
	if err := os.Remove(path); err == nil {
		c.bytes.Add(-size)
	}
}

func (c *Cache) ensureCapacity(need int64) (bool, error) {
	if c.maxBytes <= 0 {
		return true, nil
	}
	if need > c.maxBytes {
		return false, nil
	}
	if c.SizeBytes()+need <= c.maxBytes {
		return true, nil
	}
	if _, err := c.Prune(c.maxBytes - need); err != nil {
		return false, err
	}
	return c.SizeBytes()+need <= c.maxBytes, nil
}
