package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
)

// DefaultCacheSize is the number of datasets a Cache keeps by default.
const DefaultCacheSize = 16

// Cache keeps recently loaded datasets so that several audits reading the
// same file within one invocation decode it once. Cached datasets are shared
// and must not be mutated.
type Cache struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *Dataset]
	hits    uint64
	misses  uint64
}

// CacheStats reports cache usage.
type CacheStats struct {
	Hits   uint64 `json:"hits" yaml:"hits"`
	Misses uint64 `json:"misses" yaml:"misses"`
	Size   int    `json:"size" yaml:"size"`
}

// NewCache creates a cache holding up to size datasets.
func NewCache(size int) (*Cache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	entries, err := lru.New[string, *Dataset](size)
	if err != nil {
		return nil, fmt.Errorf("creating dataset cache: %w", err)
	}

	return &Cache{entries: entries}, nil
}

// Load returns the cached dataset for path and opts, loading it on a miss.
// The lock is held while loading so concurrent callers never decode the same
// file twice.
func (c *Cache) Load(path string, opts LoadOptions) (*Dataset, error) {
	key, err := cacheKey(path, opts)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if ds, ok := c.entries.Get(key); ok {
		c.hits++
		log.Debug().Str("path", path).Msg("Dataset cache hit")
		return ds, nil
	}
	c.misses++

	ds, err := LoadFile(path, opts)
	if err != nil {
		return nil, err
	}

	c.entries.Add(key, ds)
	return ds, nil
}

// Stats returns current cache statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return CacheStats{
		Hits:   c.hits,
		Misses: c.misses,
		Size:   c.entries.Len(),
	}
}

func cacheKey(path string, opts LoadOptions) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", path, err)
	}

	missing := "<default>"
	if opts.MissingValues != nil {
		missing = strings.Join(opts.MissingValues, "\x1f")
	}

	return strings.Join([]string{
		abs,
		string(opts.Format),
		string(opts.Delimiter),
		missing,
		opts.Name,
	}, "\x00"), nil
}
