// internal/cache/cache.go
//
// Small byte cache for read-heavy, slightly stale responses (the leaderboard).
// Backed by freecache with a fixed TTL; New returns a no-op cache when the
// cache is disabled so callers never branch on it.

package cache

import (
	"time"
	"unsafe"

	"github.com/coocood/freecache"
	"github.com/rs/zerolog/log"
)

// Cache stores opaque values for a fixed TTL.
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte)
}

// Observer counts lookups.
type Observer interface {
	CacheHit()
	CacheMiss()
}

// Freecache is a Cache over a preallocated freecache segment.
type Freecache struct {
	cache *freecache.Cache
	ttl   int
}

// New returns a freecache of sizeMB megabytes whose entries live for ttl,
// or a no-op cache when disabled.
func New(enabled bool, sizeMB int, ttl time.Duration) Cache {
	if !enabled || sizeMB <= 0 {
		log.Info().Msg("cache disabled")
		return noopCache{}
	}
	secs := max(int(ttl.Seconds()), 1)
	log.Info().Int("sizeMB", sizeMB).Int("ttlSeconds", secs).Msg("cache initialized")
	return &Freecache{
		cache: freecache.NewCache(sizeMB * 1024 * 1024),
		ttl:   secs,
	}
}

// keyBytes avoids a copy; freecache copies keys internally.
func keyBytes(s string) []byte {
	if s == "" {
		return nil
	}
	return unsafe.Slice(unsafe.StringData(s), len(s))
}

func (c *Freecache) Get(key string) ([]byte, bool) {
	v, err := c.cache.Get(keyBytes(key))
	if err != nil {
		return nil, false
	}
	return v, true
}

func (c *Freecache) Set(key string, value []byte) {
	if err := c.cache.Set(keyBytes(key), value, c.ttl); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set")
	}
}

type noopCache struct{}

func (noopCache) Get(string) ([]byte, bool) { return nil, false }
func (noopCache) Set(string, []byte)        {}

// Instrumented reports hits and misses of inner to o.
type Instrumented struct {
	inner Cache
	obs   Observer
}

// WithObserver wraps c so lookups are counted. A disabled cache is returned
// as is to avoid counting misses that are not real.
func WithObserver(c Cache, o Observer) Cache {
	if _, off := c.(noopCache); off || o == nil {
		return c
	}
	return &Instrumented{inner: c, obs: o}
}

func (c *Instrumented) Get(key string) ([]byte, bool) {
	v, ok := c.inner.Get(key)
	if ok {
		c.obs.CacheHit()
	} else {
		c.obs.CacheMiss()
	}
	return v, ok
}

func (c *Instrumented) Set(key string, value []byte) { c.inner.Set(key, value) }
