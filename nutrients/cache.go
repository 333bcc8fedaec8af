package nutrients

import (
	"context"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached memoizes successful lookups in a bounded LRU keyed by lower-cased crop name.
// Misses are not cached so a transient outage does not hide data for the process lifetime.
type Cached struct {
	next  Lookup
	cache *lru.Cache[string, Profile]
}

func NewCached(next Lookup, size int) (*Cached, error) {
	cache, err := lru.New[string, Profile](size)
	if err != nil {
		return nil, fmt.Errorf("create nutrient cache: %w", err)
	}
	return &Cached{next: next, cache: cache}, nil
}

func (c *Cached) Lookup(ctx context.Context, crop string) (Profile, bool) {
	key := strings.ToLower(strings.TrimSpace(crop))
	if p, ok := c.cache.Get(key); ok {
		return p, true
	}
	p, ok := c.next.Lookup(ctx, crop)
	if ok {
		c.cache.Add(key, p)
	}
	return p, ok
}

func (c *Cached) Len() int { return c.cache.Len() }
