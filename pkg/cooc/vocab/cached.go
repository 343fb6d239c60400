package vocab

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// Cached fronts a slow Index (SQL-backed, remote) with an LRU of token
// lookups. Misses are cached too, so unknown tokens stay cheap to skip.
type Cached struct {
	inner Index
	cache *lru.Cache[string, cachedEntry]
}

type cachedEntry struct {
	elem Element
	ok   bool
}

// NewCached wraps inner with a cache of the given size.
func NewCached(inner Index, size int) (*Cached, error) {
	if size <= 0 {
		size = 4096
	}
	c, err := lru.New[string, cachedEntry](size)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: inner, cache: c}, nil
}

// IndexOf implements Index.
func (c *Cached) IndexOf(token string) (int, bool) {
	e, ok := c.ElementFor(token)
	return e.Index, ok
}

// ElementAt implements Index. Reverse lookups are not cached.
func (c *Cached) ElementAt(i int) (Element, bool) {
	return c.inner.ElementAt(i)
}

// ElementFor implements Index.
func (c *Cached) ElementFor(token string) (Element, bool) {
	if hit, ok := c.cache.Get(token); ok {
		return hit.elem, hit.ok
	}
	elem, ok := c.inner.ElementFor(token)
	c.cache.Add(token, cachedEntry{elem: elem, ok: ok})
	return elem, ok
}
