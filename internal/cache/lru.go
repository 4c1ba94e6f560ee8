package cache

import (
	lru "github.com/hashicorp/golang-lru/v2"
)

// BodyMemo provides thread-safe LRU caching of normalized bodies.
// It lives for one process; unlike Store it is never persisted.
type BodyMemo struct {
	cache *lru.Cache[string, string]
}

// NewBodyMemo creates a new LRU memo with the specified maximum number of items.
func NewBodyMemo(maxItems int) (*BodyMemo, error) {
	c, err := lru.New[string, string](maxItems)
	if err != nil {
		return nil, err
	}
	return &BodyMemo{cache: c}, nil
}

// Get retrieves a normalized body by its digest.
func (m *BodyMemo) Get(key string) (string, bool) {
	return m.cache.Get(key)
}

// Put adds or updates a normalized body.
func (m *BodyMemo) Put(key, body string) {
	m.cache.Add(key, body)
}

// Len returns the current number of items in the memo.
func (m *BodyMemo) Len() int {
	return m.cache.Len()
}
