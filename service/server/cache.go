package server

import (
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/txwatch/sigview/service/solana"
)

type cacheEntry struct {
	record   *solana.TransactionRecord
	storedAt time.Time
}

// recordCache is a bounded in-process cache for resolved records. Entries
// expire after a TTL so a pruned or re-orged view cannot be served stale
// forever. A nil *recordCache is a no-op at every call site.
type recordCache struct {
	ttl   time.Duration
	mu    sync.RWMutex
	store *lru.Cache[string, cacheEntry]
}

func newRecordCache(maxEntries int, ttl time.Duration) *recordCache {
	if maxEntries <= 0 {
		return nil
	}
	store, _ := lru.New[string, cacheEntry](maxEntries)
	return &recordCache{
		ttl:   ttl,
		store: store,
	}
}

func (c *recordCache) Get(signature string) (*solana.TransactionRecord, bool) {
	if c == nil || signature == "" {
		return nil, false
	}
	c.mu.RLock()
	entry, ok := c.store.Get(signature)
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && time.Since(entry.storedAt) > c.ttl {
		c.mu.Lock()
		c.store.Remove(signature)
		c.mu.Unlock()
		return nil, false
	}
	return entry.record, true
}

func (c *recordCache) Add(signature string, record *solana.TransactionRecord) {
	if c == nil || signature == "" || record == nil {
		return
	}
	c.mu.Lock()
	c.store.Add(signature, cacheEntry{record: record, storedAt: time.Now()})
	c.mu.Unlock()
}

func (c *recordCache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.store.Len()
}
