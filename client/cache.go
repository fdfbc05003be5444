package client

import "sync"

// Cache is the session-scoped signature → record store. It is unbounded and
// never evicts: it lives for the lifetime of one coordinator and is thrown
// away with it. The lock only serializes prefetch writes against the
// coordinator's reads; there is no TTL machinery.
type Cache struct {
	mu      sync.RWMutex
	records map[string]*TransactionRecord
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{records: make(map[string]*TransactionRecord)}
}

// Get returns the cached record for a signature, if present.
func (c *Cache) Get(signature string) (*TransactionRecord, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, ok := c.records[signature]
	return record, ok
}

// Put stores a record under its signature. Later writes for the same
// signature are ignored; records are immutable so the first one wins.
func (c *Cache) Put(signature string, record *TransactionRecord) {
	if record == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[signature]; !exists {
		c.records[signature] = record
	}
}

// Len reports the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
