// Package memory provides an in-memory IR cache for tests and cacheless
// deployments.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/ssdl-lang/ssdlc/internal/port"
)

type CacheStub struct {
	mu   sync.RWMutex
	data map[string][]byte
}

func NewCacheStub() *CacheStub {
	return &CacheStub{
		data: make(map[string][]byte),
	}
}

func (c *CacheStub) Get(ctx context.Context, hash string) ([]byte, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.data[hash]
	if !ok {
		return nil, false, nil
	}
	cp := make([]byte, len(val))
	copy(cp, val)
	return cp, true, nil
}

func (c *CacheStub) Set(ctx context.Context, hash string, ir []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]byte, len(ir))
	copy(cp, ir)
	c.data[hash] = cp
	return nil
}

// Len reports the number of cached entries.
func (c *CacheStub) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.data)
}

var _ port.IRCache = (*CacheStub)(nil)
